package audio

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
)

func TestGeneratePeaksShape(t *testing.T) {
	buf := make([]byte, 4096)
	for i := range buf {
		buf[i] = byte(i % 251)
	}

	peaks := GeneratePeaks(buf, 500)
	if len(peaks) != 2 {
		t.Fatalf("channels = %d, want 2", len(peaks))
	}
	for ch, channel := range peaks {
		if len(channel) != 500 {
			t.Fatalf("channel %d length = %d, want 500", ch, len(channel))
		}
		for i, v := range channel {
			if v < 0 || v > 1 {
				t.Fatalf("channel %d sample %d = %f out of [0,1]", ch, i, v)
			}
		}
	}
}

func TestGeneratePeaksDeterministic(t *testing.T) {
	buf := []byte{0, 255, 128, 64, 200, 17, 99, 3}
	a, _ := json.Marshal(GeneratePeaks(buf, 500))
	b, _ := json.Marshal(GeneratePeaks(buf, 500))
	if !bytes.Equal(a, b) {
		t.Error("repeated calls must produce byte-identical output")
	}
}

func TestGeneratePeaksEmptyBuffer(t *testing.T) {
	peaks := GeneratePeaks(nil, 500)
	if len(peaks) != 2 || len(peaks[0]) != 500 || len(peaks[1]) != 500 {
		t.Fatal("empty buffer must still yield full-shape output")
	}
	for _, channel := range peaks {
		for i, v := range channel {
			if v != 0 {
				t.Fatalf("sample %d = %f, want 0", i, v)
			}
		}
	}
}

func TestGeneratePeaksUndersizedBuffer(t *testing.T) {
	// Fewer bytes than samples: chunks re-sample the same bytes, never panic.
	peaks := GeneratePeaks([]byte{10, 250, 128}, 500)
	for _, channel := range peaks {
		if len(channel) != 500 {
			t.Fatalf("length = %d, want 500", len(channel))
		}
	}
}

func TestGeneratePeaksStereoScaling(t *testing.T) {
	buf := make([]byte, 1000)
	for i := range buf {
		buf[i] = byte(i)
	}
	peaks := GeneratePeaks(buf, 10)
	for i := range peaks[0] {
		want := peaks[0][i] * 0.95
		if diff := peaks[1][i] - want; diff > 1e-12 || diff < -1e-12 {
			t.Fatalf("right[%d] = %f, want %f", i, peaks[1][i], want)
		}
	}
}

func TestGeneratePeaksGainClamp(t *testing.T) {
	// Full-scale bytes would exceed 1.0 after gain; must clamp.
	buf := bytes.Repeat([]byte{0xFF}, 256)
	peaks := GeneratePeaks(buf, 4)
	for _, v := range peaks[0] {
		if v != 1.0 {
			t.Fatalf("full-scale peak = %f, want clamped 1.0", v)
		}
	}
}
