package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// mp3Header is an MPEG1 Layer III, 128kbps, 44100Hz, stereo frame header.
var mp3Header = []byte{0xFF, 0xFB, 0x90, 0x00}

func TestExtractDurationCBR(t *testing.T) {
	// 160000 audio bytes at 128kbps is exactly 10 seconds.
	buf := make([]byte, 160000)
	copy(buf, mp3Header)

	dur, err := ExtractDuration(buf)
	if err != nil {
		t.Fatalf("ExtractDuration: %v", err)
	}
	if math.Abs(dur-10.0) > 0.01 {
		t.Errorf("duration = %f, want ~10.0", dur)
	}
}

func TestExtractDurationXing(t *testing.T) {
	buf := make([]byte, 4096)
	copy(buf, mp3Header)
	// Stereo MPEG1 side info is 32 bytes; Xing block follows it.
	off := 4 + 32
	copy(buf[off:], "Xing")
	binary.BigEndian.PutUint32(buf[off+4:], 0x1) // frames flag
	binary.BigEndian.PutUint32(buf[off+8:], 1000)

	dur, err := ExtractDuration(buf)
	if err != nil {
		t.Fatalf("ExtractDuration: %v", err)
	}
	want := 1000.0 * 1152.0 / 44100.0
	if math.Abs(dur-want) > 0.01 {
		t.Errorf("duration = %f, want %f", dur, want)
	}
}

func TestExtractDurationSkipsID3(t *testing.T) {
	tag := make([]byte, 138) // 10-byte header + 128 bytes of tag body
	copy(tag, "ID3")
	tag[3] = 4
	tag[9] = 128 // syncsafe size

	audio := make([]byte, 16000)
	copy(audio, mp3Header)

	dur, err := ExtractDuration(append(tag, audio...))
	if err != nil {
		t.Fatalf("ExtractDuration: %v", err)
	}
	want := 16000.0 * 8 / 128000.0
	if math.Abs(dur-want) > 0.01 {
		t.Errorf("duration = %f, want %f", dur, want)
	}
}

func TestExtractDurationGarbage(t *testing.T) {
	if _, err := ExtractDuration(bytes.Repeat([]byte{0x41}, 2048)); err == nil {
		t.Error("expected error for buffer with no frame sync")
	}
	if _, err := ExtractDuration(nil); err == nil {
		t.Error("expected error for empty buffer")
	}
}
