package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MP3 duration extraction by walking the container headers. Callers treat a
// failure here as duration 0; an upload must never fail solely because the
// duration could not be read.

var errNoFrame = errors.New("no MPEG audio frame found")

var mpeg1Bitrates = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320}
var mpeg2Bitrates = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160}

var sampleRates = map[byte][3]int{
	3: {44100, 48000, 32000}, // MPEG1
	2: {22050, 24000, 16000}, // MPEG2
	0: {11025, 12000, 8000},  // MPEG2.5
}

// ExtractDuration returns the playing time in seconds of an MP3 buffer. A
// Xing/Info header yields an exact frame count for VBR files; otherwise the
// duration is a CBR estimate from the first frame's bitrate.
func ExtractDuration(buf []byte) (float64, error) {
	offset := skipID3(buf)

	frameOff, hdr, err := findFrameSync(buf, offset)
	if err != nil {
		return 0, err
	}

	version := (hdr >> 19) & 0x3 // 3=MPEG1, 2=MPEG2, 0=MPEG2.5
	layer := (hdr >> 17) & 0x3   // 1=Layer III
	bitrateIdx := (hdr >> 12) & 0xF
	sampleIdx := (hdr >> 10) & 0x3
	channelMode := (hdr >> 6) & 0x3

	if layer != 1 {
		return 0, fmt.Errorf("unsupported MPEG layer index %d", layer)
	}
	rates, ok := sampleRates[byte(version)]
	if !ok || sampleIdx > 2 {
		return 0, fmt.Errorf("invalid sample rate field")
	}
	sampleRate := rates[sampleIdx]

	samplesPerFrame := 1152
	if version != 3 {
		samplesPerFrame = 576
	}

	// VBR path: Xing/Info block carries the total frame count.
	if frames, ok := readXingFrames(buf, frameOff, version == 3, channelMode); ok {
		return float64(frames) * float64(samplesPerFrame) / float64(sampleRate), nil
	}

	// CBR estimate from the first frame's bitrate over the audio payload.
	var bitrate int
	if version == 3 {
		bitrate = mpeg1Bitrates[bitrateIdx]
	} else {
		bitrate = mpeg2Bitrates[bitrateIdx]
	}
	if bitrate == 0 {
		return 0, fmt.Errorf("free-format bitrate not supported")
	}
	audioBytes := len(buf) - frameOff
	return float64(audioBytes) * 8 / float64(bitrate*1000), nil
}

// skipID3 returns the offset past a leading ID3v2 tag, if present.
func skipID3(buf []byte) int {
	if len(buf) < 10 || buf[0] != 'I' || buf[1] != 'D' || buf[2] != '3' {
		return 0
	}
	// Syncsafe 28-bit size, excluding the 10-byte header.
	size := int(buf[6]&0x7F)<<21 | int(buf[7]&0x7F)<<14 | int(buf[8]&0x7F)<<7 | int(buf[9]&0x7F)
	offset := size + 10
	if offset > len(buf) {
		return 0
	}
	return offset
}

// findFrameSync scans for the first valid MPEG frame header at or after start.
func findFrameSync(buf []byte, start int) (int, uint32, error) {
	for i := start; i+4 <= len(buf); i++ {
		if buf[i] != 0xFF || buf[i+1]&0xE0 != 0xE0 {
			continue
		}
		hdr := binary.BigEndian.Uint32(buf[i : i+4])
		version := (hdr >> 19) & 0x3
		layer := (hdr >> 17) & 0x3
		bitrateIdx := (hdr >> 12) & 0xF
		sampleIdx := (hdr >> 10) & 0x3
		if version == 1 || layer == 0 || bitrateIdx == 15 || sampleIdx == 3 {
			continue
		}
		return i, hdr, nil
	}
	return 0, 0, errNoFrame
}

// readXingFrames extracts the frame count from a Xing/Info header inside the
// first frame, when present and flagged.
func readXingFrames(buf []byte, frameOff int, mpeg1 bool, channelMode uint32) (int, bool) {
	// Side-info length determines where the Xing block sits.
	var sideInfo int
	mono := channelMode == 3
	switch {
	case mpeg1 && mono:
		sideInfo = 17
	case mpeg1:
		sideInfo = 32
	case mono:
		sideInfo = 9
	default:
		sideInfo = 17
	}

	off := frameOff + 4 + sideInfo
	if off+16 > len(buf) {
		return 0, false
	}
	tag := string(buf[off : off+4])
	if tag != "Xing" && tag != "Info" {
		return 0, false
	}
	flags := binary.BigEndian.Uint32(buf[off+4 : off+8])
	if flags&0x1 == 0 { // frames field absent
		return 0, false
	}
	frames := int(binary.BigEndian.Uint32(buf[off+8 : off+12]))
	if frames <= 0 {
		return 0, false
	}
	return frames, true
}
