package audio

// Waveform peak extraction. This is a visual approximation over the raw byte
// buffer, not spectral or RMS analysis: the contract is stable, deterministic,
// bounded-range output that looks plausible in a player widget.

const (
	// waveformGain boosts low peaks for visibility; values clamp at 1.0.
	waveformGain = 1.2
	// rightChannelScale fakes a stereo image from the single sampled channel.
	rightChannelScale = 0.95
	// byteMidpoint is the zero line for unsigned 8-bit interpretation.
	byteMidpoint = 128.0
)

// GeneratePeaks partitions buf into samples equal-width chunks and emits the
// maximum absolute deviation from the byte midpoint per chunk, normalized to
// [0,1]. Two channels are returned; the second is a fixed scalar of the first.
// Empty or undersized buffers yield well-defined output (zeros, or repeated
// sampling of the same bytes).
func GeneratePeaks(buf []byte, samples int) [][]float64 {
	if samples <= 0 {
		samples = 1
	}
	left := make([]float64, samples)
	right := make([]float64, samples)

	if len(buf) > 0 {
		for i := 0; i < samples; i++ {
			start := i * len(buf) / samples
			end := (i + 1) * len(buf) / samples
			if end <= start {
				end = start + 1
			}
			if end > len(buf) {
				end = len(buf)
			}

			var peak float64
			for _, b := range buf[start:end] {
				dev := float64(b) - byteMidpoint
				if dev < 0 {
					dev = -dev
				}
				if dev > peak {
					peak = dev
				}
			}

			v := peak / byteMidpoint * waveformGain
			if v > 1.0 {
				v = 1.0
			}
			left[i] = v
			right[i] = v * rightChannelScale
		}
	}

	return [][]float64{left, right}
}
