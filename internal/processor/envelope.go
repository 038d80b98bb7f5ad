package processor

import "math"

// ExtractEnvelope reduces a mono signal to a fixed-length peak-amplitude
// envelope normalized so the loudest point is 1.0. A silent signal yields
// an all-zero envelope. The mapping from sample index to envelope index is
// linear, so envelope index i covers the time range
// [i, i+1) * duration / length — downstream code relies on this to convert
// interval boundaries back to seconds.
func ExtractEnvelope(samples []float64, length int) []float64 {
	if length <= 0 || len(samples) == 0 {
		return nil
	}

	envelope := make([]float64, length)
	n := len(samples)
	peak := 0.0

	for i := 0; i < length; i++ {
		// Window boundaries computed from the linear index mapping rather
		// than a fixed hop, so the last window always ends at the last
		// sample regardless of rounding.
		start := i * n / length
		end := (i + 1) * n / length
		if end > n {
			end = n
		}

		windowPeak := 0.0
		for j := start; j < end; j++ {
			if v := math.Abs(samples[j]); v > windowPeak {
				windowPeak = v
			}
		}
		envelope[i] = windowPeak
		if windowPeak > peak {
			peak = windowPeak
		}
	}

	if peak > 0 {
		for i := range envelope {
			envelope[i] /= peak
		}
	}
	return envelope
}
