package audiocapture

import "math"

// Normalization constants.
const (
	TargetPeak     = 0.9
	QuietThreshold = 0.05 // below this peak the recording is left untouched
	MaxGain        = 10.0
)

// Peak returns the largest absolute sample value.
func Peak(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	return peak
}

// RMS returns the root mean square of samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Normalize scales samples in place so the peak sits at TargetPeak. Quiet
// recordings (peak at or below QuietThreshold) are not amplified, and the gain
// never exceeds MaxGain. It returns the applied gain.
func Normalize(samples []float32) float64 {
	peak := Peak(samples)
	if peak <= QuietThreshold {
		return 1
	}
	gain := math.Min(TargetPeak/peak, MaxGain)
	for i, s := range samples {
		samples[i] = float32(float64(s) * gain)
	}
	return gain
}
