package streams

import "math"

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}

	if x > hi {
		return hi
	}

	return x
}

func clampUnit(x float64) float64 {
	return clamp(x, 0, 1)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// expMap maps a [0,1] knob position onto [lo, hi] with an exponential
// response, the usual taper for time and frequency controls.
func expMap(t, lo, hi float64) float64 {
	return lo * math.Pow(hi/lo, t)
}

// onePoleCoeff computes the per-sample smoothing coefficient reaching half
// the remaining distance in the given time, following the attack/release
// constants used by the dynamics detector.
func onePoleCoeff(timeMs, sampleRate float64) float64 {
	return 1.0 - math.Exp(-math.Ln2/(timeMs*0.001*sampleRate))
}

func isFinite(v float64) bool {
	return !(math.IsNaN(v) || math.IsInf(v, 0))
}
