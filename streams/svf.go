package streams

import "math"

// Cutoff range for CV-controlled filtering. The upper bound is additionally
// limited relative to the sample rate inside lowPass.
const (
	minCutoffHz = 20.0
	maxCutoffHz = 12000.0
)

// svfState is a topology-preserving-transform state-variable filter
// (Zavalishin). Cutoff and resonance are accepted per sample so a control
// voltage can sweep the filter without coefficient caching.
type svfState struct {
	ic1eq float64
	ic2eq float64
}

func (s *svfState) reset() {
	s.ic1eq = 0
	s.ic2eq = 0
}

// lowPass advances the filter by one sample and returns the low-pass output.
// The cutoff/sample-rate ratio is clamped to keep tan() and the feedback
// path stable at any host sample rate.
func (s *svfState) lowPass(x, cutoffHz, resonance, sampleRate float64) float64 {
	ratio := clamp(cutoffHz/sampleRate, 0.0005, 0.49)
	g := math.Tan(math.Pi * ratio)
	k := 1.0 / clamp(resonance, 0.5, 20.0)

	a1 := 1.0 / (1.0 + g*(g+k))
	a2 := g * a1
	a3 := g * a2

	v3 := x - s.ic2eq
	v1 := a1*s.ic1eq + a2*v3
	v2 := s.ic2eq + a2*s.ic1eq + a3*v3

	s.ic1eq = 2*v1 - s.ic1eq
	s.ic2eq = 2*v2 - s.ic2eq

	return v2
}

// cvToCutoff maps a unipolar control voltage onto the cutoff range with an
// exponential (volt-per-octave style) response.
func cvToCutoff(cv float64) float64 {
	return expMap(clampUnit(cv), minCutoffHz, maxCutoffHz)
}
