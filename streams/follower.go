package streams

import "math"

// Level follower: the rectified excite input through an attack/release peak
// detector. The alternate personality (cutoff controller) uses the same
// detector to sweep the channel filter instead of the VCA.
//
// Knobs: shape sets the attack time, mod the release time, response the
// input sensitivity (normal) or the filter resonance, read by the channel
// pipeline (alternate).

const (
	minFollowerAttackMs  = 0.1
	maxFollowerAttackMs  = 100.0
	minFollowerReleaseMs = 10.0
	maxFollowerReleaseMs = 2000.0
)

type followerState struct {
	envelope float64

	cachedShape  float64
	cachedMod    float64
	cachedRate   float64
	attackCoeff  float64
	releaseCoeff float64
	coeffsValid  bool
}

func (f *followerState) reset() {
	f.envelope = 0
}

func (f *followerState) invalidate() {
	f.coeffsValid = false
}

func (f *followerState) updateCoefficients(shape, mod, sampleRate float64) {
	if f.coeffsValid && shape == f.cachedShape && mod == f.cachedMod &&
		sampleRate == f.cachedRate {
		return
	}

	attackMs := expMap(clampUnit(shape), minFollowerAttackMs, maxFollowerAttackMs)
	releaseMs := expMap(clampUnit(mod), minFollowerReleaseMs, maxFollowerReleaseMs)

	f.attackCoeff = onePoleCoeff(attackMs, sampleRate)
	f.releaseCoeff = math.Exp(-math.Ln2 / (releaseMs * 0.001 * sampleRate))

	f.cachedShape = shape
	f.cachedMod = mod
	f.cachedRate = sampleRate
	f.coeffsValid = true
}

func (f *followerState) process(cf *ChannelFrame, alternate bool, sampleRate float64) float64 {
	f.updateCoefficients(cf.ShapeKnob, cf.ModKnob, sampleRate)

	sensitivity := 1.0
	if !alternate {
		sensitivity = lerp(0.5, 4.0, clampUnit(cf.ResponseKnob))
	}

	source := math.Abs(cf.ExciteIn) / CVFullScaleVolts * sensitivity

	if source > f.envelope {
		f.envelope += (source - f.envelope) * f.attackCoeff
	} else {
		f.envelope = source + (f.envelope-source)*f.releaseCoeff
	}

	return clampUnit(f.envelope)
}
