package streams

// Triggered envelope generator. The normal personality is an AD envelope:
// a rising excite edge starts the attack, the decay follows as soon as the
// peak is reached. The alternate personality is an AR envelope that holds
// the peak while the excite gate stays high and releases when it falls.
//
// Knobs: shape balances attack against decay time, mod sets the overall
// envelope time, response blends linear and squared segment curves.

type envPhase int

const (
	envIdle envPhase = iota
	envAttack
	envDecay
)

const (
	minEnvelopeTimeMs = 1.0
	maxEnvelopeTimeMs = 4000.0
	minSegmentMs      = 0.5

	// Exponential attack target slightly above the peak so the segment
	// terminates instead of approaching 1 asymptotically.
	envAttackTarget = 1.12

	envSilenceFloor = 1e-5
)

type envelopeState struct {
	gate  bool
	phase envPhase
	value float64

	// Cached control snapshot and derived coefficients.
	cachedShape float64
	cachedMod   float64
	cachedRate  float64
	attackCoeff float64
	decayCoeff  float64
	coeffsValid bool
}

func (e *envelopeState) reset() {
	e.gate = false
	e.phase = envIdle
	e.value = 0
}

func (e *envelopeState) invalidate() {
	e.coeffsValid = false
}

func (e *envelopeState) updateCoefficients(shape, mod, sampleRate float64) {
	if e.coeffsValid && shape == e.cachedShape && mod == e.cachedMod &&
		sampleRate == e.cachedRate {
		return
	}

	totalMs := expMap(clampUnit(mod), minEnvelopeTimeMs, maxEnvelopeTimeMs)
	attackFrac := lerp(0.02, 0.98, clampUnit(shape))

	attackMs := max(totalMs*attackFrac, minSegmentMs)
	decayMs := max(totalMs*(1-attackFrac), minSegmentMs)

	e.attackCoeff = onePoleCoeff(attackMs, sampleRate)
	e.decayCoeff = onePoleCoeff(decayMs, sampleRate)

	e.cachedShape = shape
	e.cachedMod = mod
	e.cachedRate = sampleRate
	e.coeffsValid = true
}

func (e *envelopeState) process(cf *ChannelFrame, alternate bool, sampleRate float64) float64 {
	e.updateCoefficients(cf.ShapeKnob, cf.ModKnob, sampleRate)

	if !e.gate && cf.ExciteIn > gateHighVolts {
		e.gate = true
		e.phase = envAttack
	} else if e.gate && cf.ExciteIn < gateLowVolts {
		e.gate = false
		if alternate {
			e.phase = envDecay
		}
	}

	switch e.phase {
	case envAttack:
		e.value += (envAttackTarget - e.value) * e.attackCoeff
		if e.value >= 1 {
			e.value = 1
			// AR holds the peak while the gate stays high.
			if !alternate || !e.gate {
				e.phase = envDecay
			}
		}
	case envDecay:
		e.value -= e.value * e.decayCoeff
		if e.value < envSilenceFloor {
			e.value = 0
			e.phase = envIdle
		}
	case envIdle:
	}

	return lerp(e.value, e.value*e.value, clampUnit(cf.ResponseKnob))
}
