package streams

import "math"

// Vactrol emulation. A photocoupler opens quickly when driven and closes
// with a level-dependent tail: the dimmer the LED, the slower the
// photoresistor recovers. The normal personality follows the excite gate;
// the plucked personality injects a decaying strike on each excite edge,
// giving the classic low-pass-gate ping.
//
// Knobs: shape sets the decay time, mod the depth of the nonlinear tail,
// response the attack time.

const (
	minVactrolDecayMs  = 10.0
	maxVactrolDecayMs  = 2500.0
	minVactrolAttackMs = 0.1
	maxVactrolAttackMs = 50.0

	// Drive targets slightly above unity emulate LED overdrive.
	vactrolDriveCeiling = 1.25
)

type vactrolState struct {
	gate   bool
	strike float64
	level  float64

	cachedShape float64
	cachedResp  float64
	cachedRate  float64
	attackCoeff float64
	decayCoeff  float64
	strikeCoeff float64
	coeffsValid bool
}

func (v *vactrolState) reset() {
	v.gate = false
	v.strike = 0
	v.level = 0
}

func (v *vactrolState) invalidate() {
	v.coeffsValid = false
}

func (v *vactrolState) updateCoefficients(shape, resp, sampleRate float64) {
	if v.coeffsValid && shape == v.cachedShape && resp == v.cachedResp &&
		sampleRate == v.cachedRate {
		return
	}

	decayMs := expMap(clampUnit(shape), minVactrolDecayMs, maxVactrolDecayMs)
	attackMs := expMap(clampUnit(resp), minVactrolAttackMs, maxVactrolAttackMs)

	v.attackCoeff = onePoleCoeff(attackMs, sampleRate)
	v.decayCoeff = onePoleCoeff(decayMs, sampleRate)
	// The strike impulse discharges faster than the vactrol it excites.
	v.strikeCoeff = onePoleCoeff(max(decayMs*0.1, 1.0), sampleRate)

	v.cachedShape = shape
	v.cachedResp = resp
	v.cachedRate = sampleRate
	v.coeffsValid = true
}

func (v *vactrolState) process(cf *ChannelFrame, alternate bool, sampleRate float64) float64 {
	v.updateCoefficients(cf.ShapeKnob, cf.ResponseKnob, sampleRate)

	edge := false

	if !v.gate && cf.ExciteIn > gateHighVolts {
		v.gate = true
		edge = true
	} else if v.gate && cf.ExciteIn < gateLowVolts {
		v.gate = false
	}

	var target float64

	if alternate {
		if edge {
			v.strike = 1
		}

		v.strike -= v.strike * v.strikeCoeff
		target = vactrolDriveCeiling * v.strike
	} else if v.gate {
		target = clamp(math.Abs(cf.ExciteIn)/CVFullScaleVolts, 0, vactrolDriveCeiling)
	}

	if target > v.level {
		v.level += (target - v.level) * v.attackCoeff
	} else {
		// Level-dependent closing speed: near-dark vactrols recover slowly.
		depth := clampUnit(cf.ModKnob)
		slew := v.decayCoeff * lerp(1, 0.1+0.9*v.level, depth)
		v.level += (target - v.level) * slew
	}

	return clampUnit(v.level)
}
