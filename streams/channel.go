package streams

import (
	"math"
	"math/rand"
)

// Channel is one per-channel processor: the stateful unit implementing the
// six processing functions' shared lifecycle. Every function keeps its own
// state struct, so switching functions never discards accumulated
// envelope/filter state and never needs a pipeline reset.
type Channel struct {
	sampleRate float64
	function   Function
	alternate  bool

	// Function-button latch for rising-edge detection.
	pressed bool

	env  envelopeState
	vac  vactrolState
	fol  followerState
	comp compressorState
	fctl filterCtlState
	lor  lorenzState
	svf  svfState

	meter meterState
}

// Reset clears internal filter/envelope state and LED state to quiescent
// values. It is idempotent and leaves the function selection untouched.
func (c *Channel) Reset() {
	c.pressed = false
	c.env.reset()
	c.vac.reset()
	c.fol.reset()
	c.comp.reset()
	c.fctl.reset()
	c.lor.reset()
	c.svf.reset()
	c.meter.reset()
}

// SetSampleRate recomputes internal time constants from the new rate
// without discarding accumulated envelope/filter state.
func (c *Channel) SetSampleRate(sampleRate float64) {
	if sampleRate == c.sampleRate {
		return
	}

	c.sampleRate = sampleRate
	c.env.invalidate()
	c.vac.invalidate()
	c.fol.invalidate()
	c.comp.invalidate()
	c.fctl.invalidate()
}

// ApplyFunction switches the active processing behavior. Internal state
// persists across switches; only sub-state that would otherwise be
// degenerate for the new function is re-initialized (a Lorenz state parked
// at the origin would never leave it).
func (c *Channel) ApplyFunction(function Function, alternate bool) {
	c.function = function
	c.alternate = alternate

	if function == FunctionLorenzGenerator && !c.lor.seeded() {
		c.lor.seed()
	}
}

// Function returns the active processing function.
func (c *Channel) Function() Function { return c.function }

// Alternate reports whether the alternate personality is active.
func (c *Channel) Alternate() bool { return c.alternate }

// handleButton advances the rising-edge state machine and cycles the
// selection on each press: normal variant, alternate variant, next
// function's normal variant, wrapping after the last function.
func (c *Channel) handleButton(value float64) bool {
	if value < buttonThreshold {
		c.pressed = false
		return false
	}

	if c.pressed {
		return false
	}

	c.pressed = true
	c.cycleFunction()

	return true
}

func (c *Channel) cycleFunction() {
	if !c.alternate {
		c.alternate = true
		return
	}

	c.alternate = false
	c.ApplyFunction(Function((int(c.function)+1)%numFunctions), false)
}

// randomize reseeds the stochastic interior state. Output stays bounded
// and the function selection is untouched.
func (c *Channel) randomize(rng *rand.Rand) {
	c.lor.randomize(rng)
}

// Process consumes one sample of excite/signal/level plus the shared knob
// values and connection flags, advances internal state by one sample, and
// writes the output sample plus LED segment brightness. It reports whether
// LED state actually changed this call.
func (c *Channel) Process(cf *ChannelFrame, monitor MonitorMode) bool {
	var cv float64

	filtered := false

	switch c.function {
	case FunctionEnvelope:
		cv = c.env.process(cf, c.alternate, c.sampleRate)
	case FunctionVactrol:
		cv = c.vac.process(cf, c.alternate, c.sampleRate)
	case FunctionFollower:
		cv = c.fol.process(cf, c.alternate, c.sampleRate)
		filtered = c.alternate
	case FunctionCompressor:
		cv = c.comp.process(cf, c.alternate, c.sampleRate)
	case FunctionFilterController:
		cv = c.fctl.process(cf, c.alternate, c.sampleRate)
		filtered = true
	case FunctionLorenzGenerator:
		cv = c.lor.process(cf, c.alternate, c.sampleRate)
	}

	var audio float64

	gainCV := cv

	if filtered {
		audio = c.svf.lowPass(cf.SignalIn, cvToCutoff(cv), c.resonance(cf), c.sampleRate)
		// For filter modes the VCA stays open; the CV drives the cutoff.
		gainCV = 1
	}

	level := 0.0
	if cf.LevelCVConnected {
		level = clamp(cf.LevelCV/CVFullScaleVolts, -1, 1)
	}

	gain := clamp(gainCV+cf.LevelModKnob*level, 0, 2)

	var out float64

	switch {
	case filtered:
		out = audio * gain
	case cf.SignalInConnected:
		out = cf.SignalIn * gain
	default:
		// With no signal patched the channel emits its control voltage.
		out = CVFullScaleVolts * gain
	}

	cf.SignalOut = clamp(out, -MaxOutputVolts, MaxOutputVolts)

	updated := c.meter.process(c.monitorLevel(cf, gain, monitor))
	if updated {
		cf.LEDGreen = c.meter.green
		cf.LEDRed = c.meter.red
	}

	return updated
}

// resonance reads the filter resonance from the knob that is free in the
// active mode: mod for the filter controller, response for the cutoff
// controller.
func (c *Channel) resonance(cf *ChannelFrame) float64 {
	if c.function == FunctionFilterController {
		return lerp(0.5, 10.0, clampUnit(cf.ModKnob))
	}

	return lerp(0.5, 10.0, clampUnit(cf.ResponseKnob))
}

func (c *Channel) monitorLevel(cf *ChannelFrame, gain float64, monitor MonitorMode) float64 {
	switch monitor {
	case MonitorExciteIn:
		return math.Abs(cf.ExciteIn) / CVFullScaleVolts
	case MonitorVCACV:
		return gain
	case MonitorAudioIn:
		return math.Abs(cf.SignalIn) / AudioFullScaleVolts
	case MonitorOutput:
		return math.Abs(cf.SignalOut) / AudioFullScaleVolts
	}

	return 0
}
