package streams

// Filter controller: maps the excite control voltage onto the channel
// filter cutoff. The normal personality slews the cutoff CV; the alternate
// (direct VCF controller) applies it immediately.
//
// Knobs: shape offsets the cutoff, mod sets the filter resonance (read by
// the channel pipeline), response sets the slew time.

const (
	minFilterSlewMs = 1.0
	maxFilterSlewMs = 500.0
)

type filterCtlState struct {
	current float64

	cachedResp  float64
	cachedRate  float64
	slewCoeff   float64
	coeffsValid bool
}

func (f *filterCtlState) reset() {
	f.current = 0
}

func (f *filterCtlState) invalidate() {
	f.coeffsValid = false
}

func (f *filterCtlState) updateCoefficients(resp, sampleRate float64) {
	if f.coeffsValid && resp == f.cachedResp && sampleRate == f.cachedRate {
		return
	}

	slewMs := expMap(clampUnit(resp), minFilterSlewMs, maxFilterSlewMs)
	f.slewCoeff = onePoleCoeff(slewMs, sampleRate)

	f.cachedResp = resp
	f.cachedRate = sampleRate
	f.coeffsValid = true
}

func (f *filterCtlState) process(cf *ChannelFrame, alternate bool, sampleRate float64) float64 {
	f.updateCoefficients(cf.ResponseKnob, sampleRate)

	target := clampUnit(cf.ShapeKnob + cf.ExciteIn/CVFullScaleVolts)

	if alternate {
		f.current = target
	} else {
		f.current += (target - f.current) * f.slewCoeff
	}

	return f.current
}
