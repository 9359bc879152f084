package streams

import "math"

// Soft-knee compressor with log2-domain gain computation. The computed gain
// (including auto makeup) is emitted as the channel's VCA control voltage,
// so the meter in Level mode shows gain reduction directly. The detector
// listens to whichever of excite (external sidechain) or signal is hotter.
// The alternate personality is a slow compressor with 10x time constants.
//
// Knobs: shape sets the threshold depth, mod the ratio, response the
// attack/release speed.

const (
	compressorKneeDB        = 6.0
	compressorMaxDepthDB    = 40.0
	compressorMaxRatio      = 20.0
	minCompressorAttackMs   = 0.5
	maxCompressorAttackMs   = 50.0
	compressorReleaseFactor = 10.0
	slowCompressorScale     = 10.0

	// log2(10) / 20, converting decibels to the log2 domain.
	log2Of10Div20 = 0.166096404744
)

type compressorState struct {
	peakLevel float64

	cachedShape float64
	cachedMod   float64
	cachedResp  float64
	cachedSlow  bool
	cachedRate  float64

	attackCoeff      float64
	releaseCoeff     float64
	ratio            float64
	thresholdLog2    float64
	kneeWidthLog2    float64
	invKneeWidthLog2 float64
	makeupGainLin    float64
	coeffsValid      bool
}

func (c *compressorState) reset() {
	c.peakLevel = 0
}

func (c *compressorState) invalidate() {
	c.coeffsValid = false
}

func (c *compressorState) updateCoefficients(shape, mod, resp float64, slow bool, sampleRate float64) {
	if c.coeffsValid && shape == c.cachedShape && mod == c.cachedMod &&
		resp == c.cachedResp && slow == c.cachedSlow && sampleRate == c.cachedRate {
		return
	}

	thresholdDB := -compressorMaxDepthDB * clampUnit(shape)
	c.ratio = 1 + (compressorMaxRatio-1)*clampUnit(mod)

	attackMs := expMap(clampUnit(resp), minCompressorAttackMs, maxCompressorAttackMs)
	releaseMs := attackMs * compressorReleaseFactor

	if slow {
		attackMs *= slowCompressorScale
		releaseMs *= slowCompressorScale
	}

	c.attackCoeff = onePoleCoeff(attackMs, sampleRate)
	c.releaseCoeff = math.Exp(-math.Ln2 / (releaseMs * 0.001 * sampleRate))

	c.thresholdLog2 = thresholdDB * log2Of10Div20
	c.kneeWidthLog2 = compressorKneeDB * log2Of10Div20
	c.invKneeWidthLog2 = 1.0 / c.kneeWidthLog2

	// Auto makeup compensates for the gain reduction at threshold.
	makeupDB := -thresholdDB * (1.0 - 1.0/c.ratio)
	c.makeupGainLin = mathPower10(makeupDB / 20.0)

	c.cachedShape = shape
	c.cachedMod = mod
	c.cachedResp = resp
	c.cachedSlow = slow
	c.cachedRate = sampleRate
	c.coeffsValid = true
}

func (c *compressorState) process(cf *ChannelFrame, alternate bool, sampleRate float64) float64 {
	c.updateCoefficients(cf.ShapeKnob, cf.ModKnob, cf.ResponseKnob, alternate, sampleRate)

	source := math.Max(
		math.Abs(cf.SignalIn)/AudioFullScaleVolts,
		math.Abs(cf.ExciteIn)/CVFullScaleVolts,
	)

	if source > c.peakLevel {
		c.peakLevel += (source - c.peakLevel) * c.attackCoeff
	} else {
		c.peakLevel = source + (c.peakLevel-source)*c.releaseCoeff
	}

	return c.gainForLevel(c.peakLevel) * c.makeupGainLin
}

// gainForLevel computes the gain multiplier using the log2-domain
// soft-knee formula: quadratic smoothing inside the knee, the full ratio
// above it.
func (c *compressorState) gainForLevel(level float64) float64 {
	if level <= 0 {
		return 1.0
	}

	overshoot := mathLog2(level) - c.thresholdLog2
	halfWidth := c.kneeWidthLog2 * 0.5

	var effectiveOvershoot float64

	switch {
	case overshoot < -halfWidth:
		return 1.0
	case overshoot > halfWidth:
		effectiveOvershoot = overshoot
	default:
		scratch := overshoot + halfWidth
		effectiveOvershoot = scratch * scratch * 0.5 * c.invKneeWidthLog2
	}

	gainLog2 := -effectiveOvershoot * (1.0 - 1.0/c.ratio)

	return mathPower2(gainLog2)
}
