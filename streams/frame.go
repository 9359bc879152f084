package streams

// Voltage conventions follow the emulated hardware: audio is nominally
// ±5 V, control voltages 0-8 V, outputs hard-clamped to ±10 V.
const (
	AudioFullScaleVolts = 5.0
	CVFullScaleVolts    = 8.0
	MaxOutputVolts      = 10.0

	// Schmitt trigger thresholds for gate detection on the excite input.
	gateHighVolts = 1.0
	gateLowVolts  = 0.5

	// Momentary buttons arrive as pre-scaled parameter values in [0,1].
	buttonThreshold = 0.5
)

// ChannelFrame carries one channel's per-sample signals together with the
// per-block control snapshot shared by all voices.
type ChannelFrame struct {
	// Per-voice sample inputs, in volts.
	ExciteIn float64
	SignalIn float64
	LevelCV  float64

	// Per-block knob values, pre-scaled to [0,1] by the host.
	ShapeKnob    float64
	ModKnob      float64
	LevelModKnob float64
	ResponseKnob float64

	// Per-block connection flags.
	SignalInConnected bool
	LevelCVConnected  bool

	// Momentary function button value.
	FunctionButton float64

	// Outputs.
	SignalOut float64
	LEDGreen  [NumSegments]float64
	LEDRed    [NumSegments]float64
}

// Frame is the per-sample exchange record between the host and one engine.
// One Frame is populated per block and reused across all polyphonic voices;
// only the per-voice sample fields change between Process calls.
type Frame struct {
	Ch [NumChannels]ChannelFrame

	// Momentary metering button value, shared by both channels.
	MeteringButton float64

	// LightsUpdated reports whether meter segment data changed during the
	// last Process call.
	LightsUpdated bool
}
