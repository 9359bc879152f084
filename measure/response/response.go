package response

import (
	"errors"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"

	"github.com/cwbudde/algo-streams/streams"
)

// Errors returned by response measurements.
var (
	ErrInvalidSampleRate = errors.New("response: sample rate must be positive")
	ErrInvalidDuration   = errors.New("response: durations must be positive")
	ErrNoResponse        = errors.New("response: function produced no measurable response")
	ErrEmptyTrace        = errors.New("response: trace is empty")
)

// Knobs holds the panel positions used during a measurement, each in [0,1].
type Knobs struct {
	Shape    float64
	Mod      float64
	Response float64
}

// Config selects the function under measurement.
type Config struct {
	Function  streams.Function
	Alternate bool
	Knobs     Knobs
}

// StepMetrics holds gate step response measurements.
type StepMetrics struct {
	PeakCV      float64 // highest VCA control level reached
	SteadyCV    float64 // level at the end of the gate-on phase
	AttackTime  float64 // 10% to 90% of peak rise time in seconds
	ReleaseTime float64 // 90% to 10% fall time after the gate falls, seconds
}

// Analyzer measures engine functions at a fixed sample rate.
type Analyzer struct {
	SampleRate float64
}

// NewAnalyzer creates a response analyzer with the given sample rate.
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate}
}

// StepResponse drives the function with a single excite gate and records the
// control voltage it produces. The returned trace covers gateSeconds of
// gate-on followed by tailSeconds of silence, normalized to the CV range.
//
// Filter-controller personalities steer the filter instead of the VCA CV,
// and with nothing patched into the signal input their filtered path carries
// silence, so they yield ErrNoResponse. Step metrics are meaningful for the
// envelope-producing functions.
func (a *Analyzer) StepResponse(cfg Config, gateSeconds, tailSeconds float64) (StepMetrics, []float64, error) {
	if a.SampleRate <= 0 {
		return StepMetrics{}, nil, ErrInvalidSampleRate
	}

	if gateSeconds <= 0 || tailSeconds <= 0 {
		return StepMetrics{}, nil, ErrInvalidDuration
	}

	gateSamples := int(gateSeconds * a.SampleRate)
	tailSamples := int(tailSeconds * a.SampleRate)

	trace, err := a.record(cfg, gateSamples, tailSamples)
	if err != nil {
		return StepMetrics{}, nil, err
	}

	m, err := a.analyze(trace, gateSamples)
	if err != nil {
		return StepMetrics{}, trace, err
	}

	return m, trace, nil
}

// record runs one engine with the configured function on channel 0 and a
// gate on its excite input, and captures the emitted CV sample by sample.
// With nothing patched into the signal input the channel emits its control
// voltage directly.
func (a *Analyzer) record(cfg Config, gateSamples, tailSamples int) ([]float64, error) {
	engine, err := streams.NewEngine(a.SampleRate)
	if err != nil {
		return nil, err
	}

	var settings streams.UiSettings

	settings.Function[0] = cfg.Function
	settings.Alternate[0] = cfg.Alternate
	engine.ApplySettings(settings)

	var frame streams.Frame

	frame.Ch[0].ShapeKnob = cfg.Knobs.Shape
	frame.Ch[0].ModKnob = cfg.Knobs.Mod
	frame.Ch[0].ResponseKnob = cfg.Knobs.Response

	trace := make([]float64, gateSamples+tailSamples)

	for i := range trace {
		frame.Ch[0].ExciteIn = 0
		if i < gateSamples {
			frame.Ch[0].ExciteIn = streams.CVFullScaleVolts
		}

		engine.Process(&frame)

		trace[i] = frame.Ch[0].SignalOut / streams.CVFullScaleVolts
	}

	return trace, nil
}

// analyze derives step metrics from a recorded trace.
func (a *Analyzer) analyze(trace []float64, gateSamples int) (StepMetrics, error) {
	peak := 0.0

	for _, v := range trace {
		if v > peak {
			peak = v
		}
	}

	if peak <= 0 {
		return StepMetrics{}, ErrNoResponse
	}

	m := StepMetrics{
		PeakCV:   peak,
		SteadyCV: trace[gateSamples-1],
	}

	// Rise time: first crossings of 10% and 90% of peak during gate-on.
	t10, t90 := -1, -1

	for i := 0; i < gateSamples; i++ {
		if t10 < 0 && trace[i] >= 0.1*peak {
			t10 = i
		}

		if trace[i] >= 0.9*peak {
			t90 = i
			break
		}
	}

	if t10 >= 0 && t90 >= t10 {
		m.AttackTime = float64(t90-t10) / a.SampleRate
	}

	// Fall time: decay from the gate-off level through 90% and 10% of it.
	ref := m.SteadyCV
	if ref <= 0 {
		return m, nil
	}

	r90, r10 := -1, -1

	for i := gateSamples; i < len(trace); i++ {
		if r90 < 0 && trace[i] <= 0.9*ref {
			r90 = i
		}

		if trace[i] <= 0.1*ref {
			r10 = i
			break
		}
	}

	if r90 >= 0 && r10 >= r90 {
		m.ReleaseTime = float64(r10-r90) / a.SampleRate
	}

	return m, nil
}

// Spectrum returns the single-sided magnitude spectrum of a recorded trace,
// Hann-windowed and zero-padded to the next power of two. The result has
// fftSize/2+1 bins; pair it with BinFrequencies for the frequency axis.
func (a *Analyzer) Spectrum(trace []float64) ([]float64, error) {
	if len(trace) == 0 {
		return nil, ErrEmptyTrace
	}

	fftSize := nextPowerOfTwo(len(trace))

	coeffs := window.Generate(window.TypeHann, len(trace))
	in := make([]complex128, fftSize)

	for i, v := range trace {
		in[i] = complex(v*coeffs[i], 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, err
	}

	out := make([]complex128, fftSize)

	if err := plan.Forward(out, in); err != nil {
		return nil, err
	}

	return spectrum.Magnitude(out[:fftSize/2+1]), nil
}

// BinFrequencies returns the center frequency in Hz of each single-sided
// spectrum bin, as produced by Spectrum.
func (a *Analyzer) BinFrequencies(numBins int) []float64 {
	if numBins <= 0 {
		return nil
	}

	fftSize := 2 * (numBins - 1)
	if fftSize <= 0 {
		fftSize = 1
	}

	freqs := make([]float64, numBins)
	for i := range freqs {
		freqs[i] = float64(i) * a.SampleRate / float64(fftSize)
	}

	return freqs
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}

	return size
}
