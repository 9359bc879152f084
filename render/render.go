package render

import (
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-vecmath"
	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"github.com/cwbudde/algo-streams/streams"
)

// ExciteSource selects how the excite input is derived from the source
// audio, standing in for the trigger cable a modular patch would provide.
type ExciteSource int

const (
	// ExciteNone leaves the excite input unpatched.
	ExciteNone ExciteSource = iota

	// ExciteGate opens a full-scale gate while the source level is above
	// the gate threshold, with hysteresis at half the threshold.
	ExciteGate

	// ExciteFollow feeds the rectified source as the excite CV.
	ExciteFollow
)

const defaultGateThresholdVolts = 0.5

// Knobs holds one channel's panel positions, each in [0,1].
type Knobs struct {
	Shape    float64
	Mod      float64
	LevelMod float64
	Response float64
}

// Config describes one offline render.
type Config struct {
	Settings streams.UiSettings
	Knobs    [streams.NumChannels]Knobs
	Excite   ExciteSource

	// GateThresholdVolts is the input level at which ExciteGate opens.
	// Zero selects the default of 0.5 V.
	GateThresholdVolts float64

	// OutputGain scales the rendered audio before clipping. Zero selects
	// unity.
	OutputGain float64

	// CVOut renders each channel's control voltage instead of processed
	// audio, as the hardware does with nothing patched into the signal
	// input. Useful for generator functions.
	CVOut bool
}

// Stats accumulates statistics over one render.
type Stats struct {
	// Samples is the number of frames rendered.
	Samples int

	// Peak is the per-channel peak of the normalized output, measured
	// after the output gain and before clipping.
	Peak [streams.NumChannels]float64

	// Clipped counts samples that exceeded full scale and were clamped.
	Clipped int
}

// Processor streams audio through an engine array. It implements
// beep.Streamer, so it can be encoded with wav.Encode, played through a
// speaker, or chained with other streamers.
type Processor struct {
	src   beep.Streamer
	array *streams.Array
	frame streams.Frame
	voice []streams.Voice

	excite   ExciteSource
	gateHigh float64
	gateLow  float64
	gain     float64
	norm     float64
	gateOpen [streams.NumChannels]bool
	scratch  [streams.NumChannels][]float64
	stats    Stats
}

// NewProcessor wraps a source streamer in a processor running one engine
// array at the given sample rate.
func NewProcessor(src beep.Streamer, sampleRate float64, cfg Config) (*Processor, error) {
	if src == nil {
		return nil, fmt.Errorf("source streamer must not be nil")
	}

	if math.IsNaN(cfg.OutputGain) || math.IsInf(cfg.OutputGain, 0) || cfg.OutputGain < 0 {
		return nil, fmt.Errorf("output gain must be finite and non-negative: %f", cfg.OutputGain)
	}

	array, err := streams.NewArray(sampleRate)
	if err != nil {
		return nil, err
	}

	array.ApplySettings(cfg.Settings)

	p := &Processor{
		src:    src,
		array:  array,
		voice:  make([]streams.Voice, 1),
		excite: cfg.Excite,
		gain:   cfg.OutputGain,
		norm:   streams.AudioFullScaleVolts,
	}

	if p.gain == 0 {
		p.gain = 1
	}

	threshold := cfg.GateThresholdVolts
	if threshold == 0 {
		threshold = defaultGateThresholdVolts
	}

	p.gateHigh = threshold
	p.gateLow = threshold * 0.5

	if cfg.CVOut {
		p.norm = streams.CVFullScaleVolts
	}

	for i := 0; i < streams.NumChannels; i++ {
		p.frame.Ch[i].ShapeKnob = cfg.Knobs[i].Shape
		p.frame.Ch[i].ModKnob = cfg.Knobs[i].Mod
		p.frame.Ch[i].LevelModKnob = cfg.Knobs[i].LevelMod
		p.frame.Ch[i].ResponseKnob = cfg.Knobs[i].Response
		p.frame.Ch[i].SignalInConnected = !cfg.CVOut
	}

	return p, nil
}

// Stream pulls samples from the source, runs them through the engine array
// and replaces them with the rendered output.
func (p *Processor) Stream(samples [][2]float64) (int, bool) {
	n, ok := p.src.Stream(samples)

	for i := range p.scratch {
		if cap(p.scratch[i]) < n {
			p.scratch[i] = make([]float64, n)
		}

		p.scratch[i] = p.scratch[i][:n]
	}

	for s := 0; s < n; s++ {
		for c := 0; c < streams.NumChannels; c++ {
			volts := samples[s][c] * streams.AudioFullScaleVolts
			p.voice[0].In[c].Signal = volts
			p.voice[0].In[c].Excite = p.exciteFor(c, volts)
		}

		p.array.Process(&p.frame, p.voice)

		for c := 0; c < streams.NumChannels; c++ {
			p.scratch[c][s] = p.voice[0].Out[c] / p.norm
		}
	}

	for c := 0; c < streams.NumChannels; c++ {
		vecmath.ScaleBlock(p.scratch[c], p.scratch[c], p.gain)
	}

	for s := 0; s < n; s++ {
		for c := 0; c < streams.NumChannels; c++ {
			v := p.scratch[c][s]

			if a := math.Abs(v); a > p.stats.Peak[c] {
				p.stats.Peak[c] = a
			}

			if v > 1 {
				v = 1
				p.stats.Clipped++
			} else if v < -1 {
				v = -1
				p.stats.Clipped++
			}

			samples[s][c] = v
		}
	}

	p.stats.Samples += n

	return n, ok
}

// Err returns the source streamer's error.
func (p *Processor) Err() error {
	return p.src.Err()
}

// Stats returns the statistics accumulated so far.
func (p *Processor) Stats() Stats {
	return p.stats
}

// Array exposes the underlying engine array for live control.
func (p *Processor) Array() *streams.Array {
	return p.array
}

// exciteFor derives one channel's excite voltage from its input voltage.
func (p *Processor) exciteFor(channel int, volts float64) float64 {
	switch p.excite {
	case ExciteGate:
		level := math.Abs(volts)

		if p.gateOpen[channel] {
			if level < p.gateLow {
				p.gateOpen[channel] = false
			}
		} else if level > p.gateHigh {
			p.gateOpen[channel] = true
		}

		if p.gateOpen[channel] {
			return streams.CVFullScaleVolts
		}

		return 0
	case ExciteFollow:
		return math.Abs(volts) * streams.CVFullScaleVolts / streams.AudioFullScaleVolts
	}

	return 0
}

// Open decodes a WAV file into a streamer. The caller closes the returned
// stream when done.
func Open(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	stream, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	return stream, format, nil
}

// Save encodes a streamer into a WAV file with the given format.
func Save(path string, format beep.Format, s beep.Streamer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := wav.Encode(f, s, format); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	return f.Close()
}

// RenderFile runs a WAV file through an engine array and writes the result.
func RenderFile(inPath, outPath string, cfg Config) (Stats, error) {
	stream, format, err := Open(inPath)
	if err != nil {
		return Stats{}, err
	}
	defer stream.Close()

	p, err := NewProcessor(stream, float64(format.SampleRate), cfg)
	if err != nil {
		return Stats{}, err
	}

	format.NumChannels = streams.NumChannels

	if err := Save(outPath, format, p); err != nil {
		return p.Stats(), err
	}

	return p.Stats(), nil
}

// RenderGenerated renders the engines with no input audio for the given
// duration and writes the result. Pair it with CVOut and a generator
// function to capture free-running control voltages.
func RenderGenerated(outPath string, sampleRate float64, seconds float64, cfg Config) (Stats, error) {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return Stats{}, fmt.Errorf("duration must be positive and finite: %f", seconds)
	}

	num := int(seconds * sampleRate)

	p, err := NewProcessor(beep.Silence(num), sampleRate, cfg)
	if err != nil {
		return Stats{}, err
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(int(sampleRate)),
		NumChannels: streams.NumChannels,
		Precision:   2,
	}

	if err := Save(outPath, format, p); err != nil {
		return p.Stats(), err
	}

	return p.Stats(), nil
}
