package streams

import "math/rand"

const (
	// NumEngines is the polyphony limit: the number of voice engines one
	// module instance owns.
	NumEngines = 16

	// NumLights is the number of light-brightness outputs:
	// 4 segments x 2 colors x 2 channels.
	NumLights = NumChannels * NumSegments * 2
)

// arrayRandomSeed keeps Randomize deterministic across runs; randomization
// only needs to be uncorrelated, not unpredictable.
const arrayRandomSeed = 0x5eed

// LightIndex addresses one light-brightness output. Lights are laid out
// channel-major, segment-minor, with green before red.
func LightIndex(channel, segment int, red bool) int {
	i := channel*NumSegments*2 + segment*2
	if red {
		i++
	}

	return i
}

// VoiceInput carries one voice's per-sample input triple for one channel.
type VoiceInput struct {
	Excite float64
	Signal float64
	Level  float64
}

// Voice is one polyphonic voice's per-sample I/O.
type Voice struct {
	In  [NumChannels]VoiceInput
	Out [NumChannels]float64
}

// Array owns the fixed set of 16 voice engines and their brightness
// buffer. Engines are never freed individually, only reset in place. When
// the active voice count grows, newly activated engines synchronize their
// UI state from engine 0 before producing any audio.
type Array struct {
	engines    [NumEngines]Engine
	brightness [NumLights][NumEngines]float64
	lights     [NumLights]float64
	prevVoices int
	rng        *rand.Rand
}

// NewArray creates an engine array at the given sample rate.
func NewArray(sampleRate float64) (*Array, error) {
	err := validateSampleRate(sampleRate)
	if err != nil {
		return nil, err
	}

	a := &Array{rng: rand.New(rand.NewSource(arrayRandomSeed))}
	a.Reset()

	for c := range a.engines {
		a.engines[c].SetSampleRate(sampleRate)
	}

	return a, nil
}

// Reset resets every engine, clears the brightness buffer and returns the
// active voice count to 1.
func (a *Array) Reset() {
	for c := range a.engines {
		a.engines[c].Reset()
	}

	a.brightness = [NumLights][NumEngines]float64{}
	a.lights = [NumLights]float64{}
	a.prevVoices = 1
}

// SetSampleRate updates all engines' time constants.
func (a *Array) SetSampleRate(sampleRate float64) error {
	err := validateSampleRate(sampleRate)
	if err != nil {
		return err
	}

	for c := range a.engines {
		a.engines[c].SetSampleRate(sampleRate)
	}

	return nil
}

// Process advances every active voice by one sample. The frame carries the
// shared control snapshot and is reused across voices; only the per-voice
// sample fields are rewritten. After the call, frame.LightsUpdated reports
// whether any voice changed its meter state, and Lights reflects the
// maximum brightness across active voices.
//
// The active voice count is max(1, len(voices)), capped at NumEngines;
// voices beyond the cap are ignored.
func (a *Array) Process(frame *Frame, voices []Voice) {
	n := len(voices)
	if n > NumEngines {
		n = NumEngines
	}

	active := max(n, 1)

	if active > a.prevVoices {
		for c := a.prevVoices; c < active; c++ {
			a.engines[c].SyncUI(&a.engines[0])
		}
	}

	a.prevVoices = active

	anyUpdated := false

	for c := 0; c < active; c++ {
		if c < n {
			v := &voices[c]
			for i := 0; i < NumChannels; i++ {
				frame.Ch[i].ExciteIn = v.In[i].Excite
				frame.Ch[i].SignalIn = v.In[i].Signal
				frame.Ch[i].LevelCV = v.In[i].Level
			}
		} else {
			for i := 0; i < NumChannels; i++ {
				frame.Ch[i].ExciteIn = 0
				frame.Ch[i].SignalIn = 0
				frame.Ch[i].LevelCV = 0
			}
		}

		a.engines[c].Process(frame)

		if c < n {
			v := &voices[c]
			for i := 0; i < NumChannels; i++ {
				v.Out[i] = frame.Ch[i].SignalOut
			}
		}

		if frame.LightsUpdated {
			for i := 0; i < NumChannels; i++ {
				for seg := 0; seg < NumSegments; seg++ {
					a.brightness[LightIndex(i, seg, false)][c] = frame.Ch[i].LEDGreen[seg]
					a.brightness[LightIndex(i, seg, true)][c] = frame.Ch[i].LEDRed[seg]
				}
			}

			anyUpdated = true
		}
	}

	frame.LightsUpdated = anyUpdated

	if !anyUpdated {
		return
	}

	// Drive lights according to maximum brightness across active voices.
	for i := 0; i < NumLights; i++ {
		brightest := 0.0

		for c := 0; c < active; c++ {
			if a.brightness[i][c] > brightest {
				brightest = a.brightness[i][c]
			}
		}

		a.lights[i] = brightest
	}
}

// Lights returns the aggregated light brightness values in [0,1].
func (a *Array) Lights() [NumLights]float64 {
	return a.lights
}

// Engine returns the voice engine at the given index.
func (a *Array) Engine(c int) *Engine {
	return &a.engines[c]
}

// ActiveVoices returns the voice count used by the last Process call.
func (a *Array) ActiveVoices() int {
	return a.prevVoices
}

// applyAll is the single path by which cross-engine settings consistency is
// maintained: a complete UiSettings value applied identically to all 16
// engines, with no partial-application intermediate state.
func (a *Array) applyAll(settings UiSettings) {
	for c := range a.engines {
		a.engines[c].ApplySettings(settings)
	}
}

// ApplySettings broadcasts the settings to every engine; used after
// deserializing persisted settings.
func (a *Array) ApplySettings(settings UiSettings) {
	a.applyAll(settings)
}

// ToggleLink flips the channel-link flag on all engines.
func (a *Array) ToggleLink() {
	settings := a.engines[0].UISettings()
	settings.Linked = !settings.Linked
	a.applyAll(settings)
}

// SetChannelMode selects a (function, variant) combination from the
// ChannelModes table for one channel. The mode index must be a valid table
// index; callers enumerate the table.
func (a *Array) SetChannelMode(channel, modeID int) {
	mode := ChannelModes[modeID]

	settings := a.engines[0].UISettings()
	settings.Function[channel] = mode.Function
	settings.Alternate[channel] = mode.Alternate
	a.applyAll(settings)
}

// SetMonitorMode selects a monitor mode from the MonitorModes table. The
// mode index must be a valid table index.
func (a *Array) SetMonitorMode(modeID int) {
	settings := a.engines[0].UISettings()
	settings.MonitorMode = MonitorModes[modeID].Mode
	a.applyAll(settings)
}

// Randomize reseeds stochastic interior state on every engine.
func (a *Array) Randomize() {
	for c := range a.engines {
		a.engines[c].Randomize(a.rng)
	}
}

// Settings returns the module's shared settings, read from engine 0.
func (a *Array) Settings() UiSettings {
	return a.engines[0].UISettings()
}

// Function returns the active function of one channel, read from engine 0.
func (a *Array) Function(channel int) Function {
	return a.engines[0].UISettings().Function[channel]
}

// Alternate reports whether one channel runs its alternate variant, read
// from engine 0.
func (a *Array) Alternate(channel int) bool {
	return a.engines[0].UISettings().Alternate[channel]
}

// Linked reports whether the channels are linked.
func (a *Array) Linked() bool {
	return a.engines[0].UISettings().Linked
}

// MonitorMode returns the active monitor mode.
func (a *Array) MonitorMode() MonitorMode {
	return a.engines[0].UISettings().MonitorMode
}
