package streams

import (
	"fmt"
	"math/rand"
)

// Engine is one polyphonic voice: two per-channel processors plus a copy of
// the shared UiSettings. All engines of a module receive identical settings
// through ApplySettings; per-voice state diverges only at audio rate.
type Engine struct {
	ch       [NumChannels]Channel
	settings UiSettings

	// Metering-button latch for rising-edge detection.
	meterPressed bool
}

// NewEngine creates a voice engine at the given sample rate.
func NewEngine(sampleRate float64) (*Engine, error) {
	err := validateSampleRate(sampleRate)
	if err != nil {
		return nil, err
	}

	e := &Engine{}
	e.Reset()
	e.SetSampleRate(sampleRate)

	return e, nil
}

// Reset restores default UiSettings and clears both channels' processing
// and LED state.
func (e *Engine) Reset() {
	e.settings = UiSettings{}
	e.meterPressed = false

	for i := range e.ch {
		e.ch[i].Reset()
		e.ch[i].ApplyFunction(e.settings.Function[i], e.settings.Alternate[i])
	}
}

// SetSampleRate updates both channels' time constants. Accumulated
// envelope/filter state is preserved, so a rate change does not click.
// The rate must have been validated by the caller (NewEngine, Array).
func (e *Engine) SetSampleRate(sampleRate float64) {
	for i := range e.ch {
		e.ch[i].SetSampleRate(sampleRate)
	}
}

// Process runs both channels for one sample and sets Frame.LightsUpdated
// iff either channel changed its LED state. Button edges seen here update
// this engine's settings copy; since every engine of a module receives the
// same button values, their settings stay byte-identical without any
// cross-engine coordination.
func (e *Engine) Process(f *Frame) {
	if f.MeteringButton >= buttonThreshold {
		if !e.meterPressed {
			e.meterPressed = true
			e.settings.MonitorMode = MonitorMode((int(e.settings.MonitorMode) + 1) % numMonitorModes)
		}
	} else {
		e.meterPressed = false
	}

	for i := range e.ch {
		if !e.ch[i].handleButton(f.Ch[i].FunctionButton) {
			continue
		}

		if e.settings.Linked {
			other := (i + 1) % NumChannels
			e.ch[other].ApplyFunction(e.ch[i].function, e.ch[i].alternate)
		}

		for c := range e.ch {
			e.settings.Function[c] = e.ch[c].function
			e.settings.Alternate[c] = e.ch[c].alternate
		}
	}

	updated := false

	for i := range e.ch {
		if e.ch[i].Process(&f.Ch[i], e.settings.MonitorMode) {
			updated = true
		}
	}

	f.LightsUpdated = updated

	if updated {
		// Both channels refresh on the same cadence; publish both so the
		// frame never carries another voice's stale segment data.
		for i := range e.ch {
			f.Ch[i].LEDGreen = e.ch[i].meter.green
			f.Ch[i].LEDRed = e.ch[i].meter.red
		}
	}
}

// ApplySettings overwrites this engine's UiSettings and re-derives each
// channel's active function and variant. Settings-changing operations call
// this identically on every engine of a module.
func (e *Engine) ApplySettings(settings UiSettings) {
	e.settings = settings

	for i := range e.ch {
		e.ch[i].ApplyFunction(settings.Function[i], settings.Alternate[i])
	}
}

// SyncUI copies the other engine's UiSettings, active function/variant and
// button latches into this engine without touching its audio-rate filter
// state. It is used when a previously inactive voice becomes active, so it
// inherits the currently selected behavior instead of defaulting. The
// latches are part of the copied UI state: a voice activated while a button
// is held must not see a phantom rising edge on its first sample.
func (e *Engine) SyncUI(other *Engine) {
	e.settings = other.settings
	e.meterPressed = other.meterPressed

	for i := range e.ch {
		e.ch[i].ApplyFunction(other.ch[i].function, other.ch[i].alternate)
		e.ch[i].pressed = other.ch[i].pressed
	}
}

// Randomize reseeds stochastic interior state of the active functions.
// Function selection is unchanged and output remains bounded.
func (e *Engine) Randomize(rng *rand.Rand) {
	for i := range e.ch {
		e.ch[i].randomize(rng)
	}
}

// UISettings returns this engine's settings copy.
func (e *Engine) UISettings() UiSettings {
	return e.settings
}

// Channel returns the per-channel processor at the given index.
func (e *Engine) Channel(i int) *Channel {
	return &e.ch[i]
}

func validateSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !isFinite(sampleRate) {
		return fmt.Errorf("sample rate must be positive and finite: %f", sampleRate)
	}

	return nil
}
