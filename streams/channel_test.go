package streams

import (
	"testing"

	"github.com/cwbudde/algo-streams/internal/testutil"
)

const testSampleRate = 48000.0

// allModes enumerates every (function, variant) pair, including the two
// combinations absent from the menu table.
func allModes() []ChannelMode {
	modes := make([]ChannelMode, 0, 2*numFunctions)

	for fn := 0; fn < numFunctions; fn++ {
		for _, alt := range []bool{false, true} {
			modes = append(modes, ChannelMode{Function: Function(fn), Alternate: alt})
		}
	}

	return modes
}

func modeName(m ChannelMode) string {
	names := []string{"envelope", "vactrol", "follower", "compressor", "filterctl", "lorenz"}

	name := names[m.Function]
	if m.Alternate {
		name += "-alt"
	}

	return name
}

// runChannel drives a channel across the given excite/signal sequences.
// The template frame supplies knob values and connection flags.
func runChannel(c *Channel, template ChannelFrame, excite, signal []float64) []float64 {
	out := make([]float64, len(excite))
	cf := template

	for i := range excite {
		cf.ExciteIn = excite[i]
		cf.SignalIn = signal[i]
		c.Process(&cf, MonitorOutput)
		out[i] = cf.SignalOut
	}

	return out
}

// TestChannelBoundedOutput verifies that two seconds of processing stays
// inside the hardware output range for every function and variant, fed
// with a bounded noise signal and a repeating gate.
func TestChannelBoundedOutput(t *testing.T) {
	const length = 2 * int(testSampleRate)

	excite := testutil.Gate(4800, 2400, CVFullScaleVolts, length)
	signal := testutil.DeterministicNoise(42, AudioFullScaleVolts, length)

	for _, mode := range allModes() {
		t.Run(modeName(mode), func(t *testing.T) {
			c := &Channel{}
			c.Reset()
			c.SetSampleRate(testSampleRate)
			c.ApplyFunction(mode.Function, mode.Alternate)

			template := ChannelFrame{
				ShapeKnob:         0.7,
				ModKnob:           0.6,
				LevelModKnob:      0.3,
				ResponseKnob:      0.4,
				SignalInConnected: true,
			}

			out := runChannel(c, template, excite, signal)

			testutil.RequireFinite(t, out)
			testutil.RequireInRange(t, out, -MaxOutputVolts, MaxOutputVolts)
		})
	}
}

// TestChannelQuiescentAfterReset verifies Reset followed by zero inputs
// produces silence on the audio path for every function.
func TestChannelQuiescentAfterReset(t *testing.T) {
	const length = int(testSampleRate) / 2

	zero := make([]float64, length)

	for _, mode := range allModes() {
		t.Run(modeName(mode), func(t *testing.T) {
			c := &Channel{}
			c.SetSampleRate(testSampleRate)
			c.ApplyFunction(mode.Function, mode.Alternate)
			c.Reset()

			template := ChannelFrame{
				ShapeKnob:         0.5,
				ModKnob:           0.5,
				SignalInConnected: true,
			}

			out := runChannel(c, template, zero, zero)

			testutil.RequireSliceNearlyEqual(t, out, zero, 1e-12)
		})
	}
}

// TestChannelResetIdempotent verifies a double Reset behaves like one.
func TestChannelResetIdempotent(t *testing.T) {
	input := testutil.DeterministicSine(220, testSampleRate, AudioFullScaleVolts, 4096)
	excite := testutil.Gate(1024, 512, CVFullScaleVolts, 4096)
	template := ChannelFrame{ShapeKnob: 0.4, ModKnob: 0.5, SignalInConnected: true}

	once := &Channel{}
	once.SetSampleRate(testSampleRate)
	once.ApplyFunction(FunctionVactrol, false)
	runChannel(once, template, excite, input)
	once.Reset()

	twice := &Channel{}
	twice.SetSampleRate(testSampleRate)
	twice.ApplyFunction(FunctionVactrol, false)
	runChannel(twice, template, excite, input)
	twice.Reset()
	twice.Reset()

	a := runChannel(once, template, excite, input)
	b := runChannel(twice, template, excite, input)

	testutil.RequireSliceNearlyEqual(t, a, b, 0)
}

// TestChannelSampleRateRestore verifies that changing the sample rate away
// and back, with no intervening Process calls, leaves the output identical
// to never having changed it.
func TestChannelSampleRateRestore(t *testing.T) {
	input := testutil.DeterministicNoise(7, AudioFullScaleVolts, 8192)
	excite := testutil.Gate(2048, 1024, CVFullScaleVolts, 8192)
	template := ChannelFrame{ShapeKnob: 0.6, ModKnob: 0.4, ResponseKnob: 0.2, SignalInConnected: true}

	for _, mode := range allModes() {
		t.Run(modeName(mode), func(t *testing.T) {
			steady := &Channel{}
			steady.Reset()
			steady.SetSampleRate(testSampleRate)
			steady.ApplyFunction(mode.Function, mode.Alternate)

			toggled := &Channel{}
			toggled.Reset()
			toggled.SetSampleRate(testSampleRate)
			toggled.ApplyFunction(mode.Function, mode.Alternate)

			// Warm both up identically, then toggle one away and back.
			a := runChannel(steady, template, excite[:4096], input[:4096])
			b := runChannel(toggled, template, excite[:4096], input[:4096])
			testutil.RequireSliceNearlyEqual(t, a, b, 0)

			toggled.SetSampleRate(96000)
			toggled.SetSampleRate(testSampleRate)

			a = runChannel(steady, template, excite[4096:], input[4096:])
			b = runChannel(toggled, template, excite[4096:], input[4096:])
			testutil.RequireSliceNearlyEqual(t, a, b, 0)
		})
	}
}

// TestChannelFunctionSwitchKeepsRunning verifies that switching functions
// mid-stream needs no pipeline reset and stays bounded.
func TestChannelFunctionSwitchKeepsRunning(t *testing.T) {
	c := &Channel{}
	c.Reset()
	c.SetSampleRate(testSampleRate)

	input := testutil.DeterministicSine(440, testSampleRate, AudioFullScaleVolts, 1024)
	excite := testutil.DC(CVFullScaleVolts, 1024)
	template := ChannelFrame{ShapeKnob: 0.5, ModKnob: 0.5, SignalInConnected: true}

	for _, mode := range allModes() {
		c.ApplyFunction(mode.Function, mode.Alternate)
		out := runChannel(c, template, excite, input)
		testutil.RequireFinite(t, out)
		testutil.RequireInRange(t, out, -MaxOutputVolts, MaxOutputVolts)
	}
}

// TestChannelButtonCycle verifies the press cycle normal -> alternate ->
// next function, wrapping after the last function.
func TestChannelButtonCycle(t *testing.T) {
	c := &Channel{}
	c.Reset()
	c.SetSampleRate(testSampleRate)
	c.ApplyFunction(FunctionEnvelope, false)

	press := func() bool {
		edge := c.handleButton(1)
		c.handleButton(0)

		return edge
	}

	want := []ChannelMode{
		{Function: FunctionEnvelope, Alternate: true},
		{Function: FunctionVactrol, Alternate: false},
		{Function: FunctionVactrol, Alternate: true},
		{Function: FunctionFollower, Alternate: false},
		{Function: FunctionFollower, Alternate: true},
		{Function: FunctionCompressor, Alternate: false},
		{Function: FunctionCompressor, Alternate: true},
		{Function: FunctionFilterController, Alternate: false},
		{Function: FunctionFilterController, Alternate: true},
		{Function: FunctionLorenzGenerator, Alternate: false},
		{Function: FunctionLorenzGenerator, Alternate: true},
		{Function: FunctionEnvelope, Alternate: false},
	}

	for i, w := range want {
		if !press() {
			t.Fatalf("press %d: no edge detected", i)
		}

		if c.Function() != w.Function || c.Alternate() != w.Alternate {
			t.Fatalf("press %d: got %v/%v, want %v/%v",
				i, c.Function(), c.Alternate(), w.Function, w.Alternate)
		}
	}
}

// TestChannelButtonHeld verifies a held button produces exactly one edge.
func TestChannelButtonHeld(t *testing.T) {
	c := &Channel{}
	c.Reset()
	c.SetSampleRate(testSampleRate)

	if !c.handleButton(1) {
		t.Fatal("first sample of press: want edge")
	}

	for i := 0; i < 100; i++ {
		if c.handleButton(1) {
			t.Fatalf("held sample %d: unexpected edge", i)
		}
	}

	c.handleButton(0)

	if !c.handleButton(1) {
		t.Fatal("second press: want edge")
	}
}
