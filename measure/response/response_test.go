package response

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-streams/streams"
)

const testSampleRate = 48000.0

func TestStepResponseValidation(t *testing.T) {
	cfg := Config{Function: streams.FunctionFollower}

	if _, _, err := NewAnalyzer(0).StepResponse(cfg, 1, 1); err != ErrInvalidSampleRate {
		t.Errorf("zero sample rate: err = %v, want ErrInvalidSampleRate", err)
	}

	a := NewAnalyzer(testSampleRate)

	if _, _, err := a.StepResponse(cfg, 0, 1); err != ErrInvalidDuration {
		t.Errorf("zero gate duration: err = %v, want ErrInvalidDuration", err)
	}

	if _, _, err := a.StepResponse(cfg, 1, -1); err != ErrInvalidDuration {
		t.Errorf("negative tail: err = %v, want ErrInvalidDuration", err)
	}
}

// TestStepResponseFollower verifies the follower's gate step: it rises to
// the gate level, holds it, and releases after the gate falls.
func TestStepResponseFollower(t *testing.T) {
	a := NewAnalyzer(testSampleRate)

	cfg := Config{
		Function: streams.FunctionFollower,
		// Response 1/7 is unity sensitivity, so a full-scale gate settles
		// at a CV of 1.
		Knobs: Knobs{Shape: 0.5, Mod: 0.5, Response: 1.0 / 7.0},
	}

	m, trace, err := a.StepResponse(cfg, 1, 2)
	if err != nil {
		t.Fatalf("StepResponse() error = %v", err)
	}

	if len(trace) != 3*int(testSampleRate) {
		t.Fatalf("trace length = %d, want %d", len(trace), 3*int(testSampleRate))
	}

	if math.Abs(m.PeakCV-1) > 0.02 {
		t.Errorf("PeakCV = %v, want ~1", m.PeakCV)
	}

	if math.Abs(m.SteadyCV-1) > 0.02 {
		t.Errorf("SteadyCV = %v, want ~1", m.SteadyCV)
	}

	if m.AttackTime <= 0 || m.AttackTime > 0.2 {
		t.Errorf("AttackTime = %v, want a positive rise below 200ms", m.AttackTime)
	}

	if m.ReleaseTime <= 0 || m.ReleaseTime > 2 {
		t.Errorf("ReleaseTime = %v, want a positive fall inside the tail", m.ReleaseTime)
	}

	if tail := trace[len(trace)-1]; tail > 0.05 {
		t.Errorf("trace tail = %v, want released toward zero", tail)
	}
}

// TestStepResponseAREnvelope verifies the AR envelope holds the peak for
// the whole gate.
func TestStepResponseAREnvelope(t *testing.T) {
	a := NewAnalyzer(testSampleRate)

	cfg := Config{
		Function:  streams.FunctionEnvelope,
		Alternate: true,
		Knobs:     Knobs{Shape: 0.5, Mod: 0.3},
	}

	m, _, err := a.StepResponse(cfg, 1, 2)
	if err != nil {
		t.Fatalf("StepResponse() error = %v", err)
	}

	if math.Abs(m.SteadyCV-1) > 0.01 {
		t.Errorf("SteadyCV = %v, want the held peak", m.SteadyCV)
	}
}

// TestStepResponseFilterController verifies the filter-steering personalities
// yield ErrNoResponse: with nothing patched into the signal input their
// filtered path carries silence instead of a CV.
func TestStepResponseFilterController(t *testing.T) {
	a := NewAnalyzer(testSampleRate)

	for _, alternate := range []bool{false, true} {
		cfg := Config{
			Function:  streams.FunctionFilterController,
			Alternate: alternate,
			Knobs:     Knobs{Shape: 0.5, Mod: 0.5, Response: 0.5},
		}

		if _, _, err := a.StepResponse(cfg, 1, 1); err != ErrNoResponse {
			t.Errorf("alternate=%v: err = %v, want ErrNoResponse", alternate, err)
		}
	}
}

// TestAttackTimeFollowsShape verifies the follower's measured attack time
// grows with the shape knob.
func TestAttackTimeFollowsShape(t *testing.T) {
	a := NewAnalyzer(testSampleRate)

	measure := func(shape float64) float64 {
		t.Helper()

		cfg := Config{
			Function: streams.FunctionFollower,
			Knobs:    Knobs{Shape: shape, Mod: 0.5, Response: 1.0 / 7.0},
		}

		m, _, err := a.StepResponse(cfg, 1, 1)
		if err != nil {
			t.Fatalf("StepResponse(shape=%v) error = %v", shape, err)
		}

		return m.AttackTime
	}

	fast := measure(0.1)
	slow := measure(0.9)

	if slow <= fast {
		t.Errorf("attack time at shape 0.9 = %v, want above %v at shape 0.1", slow, fast)
	}
}

// TestReleaseTimeFollowsMod verifies the follower's measured release time
// grows with the mod knob.
func TestReleaseTimeFollowsMod(t *testing.T) {
	a := NewAnalyzer(testSampleRate)

	measure := func(mod float64) float64 {
		t.Helper()

		cfg := Config{
			Function: streams.FunctionFollower,
			Knobs:    Knobs{Shape: 0.2, Mod: mod, Response: 1.0 / 7.0},
		}

		m, _, err := a.StepResponse(cfg, 1, 3)
		if err != nil {
			t.Fatalf("StepResponse(mod=%v) error = %v", mod, err)
		}

		return m.ReleaseTime
	}

	fast := measure(0.1)
	slow := measure(0.7)

	if slow <= fast {
		t.Errorf("release time at mod 0.7 = %v, want above %v at mod 0.1", slow, fast)
	}
}

func TestSpectrumValidation(t *testing.T) {
	a := NewAnalyzer(testSampleRate)

	if _, err := a.Spectrum(nil); err != ErrEmptyTrace {
		t.Errorf("empty trace: err = %v, want ErrEmptyTrace", err)
	}
}

// TestSpectrumLocatesSine verifies the spectrum peaks at the bin of a pure
// tone aligned to the FFT grid.
func TestSpectrumLocatesSine(t *testing.T) {
	a := NewAnalyzer(testSampleRate)

	const (
		length = 4096
		cycles = 64
	)

	trace := make([]float64, length)
	for i := range trace {
		trace[i] = math.Sin(2 * math.Pi * cycles * float64(i) / length)
	}

	mag, err := a.Spectrum(trace)
	if err != nil {
		t.Fatalf("Spectrum() error = %v", err)
	}

	if len(mag) != length/2+1 {
		t.Fatalf("spectrum bins = %d, want %d", len(mag), length/2+1)
	}

	maxBin := 0
	for i := range mag {
		if mag[i] > mag[maxBin] {
			maxBin = i
		}
	}

	if maxBin != cycles {
		t.Errorf("peak bin = %d, want %d", maxBin, cycles)
	}
}

// TestBinFrequencies verifies the frequency axis endpoints.
func TestBinFrequencies(t *testing.T) {
	a := NewAnalyzer(testSampleRate)

	freqs := a.BinFrequencies(2049)

	if freqs[0] != 0 {
		t.Errorf("first bin = %v, want DC", freqs[0])
	}

	if got := freqs[len(freqs)-1]; math.Abs(got-testSampleRate/2) > 1e-9 {
		t.Errorf("last bin = %v, want Nyquist %v", got, testSampleRate/2)
	}

	if a.BinFrequencies(0) != nil {
		t.Error("BinFrequencies(0) should be nil")
	}
}
