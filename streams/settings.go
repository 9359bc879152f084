package streams

// Function identifies one of the six selectable processing functions.
type Function int

const (
	// FunctionEnvelope is a triggered AD envelope (alternate: AR envelope).
	FunctionEnvelope Function = iota
	// FunctionVactrol emulates a gate-driven photocoupler lag
	// (alternate: plucked vactrol).
	FunctionVactrol
	// FunctionFollower is an attack/release level follower
	// (alternate: cutoff controller driving the channel filter).
	FunctionFollower
	// FunctionCompressor is a soft-knee compressor
	// (alternate: slow compressor).
	FunctionCompressor
	// FunctionFilterController maps the excite CV onto the channel filter
	// cutoff (alternate: direct, unslewed control).
	FunctionFilterController
	// FunctionLorenzGenerator is a chaotic Lorenz-attractor CV source
	// (alternate: z-axis output).
	FunctionLorenzGenerator

	numFunctions int = iota
)

// MonitorMode selects which signal the meter LEDs represent.
type MonitorMode int

const (
	// MonitorExciteIn meters the excitation input.
	MonitorExciteIn MonitorMode = iota
	// MonitorVCACV meters the VCA control voltage.
	MonitorVCACV
	// MonitorAudioIn meters the audio input.
	MonitorAudioIn
	// MonitorOutput meters the audio output.
	MonitorOutput

	numMonitorModes int = iota
)

const (
	// NumChannels is the number of signal channels per engine.
	NumChannels = 2
	// NumSegments is the number of meter LED segments per channel.
	NumSegments = 4
)

// UiSettings is the shared configuration of one module instance. It is
// identical across all polyphonic voices; every settings-changing operation
// broadcasts a complete UiSettings value to all engines.
//
// The zero value is the default configuration: both channels on the normal
// envelope function, excite metering, channels unlinked.
type UiSettings struct {
	Function    [NumChannels]Function
	Alternate   [NumChannels]bool
	MonitorMode MonitorMode
	Linked      bool
}

// ChannelMode names one selectable (function, variant) combination.
type ChannelMode struct {
	Function  Function
	Alternate bool
	Label     string
}

// ChannelModes enumerates the selectable channel modes in menu order. The
// table is for UI enumeration and equality checks only; it is never
// consulted at audio rate.
var ChannelModes = [...]ChannelMode{
	{FunctionEnvelope, false, "Envelope"},
	{FunctionVactrol, false, "Vactrol"},
	{FunctionFollower, false, "Follower"},
	{FunctionCompressor, false, "Compressor"},
	{FunctionEnvelope, true, "AR envelope"},
	{FunctionVactrol, true, "Plucked vactrol"},
	{FunctionFollower, true, "Cutoff controller"},
	{FunctionCompressor, true, "Slow compressor"},
	{FunctionFilterController, true, "Direct VCF controller"},
	{FunctionLorenzGenerator, false, "Lorenz generator"},
}

// NumChannelModes is the number of selectable channel modes.
const NumChannelModes = len(ChannelModes)

// functionNames indexes short display names by Function.
var functionNames = [numFunctions]string{
	"Envelope",
	"Vactrol",
	"Follower",
	"Compressor",
	"VCF controller",
	"Lorenz generator",
}

// FunctionLabel returns the display label for a (function, variant) pair.
// Pairs present in ChannelModes use their menu label; the remaining pairs,
// reachable only by cycling the panel button, get a derived one.
func FunctionLabel(function Function, alternate bool) string {
	for _, m := range ChannelModes {
		if m.Function == function && m.Alternate == alternate {
			return m.Label
		}
	}

	if function < 0 || int(function) >= numFunctions {
		return "Unknown"
	}

	name := functionNames[function]
	if alternate {
		name += " (alt)"
	}

	return name
}

// MonitorModeInfo names one selectable monitor mode.
type MonitorModeInfo struct {
	Mode  MonitorMode
	Label string
}

// MonitorModes enumerates the selectable monitor modes in menu order.
var MonitorModes = [...]MonitorModeInfo{
	{MonitorExciteIn, "Excite"},
	{MonitorVCACV, "Level"},
	{MonitorAudioIn, "In"},
	{MonitorOutput, "Out"},
}

// NumMonitorModes is the number of selectable monitor modes.
const NumMonitorModes = len(MonitorModes)
