// Command streamsim runs audio through the dynamics engine offline.
//
// Usage:
//
//	streamsim [flags]
//
// It renders an input WAV (or generates control voltages from silence),
// optionally plays the result, prints render statistics and can show a
// live terminal view of the level meters.
//
// Examples:
//
//	streamsim -in drums.wav -out gated.wav -mode1 vactrol -excite gate
//	streamsim -in mix.wav -out squashed.wav -mode1 compressor -mode2 compressor -link -stats
//	streamsim -out lorenz.wav -mode1 "lorenz generator" -cv -seconds 10
//	streamsim -in drums.wav -meter
//	streamsim -list-modes
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/fatih/color"
	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/cwbudde/algo-streams/render"
	"github.com/cwbudde/algo-streams/streams"
)

func main() {
	inPath := flag.String("in", "", "input WAV file (omit to render generated CV from silence)")
	outPath := flag.String("out", "", "output WAV file")
	mode1 := flag.String("mode1", "envelope", "channel 1 mode (name or index, see -list-modes)")
	mode2 := flag.String("mode2", "envelope", "channel 2 mode (name or index, see -list-modes)")
	link := flag.Bool("link", false, "link the two channels")
	monitor := flag.String("monitor", "out", "meter source: excite, level, in, out")
	exciteFlag := flag.String("excite", "none", "excite derivation: none, gate, follow")
	gain := flag.Float64("gain", 1, "output gain")
	cvOut := flag.Bool("cv", false, "render control voltages instead of processed audio")
	seconds := flag.Float64("seconds", 5, "render duration when no input file is given")
	rate := flag.Int("rate", 48000, "sample rate when no input file is given")
	stats := flag.Bool("stats", false, "print render statistics")
	play := flag.Bool("play", false, "play the rendered audio")
	meter := flag.Bool("meter", false, "show a live terminal meter while rendering")
	listModes := flag.Bool("list-modes", false, "list channel modes and exit")

	shape1 := flag.Float64("shape1", 0.5, "channel 1 shape knob (0..1)")
	mod1 := flag.Float64("mod1", 0.5, "channel 1 mod knob (0..1)")
	level1 := flag.Float64("level1", 0, "channel 1 level mod knob (0..1)")
	resp1 := flag.Float64("resp1", 0.5, "channel 1 response knob (0..1)")
	shape2 := flag.Float64("shape2", 0.5, "channel 2 shape knob (0..1)")
	mod2 := flag.Float64("mod2", 0.5, "channel 2 mod knob (0..1)")
	level2 := flag.Float64("level2", 0, "channel 2 level mod knob (0..1)")
	resp2 := flag.Float64("resp2", 0.5, "channel 2 response knob (0..1)")

	flag.Parse()

	if *listModes {
		printModes()
		return
	}

	cfg := render.Config{
		Excite:     parseExcite(*exciteFlag),
		OutputGain: *gain,
		CVOut:      *cvOut,
		Knobs: [streams.NumChannels]render.Knobs{
			{Shape: *shape1, Mod: *mod1, LevelMod: *level1, Response: *resp1},
			{Shape: *shape2, Mod: *mod2, LevelMod: *level2, Response: *resp2},
		},
	}

	m1 := resolveMode(*mode1)
	m2 := resolveMode(*mode2)
	cfg.Settings.Function = [streams.NumChannels]streams.Function{m1.Function, m2.Function}
	cfg.Settings.Alternate = [streams.NumChannels]bool{m1.Alternate, m2.Alternate}
	cfg.Settings.Linked = *link
	cfg.Settings.MonitorMode = resolveMonitor(*monitor)

	if !*meter && !*play && *outPath == "" {
		fail("nothing to do: specify -out, -play or -meter")
	}

	if *play && *outPath != "" {
		fail("cannot both -play and -out in one run")
	}

	var (
		src    beep.Streamer
		format beep.Format
	)

	if *inPath != "" {
		stream, f, err := render.Open(*inPath)
		if err != nil {
			fail("opening input: %v", err)
		}
		defer stream.Close()

		src, format = stream, f
	} else {
		format = beep.Format{
			SampleRate:  beep.SampleRate(*rate),
			NumChannels: streams.NumChannels,
			Precision:   2,
		}
		src = beep.Silence(int(*seconds * float64(*rate)))
	}

	p, err := render.NewProcessor(src, float64(format.SampleRate), cfg)
	if err != nil {
		fail("%v", err)
	}

	format.NumChannels = streams.NumChannels

	var out beep.Streamer = p

	// Meter mode drains the processor itself; downstream consumers read
	// the captured buffer instead.
	if *meter {
		captured, err := runMeter(p, format)
		if err != nil {
			fail("meter: %v", err)
		}

		out = captured
	}

	if *play {
		if err := playStream(out, format); err != nil {
			fail("playback: %v", err)
		}
	} else if *outPath != "" {
		if err := render.Save(*outPath, format, out); err != nil {
			fail("%v", err)
		}
	}

	if *stats {
		printStats(p.Stats())
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func printModes() {
	for i, mode := range streams.ChannelModes {
		fmt.Printf("%d  %s\n", i, mode.Label)
	}
}

// resolveMode accepts a table index or a case-insensitive label prefix.
func resolveMode(s string) streams.ChannelMode {
	s = strings.ToLower(strings.TrimSpace(s))

	if i, err := strconv.Atoi(s); err == nil {
		if i < 0 || i >= streams.NumChannelModes {
			fail("mode index %d out of range (use -list-modes)", i)
		}

		return streams.ChannelModes[i]
	}

	for _, mode := range streams.ChannelModes {
		if strings.HasPrefix(strings.ToLower(mode.Label), s) {
			return mode
		}
	}

	fail("unknown mode %q (use -list-modes)", s)

	return streams.ChannelMode{}
}

func resolveMonitor(s string) streams.MonitorMode {
	s = strings.ToLower(strings.TrimSpace(s))

	if i, err := strconv.Atoi(s); err == nil && i >= 0 && i < streams.NumMonitorModes {
		return streams.MonitorModes[i].Mode
	}

	for _, m := range streams.MonitorModes {
		if strings.ToLower(m.Label) == s {
			return m.Mode
		}
	}

	fail("unknown monitor mode %q (excite, level, in, out)", s)

	return 0
}

func parseExcite(s string) render.ExciteSource {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return render.ExciteNone
	case "gate":
		return render.ExciteGate
	case "follow":
		return render.ExciteFollow
	}

	fail("unknown excite source %q (none, gate, follow)", s)

	return render.ExciteNone
}

func printStats(s render.Stats) {
	color.Cyan("rendered %d samples", s.Samples)
	color.White("peak: ch1 %.3f  ch2 %.3f", s.Peak[0], s.Peak[1])

	if s.Clipped > 0 {
		color.Red("clipped %d samples", s.Clipped)
	} else {
		color.Green("no clipping")
	}
}

func playStream(s beep.Streamer, format beep.Format) error {
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return err
	}

	done := make(chan struct{})

	speaker.Play(beep.Seq(s, beep.Callback(func() {
		close(done)
	})))

	<-done

	return nil
}

// bufferStreamer replays samples captured during the meter run.
type bufferStreamer struct {
	data [][2]float64
	pos  int
}

func (b *bufferStreamer) Stream(samples [][2]float64) (int, bool) {
	if b.pos >= len(b.data) {
		return 0, false
	}

	n := copy(samples, b.data[b.pos:])
	b.pos += n

	return n, b.pos < len(b.data)
}

func (b *bufferStreamer) Err() error { return nil }

// runMeter renders the whole stream while drawing the LED bars live. Keys 1
// and 2 cycle the channel modes, m cycles the meter source, l toggles the
// link, r randomizes generator state, q quits early.
func runMeter(p *render.Processor, format beep.Format) (*bufferStreamer, error) {
	if err := ui.Init(); err != nil {
		return nil, err
	}
	defer ui.Close()

	bars := [streams.NumChannels]*widgets.Paragraph{}

	for c := range bars {
		bars[c] = widgets.NewParagraph()
		bars[c].Title = fmt.Sprintf("Channel %d", c+1)
		bars[c].SetRect(0, c*4, 44, c*4+3)
	}

	status := widgets.NewParagraph()
	status.Border = false
	status.Text = "[q:](fg:black) quit  [1/2:](fg:black) cycle mode  [m:](fg:black) meter  [l:](fg:black) link  [r:](fg:black) randomize"
	status.SetRect(0, streams.NumChannels*4, 80, streams.NumChannels*4+1)

	captured := &bufferStreamer{}
	block := make([][2]float64, 480)
	events := ui.PollEvents()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	modeIdx := [streams.NumChannels]int{}

	for {
		select {
		case e := <-events:
			switch e.ID {
			case "q", "<C-c>", "<Escape>":
				return captured, nil
			case "1", "2":
				c := int(e.ID[0] - '1')
				modeIdx[c] = (modeIdx[c] + 1) % streams.NumChannelModes
				p.Array().SetChannelMode(c, modeIdx[c])
			case "m":
				next := (int(p.Array().MonitorMode()) + 1) % streams.NumMonitorModes
				p.Array().SetMonitorMode(next)
			case "l":
				p.Array().ToggleLink()
			case "r":
				p.Array().Randomize()
			}
		case <-ticker.C:
			n, ok := p.Stream(block)
			captured.data = append(captured.data, block[:n]...)

			drawBars(bars[:], status, p.Array())
			ui.Render(bars[0], bars[1], status)

			if !ok {
				return captured, nil
			}
		}
	}
}

func drawBars(bars []*widgets.Paragraph, status *widgets.Paragraph, a *streams.Array) {
	lights := a.Lights()

	for c := range bars {
		var b strings.Builder

		for seg := 0; seg < streams.NumSegments; seg++ {
			green := lights[streams.LightIndex(c, seg, false)]
			red := lights[streams.LightIndex(c, seg, true)]

			switch {
			case red > 0.5:
				b.WriteString("[████](fg:red) ")
			case red > 0:
				b.WriteString("[████](fg:yellow) ")
			case green > 0.5:
				b.WriteString("[████](fg:green) ")
			case green > 0:
				b.WriteString("[██](fg:green)   ")
			default:
				b.WriteString("[----](fg:white) ")
			}
		}

		label := streams.FunctionLabel(a.Function(c), a.Alternate(c))
		b.WriteString("  " + label)

		bars[c].Text = b.String()
	}
}
