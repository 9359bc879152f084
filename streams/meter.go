package streams

// Four-segment bicolor meter. The monitored level fills the green segments
// bottom-up over [0,1]; levels above nominal fill the same segments red,
// so hot signals shade toward orange and overloads light the bar red.
//
// Brightness is refreshed every meterRefreshPeriod samples from a peak
// held since the previous refresh, so downstream aggregation only runs
// when segment data can actually have changed.

const meterRefreshPeriod = 32

const segmentWidth = 1.0 / NumSegments

type meterState struct {
	counter int
	peak    float64
	green   [NumSegments]float64
	red     [NumSegments]float64
}

func (m *meterState) reset() {
	*m = meterState{}
}

// process accumulates the monitored level and refreshes segment brightness
// on period boundaries. It reports whether any segment changed.
func (m *meterState) process(level float64) bool {
	if level > m.peak {
		m.peak = level
	}

	m.counter++
	if m.counter < meterRefreshPeriod {
		return false
	}

	m.counter = 0
	changed := false

	for i := 0; i < NumSegments; i++ {
		lo := segmentWidth * float64(i)

		g := clampUnit((m.peak - lo) / segmentWidth)
		r := clampUnit((m.peak - 1 - lo) / segmentWidth)

		if g != m.green[i] || r != m.red[i] {
			changed = true
		}

		m.green[i] = g
		m.red[i] = r
	}

	m.peak = 0

	return changed
}
