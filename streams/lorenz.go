package streams

import "math/rand"

// Lorenz generator: a chaotic CV source advanced by forward Euler. The
// normal personality emits the normalized x coordinate, the alternate the
// z coordinate. State coordinates are clamped to a box around the
// attractor so the output stays bounded for any step size or input.
//
// Knobs: shape sets the integration speed, mod the depth of excite-input
// speed modulation.

const (
	lorenzSigma = 10.0
	lorenzRho   = 28.0
	lorenzBeta  = 8.0 / 3.0

	minLorenzSpeed = 0.5
	maxLorenzSpeed = 500.0
	maxLorenzStep  = 0.02

	lorenzBoundXY = 40.0
	lorenzBoundZ  = 80.0
)

type lorenzState struct {
	x float64
	y float64
	z float64
}

// reset parks the state at the origin, a fixed point of the equations.
// The next process call reseeds it so the attractor starts moving.
func (l *lorenzState) reset() {
	l.x = 0
	l.y = 0
	l.z = 0
}

func (l *lorenzState) seeded() bool {
	return l.x != 0 || l.y != 0 || l.z != 0
}

func (l *lorenzState) seed() {
	l.x = 1
	l.y = 1
	l.z = 24
}

// randomize moves the state to a random point inside the attractor box.
func (l *lorenzState) randomize(rng *rand.Rand) {
	l.x = rng.Float64()*40 - 20
	l.y = rng.Float64()*40 - 20
	l.z = 5 + rng.Float64()*40
}

func (l *lorenzState) process(cf *ChannelFrame, alternate bool, sampleRate float64) float64 {
	if !l.seeded() {
		l.seed()
	}

	speed := expMap(clampUnit(cf.ShapeKnob), minLorenzSpeed, maxLorenzSpeed)
	fm := 1 + clampUnit(cf.ModKnob)*clamp(cf.ExciteIn/CVFullScaleVolts, -1, 1)
	dt := clamp(speed*fm/sampleRate, 0, maxLorenzStep)

	dx := lorenzSigma * (l.y - l.x)
	dy := l.x*(lorenzRho-l.z) - l.y
	dz := l.x*l.y - lorenzBeta*l.z

	l.x = clamp(l.x+dx*dt, -lorenzBoundXY, lorenzBoundXY)
	l.y = clamp(l.y+dy*dt, -lorenzBoundXY, lorenzBoundXY)
	l.z = clamp(l.z+dz*dt, 0, lorenzBoundZ)

	if alternate {
		return clampUnit(l.z / 50)
	}

	return clampUnit((l.x + 20) / 40)
}
