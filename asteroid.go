package main

import (
	"math"
	"math/rand/v2"
)

const (
	AsteroidSmall  uint8 = 1
	AsteroidMedium uint8 = 2
	AsteroidLarge  uint8 = 3

	AsteroidMaxVX = 2.5
	AsteroidMaxVY = 1.5

	SplitOffset     = math.Pi / 4 // children leave at ± this from the parent heading
	SplitSpread     = 0.5
	SplitJitterMin  = 0.8
	SplitJitterMax  = 1.3
	SplitSpeedFloor = 1.0
	SplitSeparation = 1.0 // distance each child is placed from the parent centre
)

// Asteroid drifts at constant velocity and wraps at the world edges
type Asteroid struct {
	ID   uint64
	Pos  Vec2
	Vel  Vec2
	Size uint8
}

// AsteroidRadius returns the collision radius for a size class
func AsteroidRadius(size uint8) float64 {
	switch size {
	case AsteroidSmall:
		return 2.0
	case AsteroidMedium:
		return 3.0
	default:
		return 4.0
	}
}

// AsteroidPoints is the base score for destroying an asteroid; smaller is worth more
func AsteroidPoints(size uint8) uint32 {
	switch size {
	case AsteroidSmall:
		return 100
	case AsteroidMedium:
		return 50
	default:
		return 20
	}
}

// NewRandomAsteroid places an asteroid anywhere with a random drift and size
func NewRandomAsteroid(id uint64, rng *rand.Rand) *Asteroid {
	return &Asteroid{
		ID:   id,
		Pos:  Vec2{rng.Float64() * WorldWidth, rng.Float64() * WorldHeight},
		Vel:  Vec2{randRange(rng, -AsteroidMaxVX, AsteroidMaxVX), randRange(rng, -AsteroidMaxVY, AsteroidMaxVY)},
		Size: uint8(1 + rng.IntN(3)),
	}
}

// Update moves the asteroid one tick
func (a *Asteroid) Update(dt float64) {
	a.Pos = Wrap(a.Pos.Add(a.Vel.Scale(dt)))
}

// Radius returns the collision radius
func (a *Asteroid) Radius() float64 {
	return AsteroidRadius(a.Size)
}

// Split returns the two children of a destroyed asteroid, or nil for the
// smallest size. nextID is called once per child.
func (a *Asteroid) Split(rng *rand.Rand, nextID func() uint64) []*Asteroid {
	if a.Size <= AsteroidSmall {
		return nil
	}
	parentAngle := math.Atan2(a.Vel.Y, a.Vel.X)
	parentSpeed := math.Sqrt(a.Vel.LenSq())

	children := make([]*Asteroid, 0, 2)
	for i, side := range [2]float64{1, -1} {
		heading := parentAngle + side*SplitOffset + randRange(rng, -SplitSpread, SplitSpread)
		speed := parentSpeed*randRange(rng, SplitJitterMin, SplitJitterMax) + SplitSpeedFloor
		// The two children are pushed to opposite sides of the parent
		place := heading
		if i == 1 {
			place += math.Pi
		}
		children = append(children, &Asteroid{
			ID:   nextID(),
			Pos:  Wrap(a.Pos.Add(Unit(place).Scale(SplitSeparation))),
			Vel:  Unit(heading).Scale(speed),
			Size: a.Size - 1,
		})
	}
	return children
}

// ToState converts to protocol state
func (a *Asteroid) ToState() AsteroidState {
	return AsteroidState{
		ID:   a.ID,
		Pos:  a.Pos,
		Vel:  a.Vel,
		Size: a.Size,
	}
}

// randRange returns a uniform value in [lo, hi)
func randRange(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
