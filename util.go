package main

import (
	"crypto/rand"
	"encoding/hex"
	"math"
)

// World dimensions. Both axes wrap.
const (
	WorldWidth  = 240.0
	WorldHeight = 80.0
)

// Vec2 is a point or velocity in world units
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// LenSq returns the squared magnitude
func (v Vec2) LenSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Unit returns the unit vector pointing at angle a
func Unit(a float64) Vec2 {
	return Vec2{math.Cos(a), math.Sin(a)}
}

// Wrap folds p back into [0, WorldWidth) x [0, WorldHeight)
func Wrap(p Vec2) Vec2 {
	return Vec2{wrapAxis(p.X, WorldWidth), wrapAxis(p.Y, WorldHeight)}
}

func wrapAxis(v, extent float64) float64 {
	if v < 0 {
		v += extent
	}
	if v >= extent {
		v -= extent
	}
	// Anything more than one extent away (or a negative value rounding up
	// to extent) needs the general form.
	if v < 0 || v >= extent {
		v = math.Mod(v, extent)
		if v < 0 {
			v += extent
		}
		if v >= extent {
			v = 0
		}
	}
	return v
}

// ShortestDelta returns a-b along the shorter of the direct and wrapped paths
func ShortestDelta(a, b, extent float64) float64 {
	d := a - b
	if d > extent || d < -extent {
		d = math.Mod(d, extent)
	}
	if d > extent/2 {
		d -= extent
	} else if d < -extent/2 {
		d += extent
	}
	return d
}

// DistanceSq is the squared toroidal distance between p and q
func DistanceSq(p, q Vec2) float64 {
	dx := ShortestDelta(p.X, q.X, WorldWidth)
	dy := ShortestDelta(p.Y, q.Y, WorldHeight)
	return dx*dx + dy*dy
}

// InBounds reports whether p lies inside the world rectangle without wrapping
func InBounds(p Vec2) bool {
	return p.X >= 0 && p.X < WorldWidth && p.Y >= 0 && p.Y < WorldHeight
}

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// NormalizeAngle wraps angle to [0, 2PI)
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}
