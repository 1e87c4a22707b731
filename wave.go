package main

import (
	"math/rand/v2"
	"time"
)

const (
	InitialAsteroids = 50
	AsteroidsPerWave = 5
	MaxWaveAsteroids = 100
	WaveCountdown    = 3 * time.Second
)

// WaveState tracks the current wave and the countdown to the next one
type WaveState struct {
	Number       uint32
	CountdownEnd time.Time // zero while the wave is active
}

// WaveSpawnCount returns how many asteroids wave n starts with
func WaveSpawnCount(n uint32) int {
	if n < 1 {
		n = 1
	}
	return min(InitialAsteroids+int(n-1)*AsteroidsPerWave, MaxWaveAsteroids)
}

// Advance runs the wave state machine for one tick. It returns the number of
// the wave that should be spawned now, or 0 if none.
//
// Active -> Countdown when the field is empty; Countdown -> Active once the
// full delay has elapsed.
func (ws *WaveState) Advance(asteroidsLeft int, now time.Time) uint32 {
	if asteroidsLeft > 0 {
		return 0
	}
	if ws.CountdownEnd.IsZero() {
		ws.CountdownEnd = now.Add(WaveCountdown)
		return 0
	}
	if now.Before(ws.CountdownEnd) {
		return 0
	}
	ws.Number++
	ws.CountdownEnd = time.Time{}
	return ws.Number
}

// ToInfo projects the wave state for a snapshot
func (ws *WaveState) ToInfo(asteroidsLeft int, now time.Time) *WaveInfo {
	info := &WaveInfo{
		WaveNumber:         ws.Number,
		AsteroidsRemaining: uint32(asteroidsLeft),
	}
	if !ws.CountdownEnd.IsZero() {
		c := max(ws.CountdownEnd.Sub(now).Seconds(), 0)
		info.Countdown = &c
	}
	return info
}

// FindSafeSpawn tries SafeSpawnTries random points, returning the first one
// clear of every asteroid by SafeSpawnClear plus the asteroid radius. Falls
// back to an unchecked random point.
func FindSafeSpawn(rng *rand.Rand, asteroids []*Asteroid) Vec2 {
	for range SafeSpawnTries {
		pos := randomPos(rng)
		if spawnClear(pos, asteroids) {
			return pos
		}
	}
	return randomPos(rng)
}

func spawnClear(pos Vec2, asteroids []*Asteroid) bool {
	for _, a := range asteroids {
		minDist := SafeSpawnClear + a.Radius()
		if DistanceSq(pos, a.Pos) < minDist*minDist {
			return false
		}
	}
	return true
}

func randomPos(rng *rand.Rand) Vec2 {
	return Vec2{rng.Float64() * WorldWidth, rng.Float64() * WorldHeight}
}
