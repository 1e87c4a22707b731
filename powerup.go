package main

import (
	"math/rand/v2"
	"time"
)

// PowerUpKind names the effect a pickup grants. The string form is the wire form.
type PowerUpKind string

const (
	PowerUpShield     PowerUpKind = "Shield"
	PowerUpRapidFire  PowerUpKind = "RapidFire"
	PowerUpTripleShot PowerUpKind = "TripleShot"
	PowerUpSpeedBoost PowerUpKind = "SpeedBoost"
)

var powerUpKinds = [...]PowerUpKind{PowerUpShield, PowerUpRapidFire, PowerUpTripleShot, PowerUpSpeedBoost}

const (
	PowerUpRadius     = 1.5
	PowerUpDropChance = 0.3
	PowerUpTTL        = 15 * time.Second
)

// PowerUp sits still until picked up or expired
type PowerUp struct {
	ID        uint64
	Pos       Vec2
	Kind      PowerUpKind
	ExpiresAt time.Time
}

// MaybeDropPowerUp rolls the drop chance and returns a pickup of a random kind, or nil
func MaybeDropPowerUp(rng *rand.Rand, pos Vec2, now time.Time, nextID func() uint64) *PowerUp {
	if rng.Float64() >= PowerUpDropChance {
		return nil
	}
	return &PowerUp{
		ID:        nextID(),
		Pos:       pos,
		Kind:      powerUpKinds[rng.IntN(len(powerUpKinds))],
		ExpiresAt: now.Add(PowerUpTTL),
	}
}

// Expired reports whether the pickup's lifetime is over
func (p *PowerUp) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// ToState converts to protocol state
func (p *PowerUp) ToState() PowerUpState {
	return PowerUpState{
		ID:   p.ID,
		Pos:  p.Pos,
		Kind: p.Kind,
	}
}
