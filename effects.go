package main

import "time"

// EffectKind identifies a timed status effect on a player
type EffectKind int

const (
	EffectInvincible EffectKind = iota // spawn protection
	EffectShield
	EffectRapidFire
	EffectTripleShot
	EffectSpeedBoost
	effectCount
)

const (
	SpawnInvincibility = 2500 * time.Millisecond
	PowerUpDuration    = 8 * time.Second
)

// Effects stores absolute expiry instants. An effect is active while now is
// strictly before its expiry; the zero time means never granted.
type Effects struct {
	until [effectCount]time.Time
}

// Grant sets kind to expire d after now, replacing any previous expiry
func (e *Effects) Grant(kind EffectKind, now time.Time, d time.Duration) {
	e.until[kind] = now.Add(d)
}

// Active reports whether kind is unexpired at now
func (e *Effects) Active(kind EffectKind, now time.Time) bool {
	return now.Before(e.until[kind])
}

// Invincible is true while spawn protection or a shield is running
func (e *Effects) Invincible(now time.Time) bool {
	return e.Active(EffectInvincible, now) || e.Active(EffectShield, now)
}

// Remaining returns seconds left on kind, or nil when inactive
func (e *Effects) Remaining(kind EffectKind, now time.Time) *float64 {
	if !e.Active(kind, now) {
		return nil
	}
	s := e.until[kind].Sub(now).Seconds()
	return &s
}

// ClearPowerUps drops every pickup-granted effect. Spawn protection is kept.
func (e *Effects) ClearPowerUps() {
	for k := EffectShield; k < effectCount; k++ {
		e.until[k] = time.Time{}
	}
}

// ToState projects the remaining durations for the snapshot
func (e *Effects) ToState(now time.Time) EffectsState {
	return EffectsState{
		Shield:     e.Remaining(EffectShield, now),
		RapidFire:  e.Remaining(EffectRapidFire, now),
		TripleShot: e.Remaining(EffectTripleShot, now),
		SpeedBoost: e.Remaining(EffectSpeedBoost, now),
		Invincible: e.Remaining(EffectInvincible, now),
	}
}

// effectForPowerUp maps a pickup to the effect it grants
func effectForPowerUp(kind PowerUpKind) EffectKind {
	switch kind {
	case PowerUpShield:
		return EffectShield
	case PowerUpRapidFire:
		return EffectRapidFire
	case PowerUpTripleShot:
		return EffectTripleShot
	default:
		return EffectSpeedBoost
	}
}
