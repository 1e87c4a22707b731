package main

import (
	"math"
	"strings"
	"time"
)

const (
	PlayerRadius   = 1.5
	RotationSpeed  = 5.0  // radians/s
	ThrustAccel    = 12.0 // units/s²
	Drag           = 0.985
	MaxSpeed       = 25.0
	SpeedBoostMul  = 1.5
	FireCooldown   = 200 * time.Millisecond
	RapidFireMul   = 0.4
	TripleSpread   = 0.2 // radians either side of the centre shot
	RespawnDelay   = 1500 * time.Millisecond
	SafeSpawnClear = 8.0
	SafeSpawnTries = 50
	MaxNameLen     = 16
)

// Player is one connected ship plus its runtime bookkeeping
type Player struct {
	ID         uint64
	Name       string
	Pos        Vec2
	Vel        Vec2
	Angle      float64
	Alive      bool
	Score      uint32
	Combo      uint32
	KillStreak uint32
	Kills      uint32 // asteroid + player kills this connection, for the leaderboard

	Input     InputMsg
	Effects   Effects
	LastFire  time.Time
	LastKill  time.Time
	RespawnAt time.Time // zero while alive
	AccountID int64     // 0 for guests
}

// NewPlayer creates a live player at pos with spawn protection from now
func NewPlayer(id uint64, name string, pos Vec2, angle float64, now time.Time) *Player {
	p := &Player{
		ID:       id,
		Name:     name,
		Pos:      pos,
		Angle:    angle,
		Alive:    true,
		LastFire: now, // the first shot waits one cooldown after joining
	}
	p.Effects.Grant(EffectInvincible, now, SpawnInvincibility)
	return p
}

// Update applies rotation, thrust, drag, speed cap and wrap for one tick
func (p *Player) Update(dt float64, now time.Time) {
	if !p.Alive {
		return
	}
	if p.Input.TargetAngle != nil {
		p.Angle = *p.Input.TargetAngle
	}
	p.Angle += float64(p.Input.Rotate) * RotationSpeed * dt

	boost := 1.0
	if p.Effects.Active(EffectSpeedBoost, now) {
		boost = SpeedBoostMul
	}
	if p.Input.Thrust {
		p.Vel = p.Vel.Add(Unit(p.Angle).Scale(ThrustAccel * boost * dt))
	}

	p.Vel = p.Vel.Scale(Drag)

	// Rescale rather than clamp per axis so direction is preserved
	maxSpd := MaxSpeed * boost
	if sq := p.Vel.LenSq(); sq > maxSpd*maxSpd {
		p.Vel = p.Vel.Scale(maxSpd / math.Sqrt(sq))
	}

	p.Pos = Wrap(p.Pos.Add(p.Vel.Scale(dt)))
}

// FireCooldown returns the current cooldown, shortened by rapid fire
func (p *Player) FireCooldown(now time.Time) time.Duration {
	if p.Effects.Active(EffectRapidFire, now) {
		return time.Duration(float64(FireCooldown) * RapidFireMul)
	}
	return FireCooldown
}

// CanFire returns true if the player holds fire and the cooldown elapsed
func (p *Player) CanFire(now time.Time) bool {
	return p.Alive && p.Input.Fire && now.Sub(p.LastFire) >= p.FireCooldown(now)
}

// ShotAngles returns the headings of the bullets for one trigger pull.
// The heading is snapped to the nearest of eight compass sectors.
func (p *Player) ShotAngles(now time.Time) []float64 {
	snapped := SnapAngle(p.Angle)
	if p.Effects.Active(EffectTripleShot, now) {
		return []float64{snapped - TripleSpread, snapped, snapped + TripleSpread}
	}
	return []float64{snapped}
}

// SnapAngle rounds a to the nearest multiple of 45°
func SnapAngle(a float64) float64 {
	a = NormalizeAngle(a)
	sector := math.Floor((a + math.Pi/8) / (math.Pi / 4))
	return sector * math.Pi / 4
}

// Die applies the death penalty and starts the respawn countdown
func (p *Player) Die(now time.Time) {
	p.Alive = false
	p.Score = DeathPenalty(p.Score)
	p.RespawnAt = now.Add(RespawnDelay)
	p.Combo = 0
	p.KillStreak = 0
	p.Effects.ClearPowerUps()
}

// RespawnDue reports whether the respawn countdown has elapsed
func (p *Player) RespawnDue(now time.Time) bool {
	return !p.Alive && !p.RespawnAt.IsZero() && !now.Before(p.RespawnAt)
}

// Respawn resets the player at pos with fresh spawn protection
func (p *Player) Respawn(pos Vec2, now time.Time) {
	p.Pos = pos
	p.Vel = Vec2{}
	p.Alive = true
	p.RespawnAt = time.Time{}
	p.Effects.Grant(EffectInvincible, now, SpawnInvincibility)
}

// ToState converts to protocol state
func (p *Player) ToState(now time.Time) PlayerState {
	s := PlayerState{
		ID:         p.ID,
		Name:       p.Name,
		Pos:        p.Pos,
		Vel:        p.Vel,
		Angle:      p.Angle,
		Alive:      p.Alive,
		Score:      p.Score,
		Combo:      p.Combo,
		KillStreak: p.KillStreak,
		Effects:    p.Effects.ToState(now),
	}
	if !p.Alive && now.Before(p.RespawnAt) {
		r := p.RespawnAt.Sub(now).Seconds()
		s.RespawnTimer = &r
	}
	return s
}

// SanitizeName trims whitespace and caps a display name at MaxNameLen runes
func SanitizeName(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) > MaxNameLen {
		r = r[:MaxNameLen]
	}
	return string(r)
}
