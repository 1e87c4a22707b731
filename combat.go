package main

import "time"

const (
	ComboTimeout = 3 * time.Second
	MaxCombo     = 10

	PvPKillPoints       = 200
	StreakBonusInterval = 3
	StreakBonusPoints   = 100

	DeathPenaltyPercent = 15
)

// DeathPenalty returns the score left after losing DeathPenaltyPercent of it,
// truncated toward zero
func DeathPenalty(score uint32) uint32 {
	return uint32(uint64(score) * (100 - DeathPenaltyPercent) / 100)
}

// RegisterAsteroidKill advances the player's combo and awards points for
// destroying an asteroid of the given size. Returns the points awarded.
func RegisterAsteroidKill(p *Player, size uint8, now time.Time) uint32 {
	if !p.LastKill.IsZero() && now.Sub(p.LastKill) < ComboTimeout {
		p.Combo = min(p.Combo+1, MaxCombo)
	} else {
		p.Combo = 1
	}
	p.LastKill = now
	p.Kills++

	points := AsteroidPoints(size) * p.Combo
	p.Score += points
	return points
}

// RegisterPlayerKill credits the shooter with a PvP kill and returns the
// points awarded
func RegisterPlayerKill(shooter *Player) uint32 {
	shooter.KillStreak++
	shooter.Kills++
	points := uint32(PvPKillPoints)
	if shooter.KillStreak%StreakBonusInterval == 0 {
		points += StreakBonusPoints
	}
	shooter.Score += points
	return points
}
