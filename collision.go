package main

import "time"

// CheckCollision checks if two circles overlap on the torus.
// Compares squared distances, no square root.
func CheckCollision(p Vec2, rp float64, q Vec2, rq float64) bool {
	radSum := rp + rq
	return DistanceSq(p, q) < radSum*radSum
}

// bulletAsteroidHit records a bullet consuming an asteroid
type bulletAsteroidHit struct {
	bullet   int // index into World.bullets
	asteroid int // index into World.asteroids
}

// bulletPlayerHit records a bullet killing a player
type bulletPlayerHit struct {
	bullet int
	victim uint64
}

// pickup records a player claiming a power-up
type pickup struct {
	player  uint64
	powerUp int
}

// scanBulletAsteroid pairs each bullet with the first asteroid (in slice
// order) it overlaps. An asteroid is claimed by at most one bullet per tick.
// Nothing is mutated.
func (w *World) scanBulletAsteroid() []bulletAsteroidHit {
	w.grid.Clear()
	for i, a := range w.asteroids {
		w.grid.Insert(a.Pos, i)
	}

	var hits []bulletAsteroidHit
	claimed := make(map[int]bool)
	var buf []int
	for bi, b := range w.bullets {
		buf = w.grid.QuerySorted(b.Pos, BulletRadius+AsteroidRadius(AsteroidLarge), buf[:0])
		for _, ai := range buf {
			if claimed[ai] {
				continue
			}
			a := w.asteroids[ai]
			if CheckCollision(b.Pos, BulletRadius, a.Pos, a.Radius()) {
				claimed[ai] = true
				hits = append(hits, bulletAsteroidHit{bullet: bi, asteroid: ai})
				break
			}
		}
	}
	return hits
}

// scanPickups pairs live players with overlapping power-ups. Players are
// scanned in ascending id and the first claim on a power-up wins.
func (w *World) scanPickups() []pickup {
	var picks []pickup
	claimed := make(map[int]bool)
	for _, p := range w.sortedPlayers() {
		if !p.Alive {
			continue
		}
		for i, pu := range w.powerUps {
			if claimed[i] {
				continue
			}
			if CheckCollision(p.Pos, PlayerRadius, pu.Pos, PowerUpRadius) {
				claimed[i] = true
				picks = append(picks, pickup{player: p.ID, powerUp: i})
			}
		}
	}
	return picks
}

// scanPlayerAsteroid returns the ids of live, unprotected players touching any asteroid
func (w *World) scanPlayerAsteroid(now time.Time) []uint64 {
	w.grid.Clear()
	for i, a := range w.asteroids {
		w.grid.Insert(a.Pos, i)
	}

	var dead []uint64
	var buf []int
	for _, p := range w.sortedPlayers() {
		if !p.Alive || p.Effects.Invincible(now) {
			continue
		}
		buf = w.grid.QuerySorted(p.Pos, PlayerRadius+AsteroidRadius(AsteroidLarge), buf[:0])
		for _, ai := range buf {
			a := w.asteroids[ai]
			if CheckCollision(p.Pos, PlayerRadius, a.Pos, a.Radius()) {
				dead = append(dead, p.ID)
				break
			}
		}
	}
	return dead
}

// scanBulletPlayer pairs bullets with the first live, unprotected, non-owner
// player they overlap. A victim is claimed by at most one bullet per tick.
func (w *World) scanBulletPlayer(now time.Time) []bulletPlayerHit {
	players := w.sortedPlayers()
	var hits []bulletPlayerHit
	claimed := make(map[uint64]bool)
	for bi, b := range w.bullets {
		for _, p := range players {
			if !p.Alive || p.ID == b.OwnerID || claimed[p.ID] || p.Effects.Invincible(now) {
				continue
			}
			if CheckCollision(b.Pos, BulletRadius, p.Pos, PlayerRadius) {
				claimed[p.ID] = true
				hits = append(hits, bulletPlayerHit{bullet: bi, victim: p.ID})
				break
			}
		}
	}
	return hits
}
