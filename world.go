package main

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"
)

// Death describes one player death during a tick
type Death struct {
	Victim uint64
	Killer uint64 // 0 when an asteroid did it
}

// TickReport summarizes what happened during one Step, for logging and analytics
type TickReport struct {
	Deaths             []Death
	AsteroidsDestroyed int
	PowerUpsTaken      int
	WaveStarted        uint32 // 0 if no wave started
}

// World is the canonical simulation state. It is not safe for concurrent
// use; Game serializes access.
type World struct {
	players   map[uint64]*Player
	asteroids []*Asteroid
	bullets   []*Bullet
	powerUps  []*PowerUp
	wave      WaveState
	rng       *rand.Rand
	lastID    uint64 // asteroid, bullet and power-up ids
	grid      SpatialGrid
}

// NewWorld creates a world at wave 1 with the initial asteroid field
func NewWorld(rng *rand.Rand) *World {
	w := &World{
		players: make(map[uint64]*Player),
		rng:     rng,
		wave:    WaveState{Number: 1},
	}
	w.asteroids = w.spawnAsteroids(InitialAsteroids)
	return w
}

func (w *World) nextID() uint64 {
	w.lastID++
	return w.lastID
}

func (w *World) spawnAsteroids(n int) []*Asteroid {
	out := make([]*Asteroid, 0, n)
	for range n {
		out = append(out, NewRandomAsteroid(w.nextID(), w.rng))
	}
	return out
}

// AddPlayer creates a player for id at a safe position. Returns the existing
// player and false if id already joined.
func (w *World) AddPlayer(id uint64, name string, now time.Time) (*Player, bool) {
	if p, ok := w.players[id]; ok {
		return p, false
	}
	pos := FindSafeSpawn(w.rng, w.asteroids)
	p := NewPlayer(id, name, pos, w.rng.Float64()*2*math.Pi, now)
	w.players[id] = p
	return p, true
}

// RemovePlayer deletes the player and returns it, or nil if unknown.
// Bullets it fired stay in flight.
func (w *World) RemovePlayer(id uint64) *Player {
	p, ok := w.players[id]
	if !ok {
		return nil
	}
	delete(w.players, id)
	return p
}

// Player looks up a player by id
func (w *World) Player(id uint64) (*Player, bool) {
	p, ok := w.players[id]
	return p, ok
}

// SetInput replaces the player's buffered input. Unknown ids are ignored.
func (w *World) SetInput(id uint64, in InputMsg) {
	if p, ok := w.players[id]; ok {
		p.Input = in.Sanitized()
	}
}

// WaveNumber returns the current wave
func (w *World) WaveNumber() uint32 {
	return w.wave.Number
}

func (w *World) sortedPlayers() []*Player {
	ps := make([]*Player, 0, len(w.players))
	for _, p := range w.players {
		ps = append(ps, p)
	}
	slices.SortFunc(ps, func(a, b *Player) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return ps
}

// Step advances the world by dt seconds ending at now.
//
// Integration of every entity finishes before any collision test, and each
// collision category is scanned in full before its removals and additions
// are applied.
func (w *World) Step(now time.Time, dt float64) TickReport {
	var rep TickReport
	players := w.sortedPlayers()

	for _, p := range players {
		if p.RespawnDue(now) {
			p.Respawn(FindSafeSpawn(w.rng, w.asteroids), now)
		}
	}

	for _, p := range players {
		if !p.Alive {
			continue
		}
		p.Update(dt, now)
		if p.CanFire(now) {
			p.LastFire = now
			for _, a := range p.ShotAngles(now) {
				w.bullets = append(w.bullets, NewBullet(w.nextID(), p.ID, p.Pos, a))
			}
		}
	}

	live := w.bullets[:0]
	for _, b := range w.bullets {
		if b.Update(dt) {
			live = append(live, b)
		}
	}
	clear(w.bullets[len(live):])
	w.bullets = live

	for _, a := range w.asteroids {
		a.Update(dt)
	}

	w.powerUps = slices.DeleteFunc(w.powerUps, func(pu *PowerUp) bool {
		return pu.Expired(now)
	})

	w.resolveBulletAsteroid(now, &rep)
	w.resolvePickups(now, &rep)
	w.resolvePlayerAsteroid(now, &rep)
	w.resolveBulletPlayer(now, &rep)

	if n := w.wave.Advance(len(w.asteroids), now); n > 0 {
		w.asteroids = w.spawnAsteroids(WaveSpawnCount(n))
		rep.WaveStarted = n
	}
	return rep
}

func (w *World) resolveBulletAsteroid(now time.Time, rep *TickReport) {
	hits := w.scanBulletAsteroid()
	if len(hits) == 0 {
		return
	}

	deadBullets := make(map[uint64]bool, len(hits))
	deadAsteroids := make(map[uint64]bool, len(hits))
	var children []*Asteroid
	for _, h := range hits {
		b, a := w.bullets[h.bullet], w.asteroids[h.asteroid]
		deadBullets[b.ID] = true
		deadAsteroids[a.ID] = true

		if shooter, ok := w.players[b.OwnerID]; ok {
			RegisterAsteroidKill(shooter, a.Size, now)
		}
		children = append(children, a.Split(w.rng, w.nextID)...)
		if pu := MaybeDropPowerUp(w.rng, a.Pos, now, w.nextID); pu != nil {
			w.powerUps = append(w.powerUps, pu)
		}
	}
	rep.AsteroidsDestroyed += len(deadAsteroids)

	w.bullets = slices.DeleteFunc(w.bullets, func(b *Bullet) bool { return deadBullets[b.ID] })
	w.asteroids = slices.DeleteFunc(w.asteroids, func(a *Asteroid) bool { return deadAsteroids[a.ID] })
	w.asteroids = append(w.asteroids, children...)
}

func (w *World) resolvePickups(now time.Time, rep *TickReport) {
	picks := w.scanPickups()
	if len(picks) == 0 {
		return
	}

	taken := make(map[uint64]bool, len(picks))
	for _, pk := range picks {
		pu := w.powerUps[pk.powerUp]
		taken[pu.ID] = true
		if p, ok := w.players[pk.player]; ok {
			p.Effects.Grant(effectForPowerUp(pu.Kind), now, PowerUpDuration)
		}
	}
	rep.PowerUpsTaken += len(taken)
	w.powerUps = slices.DeleteFunc(w.powerUps, func(pu *PowerUp) bool { return taken[pu.ID] })
}

func (w *World) resolvePlayerAsteroid(now time.Time, rep *TickReport) {
	for _, id := range w.scanPlayerAsteroid(now) {
		if p, ok := w.players[id]; ok {
			p.Die(now)
			rep.Deaths = append(rep.Deaths, Death{Victim: id})
		}
	}
}

func (w *World) resolveBulletPlayer(now time.Time, rep *TickReport) {
	hits := w.scanBulletPlayer(now)
	if len(hits) == 0 {
		return
	}

	spent := make(map[uint64]bool, len(hits))
	for _, h := range hits {
		b := w.bullets[h.bullet]
		spent[b.ID] = true
		victim, ok := w.players[h.victim]
		if !ok {
			continue
		}
		victim.Die(now)
		rep.Deaths = append(rep.Deaths, Death{Victim: victim.ID, Killer: b.OwnerID})
		if shooter, ok := w.players[b.OwnerID]; ok {
			RegisterPlayerKill(shooter)
		}
	}
	w.bullets = slices.DeleteFunc(w.bullets, func(b *Bullet) bool { return spent[b.ID] })
}

// Snapshot builds the full State payload. Players are ordered by id.
func (w *World) Snapshot(now time.Time) StateMsg {
	s := StateMsg{
		Players:   make([]PlayerState, 0, len(w.players)),
		Asteroids: make([]AsteroidState, 0, len(w.asteroids)),
		Bullets:   make([]BulletState, 0, len(w.bullets)),
		PowerUps:  make([]PowerUpState, 0, len(w.powerUps)),
		Wave:      w.wave.ToInfo(len(w.asteroids), now),
	}
	for _, p := range w.sortedPlayers() {
		s.Players = append(s.Players, p.ToState(now))
	}
	for _, a := range w.asteroids {
		s.Asteroids = append(s.Asteroids, a.ToState())
	}
	for _, b := range w.bullets {
		s.Bullets = append(s.Bullets, b.ToState())
	}
	for _, pu := range w.powerUps {
		s.PowerUps = append(s.PowerUps, pu.ToState())
	}
	return s
}
