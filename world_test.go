package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// emptyWorld returns a world at wave 1 with no asteroids
func emptyWorld() *World {
	w := NewWorld(newTestRNG())
	w.asteroids = nil
	return w
}

// addBarePlayer adds a player at pos with no spawn protection
func addBarePlayer(t *testing.T, w *World, id uint64, pos Vec2) *Player {
	t.Helper()
	p, ok := w.AddPlayer(id, "P", t0)
	if !ok {
		t.Fatalf("player %d already present", id)
	}
	p.Pos = pos
	p.Angle = 0
	p.Effects = Effects{}
	return p
}

func TestNewWorld(t *testing.T) {
	w := NewWorld(newTestRNG())
	if len(w.asteroids) != InitialAsteroids {
		t.Errorf("expected %d asteroids, got %d", InitialAsteroids, len(w.asteroids))
	}
	if w.WaveNumber() != 1 {
		t.Errorf("expected wave 1, got %d", w.WaveNumber())
	}
	seen := make(map[uint64]bool)
	for _, a := range w.asteroids {
		if seen[a.ID] {
			t.Fatalf("duplicate asteroid id %d", a.ID)
		}
		seen[a.ID] = true
	}
}

func TestAddPlayerTwice(t *testing.T) {
	w := emptyWorld()
	p1, ok := w.AddPlayer(1, "A", t0)
	if !ok {
		t.Fatal("first add should succeed")
	}
	p2, ok := w.AddPlayer(1, "B", t0)
	if ok {
		t.Error("second add should report false")
	}
	if p1 != p2 || p2.Name != "A" {
		t.Error("second add should return the existing player")
	}
}

func TestSetInputUnknownPlayer(t *testing.T) {
	w := emptyWorld()
	w.SetInput(42, InputMsg{Thrust: true})
	if _, ok := w.Player(42); ok {
		t.Error("input for an unknown id must not create a player")
	}
}

func TestPvPKill(t *testing.T) {
	w := emptyWorld()
	shooter := addBarePlayer(t, w, 1, Vec2{100, 40})
	target := addBarePlayer(t, w, 2, Vec2{103, 40})
	shooter.Input = InputMsg{Fire: true}

	now := t0.Add(FireCooldown)
	rep := w.Step(now, TickDuration.Seconds())

	if target.Alive {
		t.Fatal("target should be dead")
	}
	if len(rep.Deaths) != 1 || rep.Deaths[0] != (Death{Victim: 2, Killer: 1}) {
		t.Errorf("unexpected deaths %v", rep.Deaths)
	}

	snap := w.Snapshot(now)
	if len(snap.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(snap.Players))
	}
	s, v := snap.Players[0], snap.Players[1]
	if s.ID != 1 || v.ID != 2 {
		t.Fatalf("players should be ordered by id, got %d, %d", s.ID, v.ID)
	}
	if s.Score != PvPKillPoints || s.KillStreak != 1 {
		t.Errorf("expected shooter score %d streak 1, got %d streak %d", PvPKillPoints, s.Score, s.KillStreak)
	}
	if v.Alive || v.RespawnTimer == nil || *v.RespawnTimer <= 0 {
		t.Errorf("expected dead victim with a respawn timer, got alive=%v timer=%v", v.Alive, v.RespawnTimer)
	}
	if len(snap.Bullets) != 0 {
		t.Errorf("the killing bullet should be consumed, got %d bullets", len(snap.Bullets))
	}
}

func TestPvPInvincibleTargetSurvives(t *testing.T) {
	w := emptyWorld()
	shooter := addBarePlayer(t, w, 1, Vec2{100, 40})
	target := addBarePlayer(t, w, 2, Vec2{103, 40})
	target.Effects.Grant(EffectShield, t0, PowerUpDuration)
	shooter.Input = InputMsg{Fire: true}

	w.Step(t0.Add(FireCooldown), TickDuration.Seconds())

	if !target.Alive {
		t.Error("shielded target should survive")
	}
	if shooter.Score != 0 {
		t.Errorf("no kill should be credited, got score %d", shooter.Score)
	}
	if len(w.bullets) != 1 {
		t.Errorf("bullet should pass through, got %d bullets", len(w.bullets))
	}
}

func TestBulletLeavingWorldRemoved(t *testing.T) {
	w := emptyWorld()
	w.bullets = append(w.bullets, NewBullet(w.nextID(), 99, Vec2{239.5, 40}, 0))

	w.Step(t0, TickDuration.Seconds())

	if snap := w.Snapshot(t0); len(snap.Bullets) != 0 {
		t.Errorf("expected bullet gone after leaving the world, got %v", snap.Bullets)
	}
}

func TestTwoBulletsOneAsteroid(t *testing.T) {
	w := emptyWorld()
	shooter := addBarePlayer(t, w, 1, Vec2{200, 10})
	w.asteroids = []*Asteroid{{ID: w.nextID(), Pos: Vec2{50, 40}, Size: AsteroidSmall}}
	w.bullets = []*Bullet{
		NewBullet(w.nextID(), 1, Vec2{49, 40}, 0),
		NewBullet(w.nextID(), 1, Vec2{49, 40}, 0),
	}

	rep := w.Step(t0, TickDuration.Seconds())

	if rep.AsteroidsDestroyed != 1 {
		t.Errorf("expected 1 asteroid destroyed, got %d", rep.AsteroidsDestroyed)
	}
	if len(w.asteroids) != 0 {
		t.Errorf("small asteroid should leave no children, got %d", len(w.asteroids))
	}
	if len(w.bullets) != 1 {
		t.Errorf("only one bullet should be consumed, got %d left", len(w.bullets))
	}
	if shooter.Score != AsteroidPoints(AsteroidSmall) {
		t.Errorf("expected one kill's points, got %d", shooter.Score)
	}
}

func TestBulletSplitsAsteroid(t *testing.T) {
	w := emptyWorld()
	w.asteroids = []*Asteroid{{ID: w.nextID(), Pos: Vec2{50, 40}, Size: AsteroidLarge}}
	w.bullets = []*Bullet{NewBullet(w.nextID(), 7, Vec2{48, 40}, 0)}

	w.Step(t0, TickDuration.Seconds())

	if len(w.asteroids) != 2 {
		t.Fatalf("expected 2 children, got %d", len(w.asteroids))
	}
	for _, a := range w.asteroids {
		if a.Size != AsteroidMedium {
			t.Errorf("expected medium children, got size %d", a.Size)
		}
	}
	if len(w.bullets) != 0 {
		t.Errorf("bullet should be consumed, got %d", len(w.bullets))
	}
}

func TestPowerUpFirstClaimWins(t *testing.T) {
	w := emptyWorld()
	p1 := addBarePlayer(t, w, 1, Vec2{120, 40})
	p2 := addBarePlayer(t, w, 2, Vec2{120, 40})
	w.powerUps = []*PowerUp{{ID: w.nextID(), Pos: Vec2{120, 40}, Kind: PowerUpShield, ExpiresAt: t0.Add(PowerUpTTL)}}

	rep := w.Step(t0, TickDuration.Seconds())

	if rep.PowerUpsTaken != 1 {
		t.Errorf("expected 1 pickup, got %d", rep.PowerUpsTaken)
	}
	if !p1.Effects.Active(EffectShield, t0) {
		t.Error("lowest id should win the power-up")
	}
	if p2.Effects.Active(EffectShield, t0) {
		t.Error("second player should get nothing")
	}
	if len(w.powerUps) != 0 {
		t.Error("power-up should be removed")
	}
}

func TestPowerUpExpires(t *testing.T) {
	w := emptyWorld()
	w.powerUps = []*PowerUp{{ID: w.nextID(), Pos: Vec2{120, 40}, Kind: PowerUpRapidFire, ExpiresAt: t0.Add(PowerUpTTL)}}

	w.Step(t0.Add(PowerUpTTL-time.Millisecond), TickDuration.Seconds())
	if len(w.powerUps) != 1 {
		t.Fatal("power-up should still be present before its ttl")
	}
	w.Step(t0.Add(PowerUpTTL), TickDuration.Seconds())
	if len(w.powerUps) != 0 {
		t.Error("power-up should expire at its ttl")
	}
}

func TestInvinciblePlayerIgnoresAsteroid(t *testing.T) {
	w := emptyWorld()
	p, _ := w.AddPlayer(1, "A", t0)
	w.asteroids = []*Asteroid{{ID: w.nextID(), Pos: p.Pos, Size: AsteroidLarge}}

	w.Step(t0.Add(TickDuration), TickDuration.Seconds())
	if !p.Alive {
		t.Fatal("spawn-protected player should survive an asteroid")
	}

	p.Effects = Effects{}
	p.Score = 100
	w.asteroids[0].Pos = p.Pos
	rep := w.Step(t0.Add(2*TickDuration), TickDuration.Seconds())
	if p.Alive {
		t.Fatal("unprotected player should die on contact")
	}
	if p.Score != 85 {
		t.Errorf("expected score 85 after penalty, got %d", p.Score)
	}
	if len(rep.Deaths) != 1 || rep.Deaths[0].Killer != 0 {
		t.Errorf("expected one asteroid death, got %v", rep.Deaths)
	}
}

func TestDeadPlayerRespawns(t *testing.T) {
	w := emptyWorld()
	p := addBarePlayer(t, w, 1, Vec2{100, 40})
	p.Die(t0)

	w.Step(t0.Add(RespawnDelay-TickDuration), TickDuration.Seconds())
	if p.Alive {
		t.Fatal("player should still be waiting to respawn")
	}

	at := t0.Add(RespawnDelay)
	w.Step(at, TickDuration.Seconds())
	if !p.Alive {
		t.Fatal("player should respawn after the delay")
	}
	if !p.Effects.Invincible(at) {
		t.Error("respawned player should be protected")
	}
}

func TestDeadPlayerDoesNotFire(t *testing.T) {
	w := emptyWorld()
	p := addBarePlayer(t, w, 1, Vec2{100, 40})
	p.Input = InputMsg{Fire: true}
	p.Die(t0)

	w.Step(t0.Add(FireCooldown), TickDuration.Seconds())
	if len(w.bullets) != 0 {
		t.Errorf("dead player fired %d bullets", len(w.bullets))
	}
}

func TestRemovePlayerKeepsBullets(t *testing.T) {
	w := emptyWorld()
	p := addBarePlayer(t, w, 1, Vec2{100, 40})
	p.Input = InputMsg{Fire: true}
	w.Step(t0.Add(FireCooldown), TickDuration.Seconds())

	if got := w.RemovePlayer(1); got != p {
		t.Fatal("RemovePlayer should return the player")
	}
	if w.RemovePlayer(1) != nil {
		t.Error("second remove should return nil")
	}
	if len(w.bullets) != 1 {
		t.Errorf("bullets of a departed player stay in flight, got %d", len(w.bullets))
	}
	w.Step(t0.Add(FireCooldown+TickDuration), TickDuration.Seconds())
}

func TestDepartedOwnerBulletsCreditNobody(t *testing.T) {
	w := emptyWorld()
	addBarePlayer(t, w, 1, Vec2{10, 10})
	victim := addBarePlayer(t, w, 2, Vec2{150, 40})
	victim.Score = 100
	w.RemovePlayer(1)

	w.asteroids = []*Asteroid{{ID: w.nextID(), Pos: Vec2{50, 40}, Size: AsteroidSmall}}
	w.bullets = []*Bullet{
		NewBullet(w.nextID(), 1, Vec2{49, 40}, 0),
		NewBullet(w.nextID(), 1, Vec2{147, 40}, 0),
	}

	rep := w.Step(t0.Add(TickDuration), TickDuration.Seconds())

	if rep.AsteroidsDestroyed != 1 || len(w.asteroids) != 0 {
		t.Errorf("orphaned bullet should still destroy the asteroid, got %d destroyed, %d left",
			rep.AsteroidsDestroyed, len(w.asteroids))
	}
	if victim.Alive {
		t.Fatal("orphaned bullet should still kill")
	}
	if victim.Score != 85 {
		t.Errorf("victim should only take the death penalty, got score %d", victim.Score)
	}
	if len(rep.Deaths) != 1 || rep.Deaths[0] != (Death{Victim: 2, Killer: 1}) {
		t.Errorf("unexpected deaths %v", rep.Deaths)
	}
	if _, ok := w.Player(1); ok {
		t.Error("departed player must not be recreated by a credit")
	}
	if len(w.bullets) != 0 {
		t.Errorf("both bullets should be consumed, got %d", len(w.bullets))
	}
}

func TestSnapshotEncoding(t *testing.T) {
	w := emptyWorld()
	addBarePlayer(t, w, 1, Vec2{100, 40})

	data, err := json.Marshal(Envelope{State: ptr(w.Snapshot(t0))})
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{
		`{"State":{"players":[`,
		`"power_ups":[]`,
		`"bullets":[]`,
		`"respawn_timer":null`,
		`"shield_remaining":null`,
		`"wave":{"wave_number":1,"asteroids_remaining":0,"countdown":null}`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}
