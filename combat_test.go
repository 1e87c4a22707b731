package main

import (
	"testing"
	"time"
)

func TestComboBuildsAndResets(t *testing.T) {
	p := NewPlayer(1, "A", Vec2{}, 0, t0)

	want := []struct {
		at     time.Duration
		combo  uint32
		points uint32
	}{
		{0, 1, 100},
		{time.Second, 2, 200},
		{2 * time.Second, 3, 300},
		// 3s after the previous kill the combo window has closed
		{5 * time.Second, 1, 100},
	}
	for i, w := range want {
		got := RegisterAsteroidKill(p, AsteroidSmall, t0.Add(w.at))
		if p.Combo != w.combo {
			t.Errorf("kill %d: expected combo %d, got %d", i, w.combo, p.Combo)
		}
		if got != w.points {
			t.Errorf("kill %d: expected %d points, got %d", i, w.points, got)
		}
	}
	if p.Score != 700 {
		t.Errorf("expected score 700, got %d", p.Score)
	}
	if p.Kills != 4 {
		t.Errorf("expected 4 kills, got %d", p.Kills)
	}
}

func TestComboCapped(t *testing.T) {
	p := NewPlayer(1, "A", Vec2{}, 0, t0)
	for i := range 15 {
		RegisterAsteroidKill(p, AsteroidLarge, t0.Add(time.Duration(i)*time.Second))
	}
	if p.Combo != MaxCombo {
		t.Errorf("expected combo capped at %d, got %d", MaxCombo, p.Combo)
	}
}

func TestDeathPenalty(t *testing.T) {
	tests := []struct {
		score uint32
		want  uint32
	}{
		{0, 0},
		{1, 0},
		{7, 5},
		{100, 85},
		{1000, 850},
		{4294967295, 3650722200},
	}
	for _, tt := range tests {
		if got := DeathPenalty(tt.score); got != tt.want {
			t.Errorf("DeathPenalty(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestRepeatedDeathsReachZero(t *testing.T) {
	score := uint32(500)
	for range 100 {
		score = DeathPenalty(score)
	}
	if score != 0 {
		t.Errorf("expected score to decay to 0, got %d", score)
	}
}

func TestPlayerKillStreakBonus(t *testing.T) {
	p := NewPlayer(1, "A", Vec2{}, 0, t0)

	for i, want := range []uint32{200, 200, 300, 200, 200, 300} {
		if got := RegisterPlayerKill(p); got != want {
			t.Errorf("kill %d: expected %d points, got %d", i+1, want, got)
		}
	}
	if p.KillStreak != 6 {
		t.Errorf("expected streak 6, got %d", p.KillStreak)
	}
	if p.Score != 1400 {
		t.Errorf("expected score 1400, got %d", p.Score)
	}
}
