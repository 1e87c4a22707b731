package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickHz       = 20 // simulation ticks (and State broadcasts) per second
	TickDuration = time.Second / TickHz
	maxChatLen   = 200
)

// Broadcaster is the outbound half of one connection. Implementations must
// not block; a slow connection drops messages instead.
type Broadcaster interface {
	SendJSON(msg any)
	SendState(frame *StateFrame)
}

// StateFrame is one tick's snapshot, encoded once and shared by every session
type StateFrame struct {
	JSON []byte // one protocol line, no trailing newline

	env      Envelope
	packOnce sync.Once
	packed   []byte
}

// NewStateFrame encodes a snapshot as a State line
func NewStateFrame(s StateMsg) (*StateFrame, error) {
	env := Envelope{State: &s}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return &StateFrame{JSON: data, env: env}, nil
}

// MsgPack returns the msgpack encoding of the frame (same field names as
// the JSON form), computed on first use
func (f *StateFrame) MsgPack() []byte {
	f.packOnce.Do(func() {
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(f.env); err != nil {
			log.Warn("msgpack encode failed", "error", err)
			return
		}
		f.packed = buf.Bytes()
	})
	return f.packed
}

// Game owns the world and the session registry. Every mutation happens
// under mu; network sends happen after it is released.
type Game struct {
	mu          sync.Mutex
	world       *World
	sessions    sessionSet
	lastSession uint64

	db        *DB        // nil: no leaderboard
	analytics *Analytics // nil: no event tracking
	now       func() time.Time
}

// NewGame creates a game with a fresh world. db and analytics may be nil.
func NewGame(rng *rand.Rand, db *DB, analytics *Analytics) *Game {
	return &Game{
		world:     NewWorld(rng),
		sessions:  make(sessionSet),
		db:        db,
		analytics: analytics,
		now:       time.Now,
	}
}

// Run ticks the game until ctx is cancelled
func (g *Game) Run(ctx context.Context) {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.Step(g.now())
		case <-ctx.Done():
			return
		}
	}
}

// Connect registers a new session and greets it. Session ids start at 1
// and are never reused.
func (g *Game) Connect(out Broadcaster) uint64 {
	g.mu.Lock()
	g.lastSession++
	id := g.lastSession
	g.mu.Unlock()

	// Greet before registering so no State can overtake the Welcome
	out.SendJSON(Envelope{Welcome: &WelcomeMsg{ID: id, TickHz: TickHz}})
	out.SendJSON(Envelope{System: &SystemMsg{Text: welcomeText}})

	g.mu.Lock()
	g.sessions[id] = &Session{ID: id, Out: out}
	g.mu.Unlock()
	return id
}

// Join creates the session's player. A second join on the same session is
// a no-op. Returns false if nothing was created.
func (g *Game) Join(id uint64, name string, accountID int64) bool {
	name = SanitizeName(name)
	if name == "" {
		name = fmt.Sprintf("Player%d", id)
	}

	g.mu.Lock()
	sess, ok := g.sessions[id]
	if !ok || sess.Joined {
		g.mu.Unlock()
		return false
	}
	p, _ := g.world.AddPlayer(id, name, g.now())
	p.AccountID = accountID
	sess.Name = name
	sess.Joined = true
	sess.AccountID = accountID
	outs := g.sessions.outs()
	g.mu.Unlock()

	log.Info("player joined", "id", id, "name", name, "account", accountID)
	g.analytics.Track(EvtJoin, accountID, id, "")
	broadcast(outs, Envelope{System: &SystemMsg{Text: name + " joined the room"}})
	return true
}

// HandleInput buffers the latest input for the session's player
func (g *Game) HandleInput(id uint64, in InputMsg) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.world.SetInput(id, in)
}

// Chat relays a chat line from a session to everyone
func (g *Game) Chat(id uint64, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if r := []rune(text); len(r) > maxChatLen {
		text = string(r[:maxChatLen])
	}

	g.mu.Lock()
	sess, ok := g.sessions[id]
	if !ok {
		g.mu.Unlock()
		return
	}
	from := sess.DisplayName()
	outs := g.sessions.outs()
	g.mu.Unlock()

	broadcast(outs, Envelope{Chat: &ChatOutMsg{From: from, Text: text}})
}

// Disconnect removes the session and its player. Unknown ids are ignored.
func (g *Game) Disconnect(id uint64) {
	g.mu.Lock()
	sess, ok := g.sessions[id]
	if !ok {
		g.mu.Unlock()
		return
	}
	delete(g.sessions, id)
	p := g.world.RemovePlayer(id)
	wave := g.world.WaveNumber()
	outs := g.sessions.outs()
	g.mu.Unlock()

	if p == nil {
		log.Debug("session closed before join", "id", id)
		return
	}
	log.Info("player left", "id", id, "name", p.Name, "score", p.Score)
	g.analytics.Track(EvtLeave, sess.AccountID, id, fmt.Sprintf(`{"score":%d}`, p.Score))
	if g.db != nil && p.Score > 0 {
		err := g.db.RecordScore(ScoreRow{
			Name:      p.Name,
			AccountID: p.AccountID,
			Score:     int64(p.Score),
			Wave:      int64(wave),
			Kills:     int64(p.Kills),
		})
		if err != nil {
			log.Warn("could not record score", "name", p.Name, "error", err)
		}
	}
	broadcast(outs, Envelope{System: &SystemMsg{Text: p.Name + " left the room"}})
}

// Step runs one tick at now and broadcasts the resulting snapshot
func (g *Game) Step(now time.Time) {
	g.mu.Lock()
	rep := g.world.Step(now, TickDuration.Seconds())
	snap := g.world.Snapshot(now)
	outs := g.sessions.outs()
	g.mu.Unlock()

	g.report(rep)

	frame, err := NewStateFrame(snap)
	if err != nil {
		log.Error("dropping tick snapshot", "error", err)
		return
	}
	for _, out := range outs {
		out.SendState(frame)
	}
}

func (g *Game) report(rep TickReport) {
	for _, d := range rep.Deaths {
		log.Debug("player died", "victim", d.Victim, "killer", d.Killer)
		g.analytics.Track(EvtPlayerDeath, 0, d.Victim, fmt.Sprintf(`{"killer":%d}`, d.Killer))
		if d.Killer != 0 {
			g.analytics.Track(EvtPlayerKill, 0, d.Killer, fmt.Sprintf(`{"victim":%d}`, d.Victim))
		}
	}
	if rep.WaveStarted > 0 {
		log.Info("wave started", "wave", rep.WaveStarted, "asteroids", WaveSpawnCount(rep.WaveStarted))
		g.analytics.Track(EvtWaveStart, 0, 0, fmt.Sprintf(`{"wave":%d}`, rep.WaveStarted))
	}
}

// PlayerCount returns the number of joined players
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.world.players)
}

// SessionCount returns the number of connected sessions
func (g *Game) SessionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

func broadcast(outs []Broadcaster, msg Envelope) {
	for _, out := range outs {
		out.SendJSON(msg)
	}
}
