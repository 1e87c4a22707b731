package main

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	maxConnsPerIP     = 5
	maxTotalConns     = 1000
	maxMessagesPerSec = 200 // well above a client sending Input every 16ms
	sendBufSize       = 256
)

// Conn is a transport connection as seen by the hub
type Conn interface {
	Broadcaster
	SessionID() uint64
	// Close stops the connection's outbound queue. Called exactly once, by the hub.
	Close()
}

// Hub tracks live connections for both transports and routes their
// inbound lines to the game
type Hub struct {
	game *Game
	auth *Auth // nil when accounts are disabled

	mu         sync.RWMutex
	conns      map[Conn]bool
	unregister chan Conn
	done       chan struct{} // closed when Run returns

	// Connection limiting (mutex-protected, accessed from accept loops)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
}

// NewHub creates a hub in front of game. auth may be nil.
func NewHub(game *Game, auth *Auth) *Hub {
	return &Hub{
		game:       game,
		auth:       auth,
		conns:      make(map[Conn]bool),
		unregister: make(chan Conn, 64),
		done:       make(chan struct{}),
		ipConns:    make(map[string]int),
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Register adds a connection whose session is already open in the game
func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
	log.Info("client connected", "session", c.SessionID())
}

// Run processes unregister events until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.unregister:
			h.drop(c)
		case <-ctx.Done():
			return
		}
	}
}

// leave queues c for removal. Once Run has stopped nobody drains the
// queue, so it gives up instead of blocking.
func (h *Hub) leave(c Conn) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) drop(c Conn) {
	h.mu.Lock()
	_, ok := h.conns[c]
	delete(h.conns, c)
	h.mu.Unlock()
	if !ok {
		return
	}
	// Leave the game first so no further broadcasts target c
	h.game.Disconnect(c.SessionID())
	c.Close()
	log.Info("client disconnected", "session", c.SessionID())
}

// HandleLine decodes one inbound protocol line and applies it. Malformed
// lines are dropped; the connection stays open.
func (h *Hub) HandleLine(c Conn, line []byte) {
	env, err := DecodeLine(line)
	if err != nil {
		log.Debug("discarding malformed line", "session", c.SessionID(), "error", err)
		return
	}
	id := c.SessionID()

	switch {
	case env.Join != nil:
		name, accountID := env.Join.Name, int64(0)
		if h.auth != nil {
			name, accountID = h.auth.ResolveName(env.Join.Name, env.Join.Token)
		}
		h.game.Join(id, name, accountID)
	case env.Input != nil:
		h.game.HandleInput(id, *env.Input)
	case env.Chat != nil:
		h.game.Chat(id, env.Chat.Text)
	case env.Ping != nil:
		c.SendJSON(Envelope{Pong: &PongMsg{Nonce: env.Ping.Nonce}})
	}
}

// ConnCount returns the number of registered connections
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}

// rateLimiter counts inbound messages per one-second window
type rateLimiter struct {
	count   int
	resetAt time.Time
}

// allow reports whether one more message fits in the current window
func (r *rateLimiter) allow(now time.Time) bool {
	if now.After(r.resetAt) {
		r.count = 0
		r.resetAt = now.Add(time.Second)
	}
	r.count++
	return r.count <= maxMessagesPerSec
}
