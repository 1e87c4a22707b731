package main

import "fmt"

// Session is one connected client as the game sees it. It exists from
// connect to disconnect; Joined flips once the client has a player.
type Session struct {
	ID        uint64
	Out       Broadcaster
	Name      string
	Joined    bool
	AccountID int64 // 0 for guests
}

// DisplayName returns the joined name, or a placeholder before join
func (s *Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("Player%d", s.ID)
}

// sessionSet is the registry of connected sessions, keyed by session id.
// Guarded by Game.mu.
type sessionSet map[uint64]*Session

// outs copies the broadcasters so sends can happen outside the lock
func (ss sessionSet) outs() []Broadcaster {
	list := make([]Broadcaster, 0, len(ss))
	for _, s := range ss {
		list = append(list, s.Out)
	}
	return list
}
