package main

import (
	"encoding/json"
	"errors"
	"math"
)

// Server -> Client greeting sent right after accept
const welcomeText = "Welcome to asteroids-server"

// Envelope wraps every outgoing message. Exactly one field is set, which
// serializes as {"Variant":{...}}.
type Envelope struct {
	Welcome *WelcomeMsg `json:"Welcome,omitempty"`
	State   *StateMsg   `json:"State,omitempty"`
	Chat    *ChatOutMsg `json:"Chat,omitempty"`
	System  *SystemMsg  `json:"System,omitempty"`
	Pong    *PongMsg    `json:"Pong,omitempty"`
}

// InEnvelope is the decoded form of one inbound line
type InEnvelope struct {
	Join  *JoinMsg   `json:"Join"`
	Input *InputMsg  `json:"Input"`
	Chat  *ChatInMsg `json:"Chat"`
	Ping  *PingMsg   `json:"Ping"`
}

var errMalformed = errors.New("malformed message")

// DecodeLine parses one inbound protocol line. Lines naming zero or more
// than one variant are rejected.
func DecodeLine(line []byte) (InEnvelope, error) {
	var env InEnvelope
	if err := json.Unmarshal(line, &env); err != nil {
		return InEnvelope{}, err
	}
	n := 0
	if env.Join != nil {
		n++
	}
	if env.Input != nil {
		n++
	}
	if env.Chat != nil {
		n++
	}
	if env.Ping != nil {
		n++
	}
	if n != 1 {
		return InEnvelope{}, errMalformed
	}
	return env, nil
}

// JoinMsg binds a display name to the connection
type JoinMsg struct {
	Name  string `json:"name"`
	Token string `json:"token,omitempty"`
}

// InputMsg is the latest control state; it replaces the previous one
type InputMsg struct {
	Thrust      bool     `json:"thrust"`
	Rotate      int      `json:"rotate"`
	Fire        bool     `json:"fire"`
	TargetAngle *float64 `json:"target_angle,omitempty"`
}

// Sanitized clamps rotate to its sign and drops a non-finite target angle
func (in InputMsg) Sanitized() InputMsg {
	switch {
	case in.Rotate > 0:
		in.Rotate = 1
	case in.Rotate < 0:
		in.Rotate = -1
	}
	if in.TargetAngle != nil && (math.IsNaN(*in.TargetAngle) || math.IsInf(*in.TargetAngle, 0)) {
		in.TargetAngle = nil
	}
	return in
}

type ChatInMsg struct {
	Text string `json:"text"`
}

type PingMsg struct {
	Nonce uint64 `json:"nonce"`
}

// WelcomeMsg carries the id assigned on connect
type WelcomeMsg struct {
	ID     uint64 `json:"id"`
	TickHz uint32 `json:"tick_hz"`
}

type ChatOutMsg struct {
	From string `json:"from"`
	Text string `json:"text"`
}

type SystemMsg struct {
	Text string `json:"text"`
}

type PongMsg struct {
	Nonce uint64 `json:"nonce"`
}

// StateMsg is the full per-tick snapshot
type StateMsg struct {
	Players   []PlayerState   `json:"players"`
	Asteroids []AsteroidState `json:"asteroids"`
	Bullets   []BulletState   `json:"bullets"`
	PowerUps  []PowerUpState  `json:"power_ups"`
	Wave      *WaveInfo       `json:"wave"`
}

// EffectsState holds remaining seconds per effect, null when inactive
type EffectsState struct {
	Shield     *float64 `json:"shield_remaining"`
	RapidFire  *float64 `json:"rapid_fire_remaining"`
	TripleShot *float64 `json:"triple_shot_remaining"`
	SpeedBoost *float64 `json:"speed_boost_remaining"`
	Invincible *float64 `json:"invincible_remaining"`
}

// PlayerState is broadcast per player each tick
type PlayerState struct {
	ID           uint64       `json:"id"`
	Name         string       `json:"name"`
	Pos          Vec2         `json:"pos"`
	Vel          Vec2         `json:"vel"`
	Angle        float64      `json:"angle"`
	Alive        bool         `json:"alive"`
	Score        uint32       `json:"score"`
	Combo        uint32       `json:"combo"`
	KillStreak   uint32       `json:"kill_streak"`
	RespawnTimer *float64     `json:"respawn_timer"`
	Effects      EffectsState `json:"effects"`
}

// AsteroidState is broadcast per asteroid
type AsteroidState struct {
	ID   uint64 `json:"id"`
	Pos  Vec2   `json:"pos"`
	Vel  Vec2   `json:"vel"`
	Size uint8  `json:"size"`
}

// BulletState is broadcast per bullet
type BulletState struct {
	ID      uint64 `json:"id"`
	OwnerID uint64 `json:"owner_id"`
	Pos     Vec2   `json:"pos"`
	Vel     Vec2   `json:"vel"`
}

// PowerUpState is broadcast per power-up
type PowerUpState struct {
	ID   uint64      `json:"id"`
	Pos  Vec2        `json:"pos"`
	Kind PowerUpKind `json:"kind"`
}

// WaveInfo summarizes wave progress
type WaveInfo struct {
	WaveNumber         uint32   `json:"wave_number"`
	AsteroidsRemaining uint32   `json:"asteroids_remaining"`
	Countdown          *float64 `json:"countdown"`
}
