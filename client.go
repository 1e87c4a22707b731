package main

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// outFrame is one queued websocket message
type outFrame struct {
	binary bool
	data   []byte
}

// Client is a WebSocket connection. Each text frame carries protocol lines.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan outFrame
	id         uint64
	remoteAddr string
	binState   bool // State goes out as binary msgpack frames
	limiter    rateLimiter
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, binState bool) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan outFrame, sendBufSize),
		remoteAddr: remoteAddr,
		binState:   binState,
	}
}

// SessionID returns the game session id assigned on connect
func (c *Client) SessionID() uint64 {
	return c.id
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("ws read failed", "session", c.id, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		// A frame normally holds one line, but tolerate several
		for _, line := range bytes.Split(message, []byte{'\n'}) {
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			if !c.limiter.allow(time.Now()) {
				log.Debug("rate limit exceeded, dropping", "session", c.id)
				continue
			}
			c.hub.HandleLine(c, line)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind := websocket.TextMessage
			if frame.binary {
				kind = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(kind, frame.data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("marshal failed", "error", err)
		return
	}
	c.enqueue(outFrame{data: data})
}

// SendState sends one tick's snapshot in the client's chosen encoding
func (c *Client) SendState(frame *StateFrame) {
	if c.binState {
		if packed := frame.MsgPack(); packed != nil {
			c.enqueue(outFrame{binary: true, data: packed})
			return
		}
	}
	c.enqueue(outFrame{data: frame.JSON})
}

func (c *Client) enqueue(f outFrame) {
	// send may already be closed by the hub
	defer func() { recover() }()
	select {
	case c.send <- f:
	default:
		// Client too slow, drop message
	}
}

// Close ends the outbound queue; WritePump then sends a close frame
func (c *Client) Close() {
	close(c.send)
}
