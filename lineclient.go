package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/charmbracelet/log"
)

// LineClient is a raw TCP connection speaking newline-delimited JSON
type LineClient struct {
	hub        *Hub
	conn       net.Conn
	send       chan []byte
	id         uint64
	remoteAddr string
	limiter    rateLimiter
}

// NewLineClient creates a LineClient
func NewLineClient(hub *Hub, conn net.Conn, remoteAddr string) *LineClient {
	return &LineClient{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ServeLines accepts line clients on ln until ctx is cancelled
func (h *Hub) ServeLines(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn("accept failed", "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		h.acceptLine(conn)
	}
}

func (h *Hub) acceptLine(conn net.Conn) {
	ip := conn.RemoteAddr().String()
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if !h.CanAccept(ip) {
		log.Warn("rejecting connection", "ip", ip)
		conn.Close()
		return
	}
	h.TrackConnect(ip)

	c := NewLineClient(h, conn, ip)
	c.id = h.game.Connect(c)
	h.Register(c)

	go c.writeLoop()
	go c.readLoop()
}

// SessionID returns the game session id assigned on connect
func (c *LineClient) SessionID() uint64 {
	return c.id
}

// readLoop handles one line at a time; lines have no length limit
func (c *LineClient) readLoop() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.leave(c)
		c.conn.Close()
	}()

	r := bufio.NewReader(c.conn)
	for {
		line, err := r.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			if c.limiter.allow(time.Now()) {
				c.hub.HandleLine(c, line)
			} else {
				log.Debug("rate limit exceeded, dropping", "session", c.id)
			}
		}
		if err != nil {
			return
		}
	}
}

// writeLoop drains the queue, flushing whenever it runs empty
func (c *LineClient) writeLoop() {
	w := bufio.NewWriter(c.conn)
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		w.Write(msg)
		w.WriteByte('\n')
		if len(c.send) == 0 {
			if err := w.Flush(); err != nil {
				log.Debug("line write failed", "session", c.id, "error", err)
				return
			}
		}
	}
	w.Flush()
}

// SendJSON queues a message as one line
func (c *LineClient) SendJSON(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("marshal failed", "error", err)
		return
	}
	c.enqueue(data)
}

// SendState queues the snapshot line
func (c *LineClient) SendState(frame *StateFrame) {
	c.enqueue(frame.JSON)
}

func (c *LineClient) enqueue(data []byte) {
	// send may already be closed by the hub
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// Close ends the outbound queue; writeLoop flushes and closes the socket
func (c *LineClient) Close() {
	close(c.send)
}
