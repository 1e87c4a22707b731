package main

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
)

const (
	maxScoreLimit = 100
	qrSize        = 256
	maxAuthBody   = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"player_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("write response", "error", err)
	}
}

// SetupRoutes configures HTTP routes. db, auth and analytics may be nil;
// the endpoints that need them then answer 503.
func SetupRoutes(hub *Hub, db *DB, auth *Auth, analytics *Analytics) *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket endpoint; ?enc=msgpack selects binary State frames
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("upgrade failed", "ip", ip, "error", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip, r.URL.Query().Get("enc") == "msgpack")
		client.id = hub.game.Connect(client)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{
			"sessions": hub.game.SessionCount(),
			"players":  hub.game.PlayerCount(),
			"conns":    hub.TotalConns(),
		})
	})

	mux.HandleFunc("GET /qr.png", func(w http.ResponseWriter, r *http.Request) {
		scheme := "ws"
		if r.TLS != nil {
			scheme = "wss"
		}
		target := scheme + "://" + r.Host + "/ws"
		png, err := qrcode.Encode(target, qrcode.Medium, qrSize)
		if err != nil {
			log.Error("qr encode failed", "error", err)
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	})

	mux.HandleFunc("GET /api/scores", func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{"leaderboard disabled"})
			return
		}
		limit := defaultScoreLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				writeJSON(w, http.StatusBadRequest, errorResponse{"limit must be a positive integer"})
				return
			}
			limit = min(n, maxScoreLimit)
		}
		scores, err := db.TopScores(limit)
		if err != nil {
			log.Error("top scores", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{"internal error"})
			return
		}
		writeJSON(w, http.StatusOK, scores)
	})

	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		days := 7
		if s := r.URL.Query().Get("days"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				days = n
			}
		}
		counts, err := analytics.EventCounts(days)
		if err != nil {
			log.Error("event counts", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{"internal error"})
			return
		}
		writeJSON(w, http.StatusOK, counts)
	})

	mux.HandleFunc("POST /api/register", func(w http.ResponseWriter, r *http.Request) {
		if auth == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{"accounts disabled"})
			return
		}
		var req credentials
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBody)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{"invalid request"})
			return
		}
		id, token, err := auth.Register(req.Username, req.Password)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, authResponse{Token: token, Username: strings.TrimSpace(req.Username), PlayerID: id})
	})

	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		if auth == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{"accounts disabled"})
			return
		}
		var req credentials
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBody)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{"invalid request"})
			return
		}
		id, username, token, err := auth.Login(req.Username, req.Password, extractIP(r))
		if err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, authResponse{Token: token, Username: username, PlayerID: id})
	})

	return mux
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUsernameTaken):
		writeJSON(w, http.StatusConflict, errorResponse{err.Error()})
	case errors.Is(err, ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{err.Error()})
	case errors.Is(err, ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{err.Error()})
	case errors.Is(err, ErrBadUsername), errors.Is(err, ErrBadPassword):
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
	default:
		log.Error("auth failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{"internal error"})
	}
}
