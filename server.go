// ABOUTME: Webhook relay that rebroadcasts mode changes to WebSocket watchers.
// ABOUTME: Accepts the daemon's form-encoded webhook and forwards it to all connected clients.

package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow connections from any origin
	},
}

// ClientInfo holds information about a connected watcher.
type ClientInfo struct {
	Name string

	// gorilla/websocket connections allow one concurrent writer.
	writeMu sync.Mutex
}

// RelayServer receives webhooks and broadcasts them to watchers.
type RelayServer struct {
	secret  string
	clients map[*websocket.Conn]*ClientInfo
	mu      sync.RWMutex

	lastMu sync.RWMutex
	last   *ModeEvent
}

// NewRelayServer creates a relay with the given authentication secret.
func NewRelayServer(secret string) *RelayServer {
	return &RelayServer{
		secret:  secret,
		clients: make(map[*websocket.Conn]*ClientInfo),
	}
}

// Handler routes the relay's endpoints.
func (s *RelayServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/hook", s.HandleHook)
	mux.HandleFunc("/ws", s.HandleWebSocket)
	mux.HandleFunc("/state", s.HandleState)
	return mux
}

// checkAuth accepts the secret as a bearer token or, for webhook senders that
// cannot set headers, as a token query parameter.
func (s *RelayServer) checkAuth(r *http.Request) bool {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ") == s.secret
	}
	return r.URL.Query().Get("token") == s.secret
}

// HandleHook accepts POST body=Dark|Light|ThemeTest.
func (s *RelayServer) HandleHook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	if !s.checkAuth(r) {
		logger.Warn().Str("remote", r.RemoteAddr).Msg("HandleHook: rejected unauthorized request")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	value := r.PostFormValue(webhookField)
	if value == webhookTestValue {
		_, _ = w.Write([]byte("ok: test received"))
		return
	}

	mode, err := ParseMode(value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ev := ModeEvent{
		ID:         uuid.NewString(),
		Mode:       mode,
		Source:     r.RemoteAddr,
		ReceivedAt: time.Now().UTC(),
	}

	s.lastMu.Lock()
	s.last = &ev
	s.lastMu.Unlock()

	logger.Info().Stringer("mode", mode).Str("remote", r.RemoteAddr).Msg("HandleHook: mode received")
	s.Broadcast(ev)

	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("ok"))
}

// HandleState returns the last received event.
func (s *RelayServer) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET required", http.StatusMethodNotAllowed)
		return
	}
	if !s.checkAuth(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	last := s.Last()
	if last == nil {
		http.Error(w, "no mode received yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(last)
}

// Last returns the most recent event, or nil.
func (s *RelayServer) Last() *ModeEvent {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.last == nil {
		return nil
	}
	ev := *s.last
	return &ev
}

// HandleWebSocket handles WebSocket connection upgrades.
func (s *RelayServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	clientInfo := &ClientInfo{Name: r.Header.Get("X-Client-Name")}

	s.mu.Lock()
	s.clients[conn] = clientInfo
	s.mu.Unlock()

	logger.Info().Str("client", clientInfo.Name).Int("total", s.ClientCount()).Msg("Watcher connected")

	// New watchers start from the current state
	if last := s.Last(); last != nil {
		if data, err := EncodeMessage(MessageTypeMode, last); err == nil {
			_ = s.send(conn, clientInfo, data)
		}
	}

	go s.handleClient(conn)
}

// handleClient reads until the watcher disconnects. Watchers send nothing.
func (s *RelayServer) handleClient(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		clientInfo := s.clients[conn]
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()

		name := ""
		if clientInfo != nil {
			name = clientInfo.Name
		}
		logger.Info().Str("client", name).Int("remaining", s.ClientCount()).Msg("Watcher disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *RelayServer) send(conn *websocket.Conn, info *ClientInfo, data []byte) error {
	info.writeMu.Lock()
	defer info.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Broadcast sends an event to all connected watchers.
func (s *RelayServer) Broadcast(ev ModeEvent) {
	data, err := EncodeMessage(MessageTypeMode, ev)
	if err != nil {
		logger.Error().Err(err).Msg("Broadcast: failed to encode mode message")
		return
	}

	s.mu.RLock()
	clients := make(map[*websocket.Conn]*ClientInfo, len(s.clients))
	for conn, info := range s.clients {
		clients[conn] = info
	}
	s.mu.RUnlock()

	successCount := 0
	for conn, info := range clients {
		if err := s.send(conn, info, data); err != nil {
			// Connection will be cleaned up by read loop
			logger.Debug().Err(err).Msg("Broadcast: failed to send to watcher")
			continue
		}
		successCount++
	}

	logger.Debug().Int("sent", successCount).Int("total", len(clients)).Msg("Broadcast done")
}

// ClientCount returns the number of connected watchers.
func (s *RelayServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// CloseAll disconnects every watcher. http.Server.Shutdown does not track
// hijacked connections, so the relay calls this on exit.
func (s *RelayServer) CloseAll() {
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		conn.Close()
	}
}
