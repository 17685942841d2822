// Package dashboard serves the schedule over HTTP and pushes change
// notifications to WebSocket clients.
//
// The JSON API reads from a data.Source. When the daemon finishes a sync or
// the snapshot file is replaced, connected clients receive a message telling
// them to refetch.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/confoo-planner/confoo/internal/confoo/data"
	"github.com/confoo-planner/confoo/internal/confoo/dayutil"
	"github.com/confoo-planner/confoo/internal/confoo/ratings"
	"github.com/confoo-planner/confoo/internal/metrics"
)

// MessageType defines the type of dashboard message
type MessageType string

const (
	// MessageTypeSnapshotUpdated indicates the snapshot file was replaced
	MessageTypeSnapshotUpdated MessageType = "snapshot_updated"

	// MessageTypeSyncComplete indicates a full sync completed
	MessageTypeSyncComplete MessageType = "sync_complete"

	// MessageTypeSyncFailed indicates a scheduled sync returned an error
	MessageTypeSyncFailed MessageType = "sync_failed"

	// MessageTypeStats carries schedule totals; sent on connect
	MessageTypeStats MessageType = "stats"
)

// Message represents a dashboard broadcast message
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// StatsData summarizes the schedule being served
type StatsData struct {
	Source   string `json:"source"`
	Sessions int    `json:"sessions"`
	Speakers int    `json:"speakers"`
	Days     int    `json:"days"`
	LastSync string `json:"last_sync"`
}

// Server manages WebSocket connections and serves the schedule API
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server

	sourceMu   sync.RWMutex
	source     data.Source
	sourceName string

	ratings map[string]ratings.Rating
	week    dayutil.Week

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *slog.Logger
}

// Config holds server configuration
type Config struct {
	// Addr to listen on (default ":8080"). Use "127.0.0.1:0" for a random port.
	Addr string

	// Source backs the JSON API.
	Source data.Source

	// SourceName is reported by /api/status.
	SourceName string

	// Ratings are attached to speakers when present.
	Ratings map[string]ratings.Rating

	// Week resolves ?day= and orders /api/days. Zero means dayutil.Conference.
	Week dayutil.Week

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Addr:   ":8080",
		Logger: slog.Default(),
	}
}

// NewServer creates a new dashboard server
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := config.Addr
	if addr == "" {
		addr = ":8080"
	}

	week := config.Week
	if week.Start.IsZero() {
		week = dayutil.Conference
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:       addr,
		source:     config.Source,
		sourceName: config.SourceName,
		ratings:    config.Ratings,
		week:       week,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan Message, 100),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger.With("component", "dashboard"),
	}
}

// Start begins the HTTP server and WebSocket handler
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("dashboard listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	return nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sessions", s.handleSessions)
	mux.HandleFunc("GET /api/sessions/{slug}", s.handleSession)
	mux.HandleFunc("GET /api/speakers", s.handleSpeakers)
	mux.HandleFunc("GET /api/speakers/{slug}", s.handleSpeaker)
	mux.HandleFunc("GET /api/days", s.handleDays)
	mux.HandleFunc("GET /api/tracks", s.handleTracks)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	return mux
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	s.logger.Info("stopping dashboard server")

	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(s.clients, conn)
	}
	metrics.DashboardClients.Set(0)
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	s.wg.Wait()

	s.logger.Info("dashboard server stopped")
	return nil
}

// SetSource swaps the source behind the API.
func (s *Server) SetSource(src data.Source, name string) {
	s.sourceMu.Lock()
	s.source = src
	s.sourceName = name
	s.sourceMu.Unlock()
}

func (s *Server) currentSource() (data.Source, string) {
	s.sourceMu.RLock()
	defer s.sourceMu.RUnlock()
	return s.source, s.sourceName
}

// Broadcast sends a message to all connected clients
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
		return
	default:
		s.logger.Warn("broadcast channel full, dropping message", "type", msg.Type)
	}
}

func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case msg := <-s.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}

			payload, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("failed to marshal message", "error", err)
				continue
			}

			s.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				clients = append(clients, conn)
			}
			s.clientsMu.RUnlock()

			for _, conn := range clients {
				ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, payload)
				cancel()

				if err != nil {
					s.logger.Debug("failed to send to client", "error", err)
					s.removeClient(conn)
				}
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	clientCount := len(s.clients)
	metrics.DashboardClients.Set(float64(clientCount))
	s.clientsMu.Unlock()

	s.logger.Debug("client connected", "clients", clientCount)

	welcome := Message{Type: MessageTypeStats, Timestamp: time.Now()}
	if stats, err := s.stats(s.ctx); err == nil {
		welcome.Data, _ = json.Marshal(stats)
	}
	payload, _ := json.Marshal(welcome)
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	_ = conn.Write(ctx, websocket.MessageText, payload)
	cancel()

	go s.readLoop(conn)
}

// readLoop holds the connection open until the client goes away. Client
// messages are ignored.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		if _, _, err := conn.Read(s.ctx); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; exists {
		delete(s.clients, conn)
		clientCount := len(s.clients)
		metrics.DashboardClients.Set(float64(clientCount))
		s.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Debug("client disconnected", "clients", clientCount)
	} else {
		s.clientsMu.Unlock()
	}
}

func (s *Server) stats(ctx context.Context) (*StatsData, error) {
	src, name := s.currentSource()
	if src == nil {
		return &StatsData{Source: name}, nil
	}
	sessions, err := src.SessionCount(ctx)
	if err != nil {
		return nil, err
	}
	speakers, err := src.Speakers(ctx)
	if err != nil {
		return nil, err
	}
	days, err := src.Days(ctx)
	if err != nil {
		return nil, err
	}
	last, err := src.LastSync(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsData{
		Source:   name,
		Sessions: sessions,
		Speakers: len(speakers),
		Days:     len(days),
		LastSync: last,
	}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>ConFoo Planner</title>
</head>
<body>
    <h1>ConFoo Planner</h1>
    <p>WebSocket endpoint: <code>ws://%s/ws</code></p>
    <p>Schedule: <a href="/api/sessions">/api/sessions</a>, <a href="/api/speakers">/api/speakers</a>, <a href="/api/events">/api/events</a></p>
    <p>Status: <a href="/api/status">/api/status</a>, <a href="/health">/health</a>, <a href="/metrics">/metrics</a></p>
</body>
</html>`, r.Host)
}

// GetAddr returns the server's listening address
func (s *Server) GetAddr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the current number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
