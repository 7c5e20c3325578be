// Package transport serves players over websockets and feeds their frames to
// the matchmaker.
package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Sanjana23-is/chess-multiplayer/internal/game"
	"github.com/Sanjana23-is/chess-multiplayer/internal/match"
)

// Handler receives connection lifecycle events and raw inbound frames.
// *match.Matchmaker implements it.
type Handler interface {
	Register(p *game.Participant)
	Handle(p *game.Participant, raw []byte)
	OnDisconnect(p *game.Participant)
}

type Config struct {
	// AllowedOrigins restricts the Origin header; empty accepts any origin.
	AllowedOrigins []string
	SendBuffer     int
	ReadLimit      int64
	PongWait       time.Duration
	WriteWait      time.Duration
}

func (c Config) pingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}

func DefaultConfig() Config {
	return Config{
		SendBuffer: 64,
		ReadLimit:  4096,
		PongWait:   60 * time.Second,
		WriteWait:  10 * time.Second,
	}
}

type Server struct {
	handler  Handler
	logger   *zap.Logger
	cfg      Config
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewServer(h Handler, logger *zap.Logger, cfg Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		handler: h,
		logger:  logger.Named("transport"),
		cfg:     cfg,
		clients: make(map[*client]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	return lo.Contains(s.cfg.AllowedOrigins, r.Header.Get("Origin"))
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade error", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}

	c := newClient(ws, s.cfg)
	p := game.NewParticipant(c)
	logger := s.logger.With(
		zap.String("participant", p.ID()),
		zap.String("remote", r.RemoteAddr))
	logger.Info("connection established")

	s.track(c)
	defer s.untrack(c)

	go c.writeLoop(logger)
	s.handler.Register(p)

	c.readLoop(func(raw []byte) {
		s.handler.Handle(p, raw)
	}, logger)

	s.handler.OnDisconnect(p)
	c.close()
	logger.Info("connection closed")
}

// Close disconnects every live client. Each one goes through the normal
// disconnect path, so running sessions are abandoned.
func (s *Server) Close() {
	s.mu.Lock()
	clients := lo.Keys(s.clients)
	s.mu.Unlock()

	for _, c := range clients {
		c.shutdown()
	}
}

func (s *Server) track(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *Server) untrack(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

type healthReport struct {
	Status string `json:"status"`
	match.Stats
}

// Health reports liveness along with matchmaker counters.
func Health(m *match.Matchmaker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(healthReport{Status: "ok", Stats: m.Stats()})
	})
}
