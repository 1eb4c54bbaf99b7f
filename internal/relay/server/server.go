package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"shadowbar/internal/logging"
)

// Config holds the relay's tunables. Zero values mean defaults.
type Config struct {
	// RequestTimeout bounds how long a pending entry may wait for its
	// terminal envelope before the sweeper evicts it.
	RequestTimeout time.Duration
	// SweepInterval is the pending-table sweep cadence.
	SweepInterval time.Duration
	// StaleAfter is the announce liveness window: an agent silent for longer
	// is evicted from the registry.
	StaleAfter time.Duration
	// StaleSweepInterval is the registry sweep cadence.
	StaleSweepInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 5 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Second
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 2 * time.Minute
	}
	if c.StaleSweepInterval <= 0 {
		c.StaleSweepInterval = 30 * time.Second
	}
	return c
}

// Server routes envelopes between announce, input and lookup sockets.
type Server struct {
	cfg      Config
	registry *Registry
	pending  *Pending
	upgrader websocket.Upgrader

	done chan struct{}
	once sync.Once
}

// New builds a relay and starts its sweep goroutine. Callers must Close it.
func New(cfg Config) *Server {
	s := &Server{
		cfg:      cfg.withDefaults(),
		registry: NewRegistry(),
		pending:  NewPending(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The relay serves non-browser clients; the Origin header
			// carries no meaning here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Close stops the sweepers. Open sockets terminate via their own read loops.
func (s *Server) Close() {
	s.once.Do(func() { close(s.done) })
}

// Handler returns the HTTP handler carrying all relay endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/announce", s.handleAnnounce)
	mux.HandleFunc("/ws/input", s.handleInput)
	mux.HandleFunc("/ws/lookup", s.handleLookup)
	mux.HandleFunc("/agents", s.handleAgents)
	mux.HandleFunc("/", s.handleStatus)
	return mux
}

// Run serves until ctx is cancelled, then shuts the listener down.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logging.Log.WithField("addr", addr).Info("relay listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) sweepLoop() {
	pendingTicker := time.NewTicker(s.cfg.SweepInterval)
	staleTicker := time.NewTicker(s.cfg.StaleSweepInterval)
	defer pendingTicker.Stop()
	defer staleTicker.Stop()

	for {
		select {
		case <-pendingTicker.C:
			if n := s.pending.Sweep(time.Now()); n > 0 {
				logging.Log.WithField("count", n).Debug("swept timed-out requests")
			}
		case <-staleTicker.C:
			if n := s.registry.SweepStale(s.cfg.StaleAfter); n > 0 {
				logging.Log.WithField("count", n).Info("evicted stale agents")
			}
		case <-s.done:
			return
		}
	}
}

// ---------- introspection ----------

type statusResponse struct {
	Service         string `json:"service"`
	AgentsOnline    int    `json:"agents_online"`
	PendingRequests int    `json:"pending_requests"`
}

type agentsResponse struct {
	Count  int         `json:"count"`
	Agents []AgentInfo `json:"agents"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, statusResponse{
		Service:         "shadowbar-relay",
		AgentsOnline:    s.registry.Len(),
		PendingRequests: s.pending.Len(),
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	agents := s.registry.Snapshot()
	writeJSON(w, agentsResponse{Count: len(agents), Agents: agents})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
