package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/blemap/internal/core/ports"
	"github.com/lcalzada-xor/blemap/internal/core/services/tracker"
)

// Server exposes the observability surface: prometheus metrics, the current
// resolved snapshot, the live session and a websocket tick feed.
type Server struct {
	Addr      string
	Tracker   *tracker.Tracker
	Storage   ports.Storage
	WSManager *WSManager

	srv *http.Server
}

// NewServer creates a new web server.
func NewServer(addr string, t *tracker.Tracker, storage ports.Storage) *Server {
	return &Server{
		Addr:      addr,
		Tracker:   t,
		Storage:   storage,
		WSManager: NewWSManager(t),
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/presence", s.handlePresence)
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("/ws", s.WSManager.HandleWebSocket)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// Run starts the server and the websocket broadcaster, and shuts both down
// when ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.WSManager.Start(ctx)

	instrumented := otelhttp.NewHandler(s.routes(), "blemap-server")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumented,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("Web server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web server shutdown error: %v", err)
		}
	}()

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Tracker.Snapshot())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.Storage.CurrentSession()
	if !ok {
		http.Error(w, "no active session", http.StatusNotFound)
		return
	}
	writeJSON(w, session)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
