// Package web exposes the ingestion boundary, the live event stream, and
// the read API over HTTP.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/emiliopalmerini/agentpulse/internal/ingest"
	"github.com/emiliopalmerini/agentpulse/internal/live"
	"github.com/emiliopalmerini/agentpulse/internal/ports"
)

const defaultHeartbeat = 15 * time.Second

type Server struct {
	router      *http.ServeMux
	port        int
	ingestToken string
	heartbeat   time.Duration

	ingester    *ingest.Service
	hub         *live.Hub
	reads       ports.ReadStore
	pricingRepo ports.PricingRepository
}

func NewServer(
	port int,
	ingestToken string,
	ingester *ingest.Service,
	hub *live.Hub,
	reads ports.ReadStore,
	pricingRepo ports.PricingRepository,
) *Server {
	s := &Server{
		router:      http.NewServeMux(),
		port:        port,
		ingestToken: ingestToken,
		heartbeat:   defaultHeartbeat,
		ingester:    ingester,
		hub:         hub,
		reads:       reads,
		pricingRepo: pricingRepo,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Ingestion boundary
	s.router.HandleFunc("POST /api/events", s.requireToken(s.handleIngestEvent))

	// Live stream
	s.router.HandleFunc("GET /api/live", s.requireToken(s.handleLiveStream))

	// Read API
	s.router.HandleFunc("GET /api/stats", s.handleAPIStats)
	s.router.HandleFunc("GET /api/sessions", s.handleAPISessions)
	s.router.HandleFunc("GET /api/sessions/{id}", s.handleAPISessionDetail)
	s.router.HandleFunc("GET /api/daily", s.handleAPIDaily)
}

// Handler exposes the routing table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// Write timeouts would cut long-lived SSE connections; the stream
		// handler bounds itself via the request context instead.
		IdleTimeout: 60 * time.Second,
	}

	fmt.Printf("Starting server at http://localhost:%d\n", s.port)

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.Shutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Server shutdown error: %v\n", err)
		}
	}()

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil // Graceful shutdown
	}
	return err
}
