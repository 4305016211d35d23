package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yourusername/goengine/internal/storage"
)

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Host           string        // Host to bind to (default "localhost")
	Port           int           // Port to listen on (default 8080)
	CORSOrigin     string        // Access-Control-Allow-Origin value (default "*")
	ReadTimeout    time.Duration // Read timeout (default 30s)
	WriteTimeout   time.Duration // Write timeout (default 30s)
	IdleTimeout    time.Duration // Idle timeout (default 60s)
	MaxFastWorkers int           // Max concurrent fast operations (default 100)
	MaxSlowWorkers int           // Max concurrent slow operations (default 4)
}

// DefaultConfig returns a ServerConfig with sensible defaults.
func DefaultConfig() ServerConfig {
	return ServerConfig{
		Host:           "localhost",
		Port:           8080,
		CORSOrigin:     "*",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxFastWorkers: 100,
		MaxSlowWorkers: 4,
	}
}

// Server is the HTTP API server.
type Server struct {
	config   ServerConfig
	handlers *Handlers
	pool     *WorkerPool
	server   *http.Server
	version  string
}

// NewServer creates a new API server. store may be nil to run without
// the game archive.
func NewServer(store *storage.Store, config ServerConfig, version string) *Server {
	pool := NewWorkerPool(PoolConfig{
		MaxFastWorkers: config.MaxFastWorkers,
		MaxSlowWorkers: config.MaxSlowWorkers,
	})
	return &Server{
		config:   config,
		handlers: NewHandlersWithPool(store, version, pool),
		pool:     pool,
		version:  version,
	}
}

// Pool returns the server's worker pool (for stats/monitoring).
func (s *Server) Pool() *WorkerPool {
	return s.pool
}

// Handlers returns the server's handlers.
func (s *Server) Handlers() *Handlers {
	return s.handlers
}

// corsMiddleware adds CORS headers to responses.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	origin := s.config.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handlers.Health)
		r.Get("/pool", s.handlers.Pool)

		r.Post("/new", s.handlers.NewGame)
		r.Post("/move", s.handlers.Move)
		r.Post("/pass", s.handlers.Pass)
		r.Post("/legal", s.handlers.Legal)
		r.Post("/score", s.handlers.Score)
		r.Post("/dead", s.handlers.Dead)
		r.Post("/sgf", s.handlers.SGF)
		r.Post("/load", s.handlers.Load)

		r.Get("/session/{id}", s.handlers.GetSession)
		r.Delete("/session/{id}", s.handlers.DeleteSession)

		r.Post("/games", s.handlers.SaveGame)
		r.Get("/games", s.handlers.ListGames)
		r.Get("/games/{id}", s.handlers.GetGame)
		r.Delete("/games/{id}", s.handlers.DeleteGame)
		r.Get("/games/{id}/replay", s.handlers.Replay)
		r.Get("/stats", s.handlers.Stats)

		r.Get("/ws", s.handlers.WebSocket)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	log.Printf("Starting Go engine API server v%s on %s", s.version, addr)
	log.Printf("Endpoints:")
	log.Printf("  GET    /api/health            - Health check")
	log.Printf("  GET    /api/pool              - Worker pool and cache stats")
	log.Printf("  POST   /api/new               - Start a game session")
	log.Printf("  POST   /api/move              - Play a move")
	log.Printf("  POST   /api/pass              - Pass")
	log.Printf("  POST   /api/legal             - Enumerate legal moves")
	log.Printf("  POST   /api/score             - Score a session")
	log.Printf("  POST   /api/dead              - Toggle a dead group")
	log.Printf("  POST   /api/sgf               - Export a session as SGF")
	log.Printf("  POST   /api/load              - Import SGF into a session")
	log.Printf("  GET    /api/session/{id}      - Session state")
	log.Printf("  DELETE /api/session/{id}      - Close a session")
	log.Printf("  POST   /api/games             - Archive a session")
	log.Printf("  GET    /api/games             - List archived games")
	log.Printf("  GET    /api/games/{id}        - Fetch an archived game")
	log.Printf("  DELETE /api/games/{id}        - Delete an archived game")
	log.Printf("  GET    /api/games/{id}/replay - Stream a replay (SSE)")
	log.Printf("  GET    /api/stats             - Archive statistics")
	log.Printf("  GET    /api/ws                - WebSocket endpoint")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ListenAndServeWithGracefulShutdown starts the server and handles
// graceful shutdown on SIGINT/SIGTERM.
func (s *Server) ListenAndServeWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		log.Println("Server stopped gracefully")
		return nil
	}
}
