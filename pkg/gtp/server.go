package gtp

import (
	"fmt"
	"net"
	"sync"

	"github.com/yourusername/goengine/pkg/game"
)

// Options configures the GTP server and the sessions it hands out.
type Options struct {
	Port      int     // TCP port to listen on
	Name      string  // Engine name reported by the name command
	Version   string  // Version reported by the version command
	BoardSize int     // Board size sessions start with
	Komi      float64 // Komi sessions start with
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Port:      1234,
		Name:      "goengine",
		Version:   "1.0",
		BoardSize: 19,
		Komi:      game.DefaultKomi,
	}
}

// Server accepts TCP connections and runs an independent GTP session
// for each client.
type Server struct {
	listener net.Listener
	mu       sync.Mutex
	running  bool
	options  Options
}

// NewServer creates a GTP server.
func NewServer(opts Options) *Server {
	return &Server{options: opts}
}

// Start begins listening for connections.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	addr := fmt.Sprintf(":%d", s.options.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.running = true

	go s.acceptLoop()

	return nil
}

// Stop stops the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()
			if !running {
				return // Server stopped
			}
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection runs one client's session to completion.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	session, err := NewSession(s.options)
	if err != nil {
		return
	}
	session.Serve(conn, conn)
}
