package control

import (
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sentinel-fabric/telemetry/internal/oplog"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/stats"
)

// acceptTimeout bounds each Accept so the loop observes the stop flag
// promptly.
const acceptTimeout = 100 * time.Millisecond

// Server hosts the control channel: one accept goroutine plus one goroutine
// per live client, each with its own framer and handler.
type Server struct {
	port   uint16
	stats  *stats.Aggregator
	logger *oplog.Logger
	crc    CRCPolicy

	listener *net.TCPListener
	running  atomic.Bool
	stopFlag atomic.Bool
	wg       sync.WaitGroup

	mu    sync.Mutex
	conns map[string]net.Conn
}

// NewServer builds a control server for port. The aggregator, logger, and
// CRC policy are shared with every per-connection handler.
func NewServer(port uint16, agg *stats.Aggregator, logger *oplog.Logger, crc CRCPolicy) *Server {
	return &Server{
		port:   port,
		stats:  agg,
		logger: logger,
		crc:    crc,
		conns:  make(map[string]net.Conn),
	}
}

// Start binds the listener and launches the accept loop.
func (s *Server) Start() error {
	if s.running.Load() {
		return nil
	}

	addr := &net.TCPAddr{Port: int(s.port)}
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return fmt.Errorf("control listen on port %d: %w", s.port, err)
	}
	s.listener = ln
	s.stopFlag.Store(false)
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	log.Printf("control server listening on %s", ln.Addr())
	return nil
}

// Port reports the bound port, useful when started with port 0.
func (s *Server) Port() uint16 {
	if s.listener == nil {
		return s.port
	}
	return uint16(s.listener.Addr().(*net.TCPAddr).Port)
}

// Running reports whether the server is accepting connections.
func (s *Server) Running() bool { return s.running.Load() }

// Stop shuts the listener and every live connection down, then waits for
// all workers to drain. Idempotent.
func (s *Server) Stop() {
	if !s.running.Load() {
		return
	}
	s.stopFlag.Store(true)

	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for _, c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.running.Store(false)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for !s.stopFlag.Load() {
		s.listener.SetDeadline(time.Now().Add(acceptTimeout))
		conn, err := s.listener.Accept()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return
		}

		id := uuid.NewString()
		s.mu.Lock()
		s.conns[id] = conn
		s.mu.Unlock()

		s.wg.Add(1)
		go s.clientLoop(id, conn)
	}
}

// clientLoop services one connection: feed the framer, answer each complete
// request in order, stop on EOF or error.
func (s *Server) clientLoop(id string, conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
	}()

	handler := NewHandler(s.stats, s.logger, s.crc)
	var framer Framer
	buf := make([]byte, 4096)

	for !s.stopFlag.Load() {
		conn.SetReadDeadline(time.Now().Add(acceptTimeout))
		n, err := conn.Read(buf)
		if n > 0 {
			framer.Feed(buf[:n])
			for framer.HasFrame() {
				reply := handler.Handle(string(framer.PopFrame()))
				if _, err := conn.Write(EncodeString(reply)); err != nil {
					return
				}
			}
		}
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return
		}
	}
}
