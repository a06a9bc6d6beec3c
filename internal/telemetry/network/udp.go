// Package network provides the datagram ingress and egress for telemetry
// frames: a bound UDP source with a bounded receive, and a connected-mode
// UDP sink.
package network

import (
	"fmt"
	"log"
	"net"
	"time"
)

// receiveTimeout bounds each read so the owning loop can observe its stop
// flag between timeouts.
const receiveTimeout = 100 * time.Millisecond

// UDPSource receives one telemetry frame per datagram.
type UDPSource struct {
	conn    *net.UDPConn
	timeout time.Duration
}

// ListenUDP binds a UDP source to port on all interfaces.
func ListenUDP(port uint16) (*UDPSource, error) {
	addr := &net.UDPAddr{Port: int(port)}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind udp port %d: %w", port, err)
	}
	// A generous kernel buffer absorbs sim bursts; failure is non-fatal.
	if err := conn.SetReadBuffer(1 << 20); err != nil {
		log.Printf("warning: failed to set UDP receive buffer: %v", err)
	}
	return &UDPSource{conn: conn, timeout: receiveTimeout}, nil
}

// SetTimeout overrides the per-receive deadline. Zero restores the default.
func (s *UDPSource) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = receiveTimeout
	}
	s.timeout = d
}

// LocalAddr reports the bound address.
func (s *UDPSource) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Receive reads one datagram into buf. ok is false on timeout or on a
// closed socket; timeouts carry no stats impact and the caller just loops.
func (s *UDPSource) Receive(buf []byte) (int, bool) {
	if s.conn == nil {
		return 0, false
	}
	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return 0, false
	}
	n, _, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return 0, false
		}
		return 0, false
	}
	return n, true
}

// Close shuts the socket down, unblocking any in-flight Receive.
func (s *UDPSource) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// UDPSink sends telemetry frames to one fixed destination. Connecting the
// socket pins the destination so Send needs no per-call address.
type UDPSink struct {
	conn *net.UDPConn
}

// DialUDP connects a sink to host:port.
func DialUDP(host string, port uint16) (*UDPSink, error) {
	raddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("resolve %s:%d: %w", host, port, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s:%d: %w", host, port, err)
	}
	return &UDPSink{conn: conn}, nil
}

// Send writes one frame as a single datagram.
func (s *UDPSink) Send(frame []byte) bool {
	if s.conn == nil || len(frame) == 0 {
		return false
	}
	n, err := s.conn.Write(frame)
	return err == nil && n == len(frame)
}

// Close releases the socket.
func (s *UDPSink) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
