// Package netsock is the UDP socket facade: create, bind/resolve,
// timeout-configure and close one AF_INET UDP endpoint.
//
// Host resolution takes a literal-IPv4 fast path, then falls back to DNS
// resolution preferring an IPv4 result.
package netsock

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// ErrClosed is returned by operations attempted after Close.
var ErrClosed = errors.New("netsock: socket is closed")

// Socket wraps one UDP endpoint, server-bound or client-resolved. conn is
// guarded by mu so Close can invalidate the descriptor while RecvFrom or
// SendTo are in flight on another goroutine without racing on the field.
type Socket struct {
	mu       sync.Mutex
	conn     *net.UDPConn
	isServer bool
	remote   *net.UDPAddr
	timeout  time.Duration
}

// Bind creates a UDP endpoint listening on INADDR_ANY:port (server mode).
func Bind(port uint16) (*Socket, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: int(port)})
	if err != nil {
		return nil, fmt.Errorf("netsock: bind failed: %w", err)
	}
	return &Socket{conn: conn, isServer: true}, nil
}

// Connect creates a UDP endpoint and resolves host:port as the remote peer
// (client mode). No packets are exchanged yet.
func Connect(host string, port uint16) (*Socket, error) {
	remoteIP, err := resolveIPv4(host)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("netsock: socket creation failed: %w", err)
	}
	return &Socket{
		conn:   conn,
		remote: &net.UDPAddr{IP: remoteIP, Port: int(port)},
	}, nil
}

// resolveIPv4 resolves host either as a literal IPv4 address or via name
// resolution, preferring an IPv4 result.
func resolveIPv4(host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
		return nil, fmt.Errorf("netsock: %q is not an IPv4 address", host)
	}
	ips, err := net.LookupIP(host)
	if err != nil || len(ips) == 0 {
		return nil, fmt.Errorf("netsock: resolve host %q: %w", host, err)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, fmt.Errorf("netsock: host %q has no IPv4 address", host)
}

// SetTimeout applies the receive timeout. Always valid on an open socket.
//
// On unix build targets the timeout is additionally installed at the
// socket-option level (SO_RCVTIMEO); RecvFrom still arms a per-call read
// deadline from the stored value, since that is the portable mechanism and
// the only one available on non-unix targets. The socket-option call is
// best-effort: a failure there is not surfaced, the deadline still governs.
func (s *Socket) SetTimeout(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrClosed
	}
	s.timeout = d
	_ = setSockRecvTimeout(s.conn, d)
	return nil
}

// Remote returns the currently configured remote peer address, if any.
func (s *Socket) Remote() *net.UDPAddr {
	return s.remote
}

// SetRemote replaces the stored remote address, e.g. after observing the
// peer's actual source address during handshake.
func (s *Socket) SetRemote(addr *net.UDPAddr) {
	s.remote = addr
}

// IsServer reports whether this socket was created with Bind.
func (s *Socket) IsServer() bool {
	return s.isServer
}

// LocalAddr returns the socket's bound local address, useful when Bind
// was called with port 0 and the OS assigned an ephemeral port.
func (s *Socket) LocalAddr() *net.UDPAddr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// SendTo writes b to addr.
func (s *Socket) SendTo(b []byte, addr *net.UDPAddr) (int, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return 0, ErrClosed
	}
	return conn.WriteToUDP(b, addr)
}

// SendToRemote writes b to the stored remote address.
func (s *Socket) SendToRemote(b []byte) (int, error) {
	if s.remote == nil {
		return 0, errors.New("netsock: no remote address set")
	}
	return s.SendTo(b, s.remote)
}

// RecvFrom blocks (up to the configured timeout) for one datagram into buf.
// A timeout is reported through err satisfying net.Error.Timeout(), which
// callers must treat as a non-fatal empty result, not a transport failure.
func (s *Socket) RecvFrom(buf []byte) (int, *net.UDPAddr, error) {
	s.mu.Lock()
	conn := s.conn
	timeout := s.timeout
	s.mu.Unlock()
	if conn == nil {
		return 0, nil, ErrClosed
	}
	if timeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return 0, nil, fmt.Errorf("netsock: set read deadline: %w", err)
		}
	}
	return conn.ReadFromUDP(buf)
}

// Close is idempotent; it is safe to call from any state.
func (s *Socket) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
