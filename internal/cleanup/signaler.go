// Package cleanup implements the TCP distress signal sent to the
// supervising process when a channel decides its session has failed or
// gone stale.
//
// The connection is dialed once and held open for the life of the
// session; signaling writes a single byte on that persistent connection
// rather than dialing fresh each time, since the supervisor only needs
// to know that something went wrong, not why.
package cleanup

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// distressByte is the single byte written to request cleanup.
const distressByte = 0x01

// DefaultTimeout bounds how long Dial may block connecting to the
// supervisor, and how long a single Signal write may block.
const DefaultTimeout = 10 * time.Second

// ErrNotDialed describes a Signaler used before a successful Dial. Signal
// returns no error: it logs this condition and returns without writing.
var ErrNotDialed = errors.New("cleanup: signaler not connected")

// Signaler holds one TCP connection to a supervisor process, established
// up front by Dial and reused by every subsequent Signal call.
type Signaler struct {
	addr    string
	timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

// New returns a Signaler targeting 127.0.0.1:port. Dial must succeed
// before Signal can do anything.
func New(port uint16) *Signaler {
	return &Signaler{
		addr:    net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port))),
		timeout: DefaultTimeout,
	}
}

// Dial connects to the supervisor. It must be called before any UDP setup
// proceeds; a failure here fails the whole setup.
func (s *Signaler) Dial(ctx context.Context) error {
	dialer := net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return nil
}

// Signal writes the distress byte on the established connection. It is
// best-effort: a failed write is logged but never blocks the caller's
// own shutdown.
func (s *Signaler) Signal() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		log.Warn().Str("addr", s.addr).Msg("cleanup: signal attempted before dial")
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(s.timeout))
	if _, err := conn.Write([]byte{distressByte}); err != nil {
		log.Warn().Err(err).Str("addr", s.addr).Msg("cleanup: write failed")
	}
}

// Close closes the underlying connection. Idempotent.
func (s *Signaler) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
