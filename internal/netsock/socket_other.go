//go:build !unix

package netsock

import (
	"errors"
	"net"
	"time"
)

// setSockRecvTimeout has no portable equivalent outside unix; RecvFrom's
// per-call read deadline is the only timeout mechanism on this target.
func setSockRecvTimeout(conn *net.UDPConn, d time.Duration) error {
	return errors.New("netsock: SO_RCVTIMEO not supported on this platform")
}
