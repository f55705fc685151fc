//go:build unix

package netsock

import (
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// setSockRecvTimeout installs SO_RCVTIMEO directly at microsecond
// granularity. Go's runtime poller governs actual blocking behavior
// through SetReadDeadline regardless of this socket option, so in
// practice it changes nothing observable; it is set anyway for parity
// with environments that expect the option to reflect the configured
// timeout. It is best-effort: SetTimeout ignores a non-nil return and
// relies on the read-deadline fallback regardless.
func setSockRecvTimeout(conn *net.UDPConn, d time.Duration) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	tv := unix.NsecToTimeval(d.Nanoseconds())
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptTimeval(int(fd), unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
	})
	if err != nil {
		return err
	}
	return sockErr
}
