package util

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
)

// IsClosed reports whether err is the ordinary end of a connection:
// EOF, a closed socket, or a peer's TLS close_notify.  Callers use it to
// tell a routine hang-up apart from a failure worth shouting about.
func IsClosed(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var alert tls.AlertError
	if errors.As(err, &alert) && alert == 0 { // close_notify
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
