package transport

import (
	"context"
	"net"
	"time"

	ncerr "roverctl/internal/errors"
)

// TCPDialer establishes plain TCP connections.
type TCPDialer struct {
	Timeout time.Duration

	// KeepAlive is the TCP keepalive period; zero keeps the system
	// default and a negative value disables it.
	KeepAlive time.Duration
}

// Dial connects to address over TCP.  Failures come back as
// *errors.NetworkError so the caller can decide whether to retry.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout, KeepAlive: d.KeepAlive}
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, ncerr.Wrap("dial", address, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		// Commands are ten bytes; send them at once.
		_ = tc.SetNoDelay(true)
	}
	return conn, nil
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }
