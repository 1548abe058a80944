// Package transport opens the byte stream to the robot controller.
// Dialers compose: a TLSDialer wraps a TCPDialer, or an SSHDialer when
// the robot is only reachable through a jump host.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases long-lived resources such as an SSH connection.
	// Stateless dialers return nil.
	Close() error
}
