// Package tunnel reaches a robot that sits on a private network by
// forwarding the controller connection through an SSH jump host.
package tunnel

import (
	"context"
	"net"
)

// Tunnel carries connections to the robot's network through a gateway.
type Tunnel interface {
	// Connect opens the gateway session.
	Connect(ctx context.Context) error

	// Dial opens a connection to address on the far side of the gateway.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close tears down the gateway session and every forwarded
	// connection with it.
	Close() error

	// Alive reports whether the gateway session is still up.
	Alive() bool
}
