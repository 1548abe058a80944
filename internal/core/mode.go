// Package core is the orchestration layer.  It turns a Config into a
// runnable Mode: build the dialer stack, reach the controller, hand the
// connection to a session.
//
// Layers (bottom → top):
//
//	transport  →  session  →  core  →  cmd (CLI)
package core

import "context"

// Mode is one complete way of running roverctl.  It owns its lifecycle
// from connection to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
