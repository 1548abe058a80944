package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"roverctl/internal/transport"
)

// DryRunMode prints the resolved target and exits without dialing.
type DryRunMode struct {
	Dialer  transport.Dialer
	Address string
	Summary []string
	Out     io.Writer // os.Stdout when nil
}

// Run prints the summary and releases the dialer.
func (m *DryRunMode) Run(_ context.Context) error {
	defer m.Dialer.Close()

	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	for _, line := range m.Summary {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
