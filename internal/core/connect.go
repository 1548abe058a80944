package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	ncerr "roverctl/internal/errors"
	"roverctl/internal/command"
	"roverctl/internal/metrics"
	"roverctl/internal/retry"
	"roverctl/internal/session"
	"roverctl/internal/transport"
	"roverctl/util"
)

// ConnectMode dials the robot controller and runs one control session
// over the connection.
type ConnectMode struct {
	Dialer  transport.Dialer
	Network string
	Address string
	Logger  *util.Logger
	Metrics *metrics.Collector

	// Retry governs the dial only.  Nil means a single attempt.
	Retry *retry.Backoff

	Mapper       *command.Mapper
	Prompt       bool
	PromptParams bool

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ConnectMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ConnectMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run dials the controller, then blocks in the session until the
// operator quits, the link drops, or ctx is cancelled.  The dialer is
// closed when Run returns.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	conn, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}
	m.Logger.Info("connected to %s", conn.RemoteAddr())

	sess := session.New(session.Options{
		Conn:         conn,
		Input:        command.NewReader(m.stdin()),
		Out:          m.stdout(),
		Logger:       m.Logger,
		Metrics:      m.Metrics,
		Mapper:       m.Mapper,
		Prompt:       m.Prompt,
		PromptParams: m.PromptParams,
	})

	start := time.Now()
	err = sess.Run(ctx)
	m.Logger.Verbose("session ended after %s", time.Since(start).Round(time.Millisecond))
	if m.Metrics != nil && m.Logger.Level() >= util.LogDebug {
		m.Logger.Debug("session metrics: %s", m.Metrics.JSON())
	}
	return err
}

// dial reaches the controller, retrying failures that another attempt
// could fix.
func (m *ConnectMode) dial(ctx context.Context) (net.Conn, error) {
	b := m.Retry
	if b == nil {
		b = &retry.Backoff{}
	}
	if b.OnRetry == nil {
		b.OnRetry = func(attempt int, err error, wait time.Duration) {
			m.Logger.Warn("attempt %d: %v; retrying in %s", attempt, err, wait.Round(time.Millisecond))
		}
	}

	var conn net.Conn
	err := b.Do(ctx, func(attempt int) error {
		m.Logger.Verbose("connecting to %s (%s), attempt %d", m.Address, m.Network, attempt)
		c, err := m.Dialer.Dial(ctx, m.Network, m.Address)
		if err != nil {
			m.Metrics.RecordError(err.Error())
			if ctx.Err() != nil || !ncerr.IsRetryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}
