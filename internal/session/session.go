// Package session runs one control session against a connected robot.
//
// A session owns the connection and a liveness flag.  Two goroutines
// share them: the inbound loop reads and displays packets, the outbound
// loop turns operator input into commands.  They exchange no data; the
// flag is the only state either of them changes, and once it goes false
// it stays false.  Shutdown is cooperative: a loop parked in a read
// notices the flag only after that read returns.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"roverctl/internal/command"
	"roverctl/internal/dispatch"
	"roverctl/internal/metrics"
	"roverctl/internal/protocol"
	"roverctl/util"
)

// Options configures a Session.  Conn and Input are required.
type Options struct {
	Conn    net.Conn
	Input   *command.Reader
	Out     io.Writer // operator display; os.Stdout when nil
	Logger  *util.Logger
	Metrics *metrics.Collector
	Mapper  *command.Mapper

	// Prompt prints the command menu before every read; set it when
	// input comes from a terminal.
	Prompt bool

	// PromptParams asks for distance/angle and power after each movement
	// command instead of sending the defaults.
	PromptParams bool
}

// Session encapsulates the runtime state of a single connection.
type Session struct {
	conn    net.Conn
	input   *command.Reader
	out     io.Writer
	logger  *util.Logger
	metrics *metrics.Collector
	mapper  *command.Mapper
	disp    *dispatch.Dispatcher

	prompt       bool
	promptParams bool

	live      *Liveness
	closeOnce sync.Once
}

// New creates a Session bound to the given connection and input.  The
// session is alive from the moment it is created.
func New(opts Options) *Session {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	// Both loops print to out.
	out = zerolog.SyncWriter(out)
	logger := opts.Logger
	if logger == nil {
		logger = util.NewLogger(0)
	}
	mapper := opts.Mapper
	if mapper == nil {
		mapper = &command.Mapper{Defaults: DefaultDrive}
	}
	return &Session{
		conn:         opts.Conn,
		input:        opts.Input,
		out:          out,
		logger:       logger,
		metrics:      opts.Metrics,
		mapper:       mapper,
		disp:         dispatch.New(out, logger, opts.Metrics),
		prompt:       opts.Prompt,
		promptParams: opts.PromptParams,
		live:         NewLiveness(),
	}
}

// DefaultDrive is used when Options.Mapper is nil.
var DefaultDrive = command.Drive{Distance: 5, Power: 50, Angle: 90, TurnPower: 100}

// Alive reports whether the connection is still usable.
func (s *Session) Alive() bool { return s.live.Alive() }

// Run starts the inbound and outbound loops and blocks until both have
// finished.  If ctx is cancelled first the session is shut down and Run
// returns ctx.Err() as soon as the inbound loop is gone, without waiting
// for the outbound loop to come back from operator input.
func (s *Session) Run(ctx context.Context) error {
	var g errgroup.Group
	inDone := make(chan struct{})

	g.Go(func() error {
		defer close(inDone)
		s.inbound()
		return nil
	})
	g.Go(s.outbound)

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		s.logger.Verbose("session interrupted")
		s.shutdown()
		<-inDone
		return ctx.Err()
	}
}

// ── inbound ──────────────────────────────────────────────────────────

func (s *Session) inbound() {
	buf := make([]byte, protocol.ReadBufferSize)

	for s.live.Alive() {
		n, err := s.conn.Read(buf)
		s.logger.Debug("read %d bytes from controller", n)

		if n > 0 {
			s.metrics.PacketReceived(n)
			s.disp.Handle(buf[:n])
		}
		if err != nil || n <= 0 {
			s.readFailed(err)
		}
	}

	fmt.Fprintln(s.out, "network listener exiting")
	s.shutdown()
}

func (s *Session) readFailed(err error) {
	wasAlive := s.live.Kill()
	switch {
	case !wasAlive:
		// The other loop already stopped the session.
	case err == nil:
		s.logger.Warn("read returned no data; treating connection as dead")
	case util.IsClosed(err):
		s.logger.Verbose("connection closed by controller")
	default:
		s.metrics.RecordError(err.Error())
		s.logger.Warn("read: %v", err)
	}
}

// ── outbound ─────────────────────────────────────────────────────────

func (s *Session) outbound() error {
	defer func() {
		fmt.Fprintln(s.out, "keyboard loop exiting")
		s.shutdown()
	}()

	for s.live.Alive() {
		if s.prompt {
			fmt.Fprint(s.out, command.Prompt)
		}

		line, err := s.input.ReadCommand()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Verbose("operator input closed")
				return nil
			}
			return fmt.Errorf("operator input: %w", err)
		}

		intent, err := s.mapper.Map(line)
		if err != nil {
			s.metrics.Rejected()
			fmt.Fprintln(s.out, "BAD COMMAND")
			continue
		}
		if intent.Quit {
			s.logger.Verbose("quit requested")
			return nil
		}

		if k := command.Classify(line.Char); s.promptParams && (k == command.KindMove || k == command.KindTurn) {
			if intent, err = s.askParams(line.Char, intent); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				s.metrics.Rejected()
				fmt.Fprintln(s.out, "BAD PARAMETERS")
				continue
			}
		}

		s.send(intent.Encode())
	}
	return nil
}

func (s *Session) askParams(ch byte, intent command.Intent) (command.Intent, error) {
	fmt.Fprint(s.out, command.ParamsPrompt(ch))
	p0, p1, err := s.input.ReadParams()
	if err != nil {
		return intent, err
	}
	return intent.WithParams(p0, p1), nil
}

// send writes one packet if the session is still alive.  A failed or
// short write kills the session.
func (s *Session) send(pkt []byte) {
	if !s.live.Alive() {
		s.logger.Verbose("connection is down; not sending")
		return
	}

	s.logger.Verbose("sending %d bytes", len(pkt))
	n, err := s.conn.Write(pkt)
	if err != nil || n < len(pkt) {
		if !s.live.Kill() {
			return
		}
		switch {
		case err == nil:
			s.metrics.RecordError(fmt.Sprintf("short write: %d of %d bytes", n, len(pkt)))
			s.logger.Warn("short write: %d of %d bytes; treating connection as dead", n, len(pkt))
		case !util.IsClosed(err):
			s.metrics.RecordError(fmt.Sprintf("write: %v", err))
			s.logger.Warn("write failed after %d of %d bytes: %v", n, len(pkt), err)
		}
		return
	}
	s.metrics.PacketSent(n)
}

// ── shutdown ─────────────────────────────────────────────────────────

// shutdown marks the session dead and closes the connection.  Both loops
// call it on the way out; only the first call closes.
func (s *Session) shutdown() {
	s.live.Kill()
	s.closeOnce.Do(func() {
		if err := s.conn.Close(); err != nil && !util.IsClosed(err) {
			s.logger.Debug("close: %v", err)
		}
	})
}
