// Package cmd wires up the CLI flags and runs the selected mode.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"roverctl/config"
	"roverctl/internal/core"
	"roverctl/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X roverctl/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// ErrUsage is returned when the positional arguments are wrong.
var ErrUsage = errors.New("expected exactly two arguments: <host> <port>")

// cliOptions are flags that do not live in config.Config.
type cliOptions struct {
	configPath  string
	dryRun      bool
	showVersion bool
	showHelp    bool
}

// Execute parses args and runs roverctl against the process's standard
// streams.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	// ── pass 1: meta flags and positionals ───────────────────────
	var opts cliOptions
	fs := newFlagSet(config.Defaults(), &opts)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.showHelp {
		printUsage(stderr, fs)
		return nil
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "roverctl %s\n", version)
		return nil
	}
	if fs.NArg() != 2 {
		printUsage(stderr, fs)
		return ErrUsage
	}

	// ── layers: defaults < file < env < flags ────────────────────
	cfg, err := load(args, opts, fs.Changed("config"))
	if err != nil {
		return err
	}

	cfg.Host = fs.Arg(0)
	if cfg.Port, err = config.ParsePort(fs.Arg(1)); err != nil {
		return fmt.Errorf("port: %w", err)
	}
	cfg.DryRun = opts.dryRun
	cfg.Prompt = isTerminal(stdin)

	if err := cfg.Resolve(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── build and run ────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	logger.SetOutput(stderr)
	if cfg.Timestamps {
		logger.SetTimestamps(true)
	}

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	switch m := mode.(type) {
	case *core.ConnectMode:
		m.Stdin, m.Stdout = stdin, stdout
	case *core.DryRunMode:
		m.Out = stdout
	}
	return mode.Run(ctx)
}

// load builds the configuration from defaults, the config file, the
// environment and finally the flags present in args.
func load(args []string, opts cliOptions, pathFromFlag bool) (*config.Config, error) {
	cfg := config.Defaults()

	path := opts.configPath
	if !pathFromFlag {
		path = os.Getenv(config.ConfigPathEnv)
	}
	if path != "" {
		if err := config.LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := config.LoadFromEnv(cfg); err != nil {
		return nil, err
	}

	// Re-parse onto the layered config: only flags that appear in args
	// change it.  CountVar resets its target, so restore -v if absent.
	verbose := cfg.Verbose
	var ignored cliOptions
	fs := newFlagSet(cfg, &ignored)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if !fs.Changed("verbose") {
		cfg.Verbose = verbose
	}
	return cfg, nil
}

// newFlagSet binds every flag to cfg, using cfg's current values as the
// defaults.
func newFlagSet(cfg *config.Config, opts *cliOptions) *flag.FlagSet {
	fs := flag.NewFlagSet("roverctl", flag.ContinueOnError)
	fs.SortFlags = false

	// ── connection ───────────────────────────────────────────────
	fs.BoolVarP(&cfg.NoDNS, "no-dns", "n", cfg.NoDNS, "Numeric-only host, no DNS resolution")
	fs.DurationVarP(&cfg.Timeout, "timeout", "w", cfg.Timeout, "Dial and handshake timeout")
	fs.IntVar(&cfg.Retries, "retries", cfg.Retries, "Retry a refused or timed-out dial this many times")
	fs.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "Wait before the first retry (doubles each time)")

	// ── TLS ──────────────────────────────────────────────────────
	fs.StringVar(&cfg.TLS.CAFile, "tls-ca", cfg.TLS.CAFile, "CA bundle for the controller certificate")
	fs.StringVar(&cfg.TLS.CertFile, "tls-cert", cfg.TLS.CertFile, "Client certificate for mutual TLS")
	fs.StringVar(&cfg.TLS.KeyFile, "tls-key", cfg.TLS.KeyFile, "Client private key for mutual TLS")
	fs.StringVar(&cfg.TLS.ServerName, "tls-server-name", cfg.TLS.ServerName, "Expected name on the controller certificate")
	fs.BoolVar(&cfg.TLS.InsecureSkipVerify, "tls-insecure", cfg.TLS.InsecureSkipVerify, "Skip certificate verification (development only)")
	fs.BoolVar(&cfg.TLS.Plain, "plain", cfg.TLS.Plain, "Talk plain TCP, no TLS (simulators only)")

	// ── SSH jump host ────────────────────────────────────────────
	fs.StringVarP(&cfg.SSH.Jump, "jump", "T", cfg.SSH.Jump, "Reach the robot via SSH jump host [user@]host[:port]")
	fs.StringVar(&cfg.SSH.KeyPath, "ssh-key", cfg.SSH.KeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSH.Password, "ssh-password", cfg.SSH.Password, "Prompt for SSH password")
	fs.BoolVar(&cfg.SSH.Agent, "ssh-agent", cfg.SSH.Agent, "Use SSH agent")
	fs.BoolVar(&cfg.SSH.StrictHostKey, "strict-hostkey", cfg.SSH.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.SSH.KnownHosts, "known-hosts", cfg.SSH.KnownHosts, "Custom known_hosts path")
	fs.DurationVar(&cfg.SSH.KeepAlive, "ssh-keepalive", cfg.SSH.KeepAlive, "Jump-host keepalive interval (0 disables)")

	// ── driving ──────────────────────────────────────────────────
	fs.IntVar(&cfg.Drive.Distance, "distance", cfg.Drive.Distance, "Distance in cm sent with f/b")
	fs.IntVar(&cfg.Drive.Power, "power", cfg.Drive.Power, "Power in % sent with f/b")
	fs.IntVar(&cfg.Drive.Angle, "angle", cfg.Drive.Angle, "Angle in degrees sent with l/r")
	fs.IntVar(&cfg.Drive.TurnPower, "turn-power", cfg.Drive.TurnPower, "Power in % sent with l/r")
	fs.BoolVar(&cfg.InlineParams, "inline-params", cfg.InlineParams, `Accept "f 50 75" to override distance and power`)
	fs.BoolVar(&cfg.PromptParams, "prompt-params", cfg.PromptParams, "Ask for parameters after each movement command")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.Timestamps, "timestamps", cfg.Timestamps, "Prefix log lines with the time")

	// ── meta ─────────────────────────────────────────────────────
	fs.StringVarP(&opts.configPath, "config", "f", "", "TOML config file (default $"+config.ConfigPathEnv+")")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Validate, print the resolved target and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&opts.showHelp, "help", "h", false, "Show this help")

	return fs
}

// ── helpers ──────────────────────────────────────────────────────────

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `roverctl - remote control for the rover v%s

Usage:
  roverctl [options] <host> <port>

Commands (one per line):
  f / b     forward / reverse       l / r     turn left / right
  s         stop                    c         clear stats
  g         get stats               h         colour sensor
  v         ultrasonic distance     t         mode (sent as 'm')
  q         quit

Options:
`, version)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  roverctl --tls-ca ca.pem rover.lab 5001
  roverctl --tls-ca ca.pem --tls-cert op.pem --tls-key op-key.pem 10.0.0.7 5001
  roverctl -T pi@bastion --tls-ca ca.pem 192.168.8.20 5001
  roverctl --plain --prompt-params localhost 5001
`)
}
