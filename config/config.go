// Package config defines the runtime configuration for roverctl and the
// layers it is assembled from: defaults, a TOML file, ROVERCTL_*
// environment variables and command-line flags, in increasing order of
// precedence.
package config

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	ncerr "roverctl/internal/errors"
	"roverctl/internal/transport"
)

// Config holds every tuneable for a single control session.  The toml
// tags name the keys accepted in a config file.
type Config struct {
	// ── Controller ───────────────────────────────────────────────────
	Host       string        `toml:"-"` // positional only
	Port       int           `toml:"-"`
	NoDNS      bool          `toml:"no_dns"`
	Timeout    time.Duration `toml:"timeout"`
	Retries    int           `toml:"retries"`
	RetryDelay time.Duration `toml:"retry_delay"`

	TLS   TLSConfig   `toml:"tls"`
	SSH   SSHConfig   `toml:"ssh"`
	Drive DriveConfig `toml:"drive"`

	// ── Operator input ───────────────────────────────────────────────
	InlineParams bool `toml:"inline_params"`
	PromptParams bool `toml:"prompt_params"`
	Prompt       bool `toml:"-"` // print the command menu; set for a terminal

	// ── Output ───────────────────────────────────────────────────────
	Verbose    int  `toml:"verbose"`
	Timestamps bool `toml:"timestamps"`
	DryRun     bool `toml:"-"`
}

// TLSConfig selects the certificates for the controller session.
type TLSConfig struct {
	Plain              bool   `toml:"plain"` // no TLS; simulators only
	CAFile             string `toml:"ca_file"`
	CertFile           string `toml:"cert_file"`
	KeyFile            string `toml:"key_file"`
	ServerName         string `toml:"server_name"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// Options converts c for the transport layer.
func (c TLSConfig) Options() transport.TLSOptions {
	return transport.TLSOptions{
		CAFile:             c.CAFile,
		CertFile:           c.CertFile,
		KeyFile:            c.KeyFile,
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
}

func (c TLSConfig) any() bool {
	return c.CAFile != "" || c.CertFile != "" || c.KeyFile != "" ||
		c.ServerName != "" || c.InsecureSkipVerify
}

// SSHConfig describes the optional jump host.
type SSHConfig struct {
	Jump          string        `toml:"jump"` // [user@]host[:port]
	KeyPath       string        `toml:"key"`
	Password      bool          `toml:"password"`
	Agent         bool          `toml:"agent"`
	StrictHostKey bool          `toml:"strict_host_key"`
	KnownHosts    string        `toml:"known_hosts"`
	KeepAlive     time.Duration `toml:"keepalive"`

	// Filled from Jump by Resolve.
	User string `toml:"-"`
	Host string `toml:"-"`
	Port int    `toml:"-"`
}

// Enabled reports whether a jump host is configured.
func (c SSHConfig) Enabled() bool { return c.Jump != "" }

// DriveConfig holds the parameters sent with movement commands.
type DriveConfig struct {
	Distance  int `toml:"distance"`   // cm
	Power     int `toml:"power"`      // percent
	Angle     int `toml:"angle"`      // degrees
	TurnPower int `toml:"turn_power"` // percent
}

// ── Positional helpers ───────────────────────────────────────────────

// ParsePort accepts a decimal port number in 1-65535.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Jump-host spec parser ────────────────────────────────────────────

// jumpRe matches [user@]host[:port].
var jumpRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:@]+)(?::(\d+))?$`)

// ParseJumpSpec extracts user, host and port from a string such as
// "pi@bastion.lab:2222".  Port defaults to 22.
func ParseJumpSpec(spec string) (user, host string, port int, err error) {
	m := jumpRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid jump host %q, expected [user@]host[:port]", spec)
	}
	user, host, port = m[1], m[2], DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid jump host port %q", m[3])
		}
	}
	return user, host, port, nil
}

// Resolve fills the derived fields.  It must run after every layer has
// been applied and before Validate.
func (c *Config) Resolve() error {
	if !c.SSH.Enabled() {
		return nil
	}
	user, host, port, err := ParseJumpSpec(c.SSH.Jump)
	if err != nil {
		return &ncerr.ConfigError{Field: "jump", Value: c.SSH.Jump, Message: err.Error()}
	}
	c.SSH.User, c.SSH.Host, c.SSH.Port = user, host, port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// Errors are *errors.ConfigError.
func (c *Config) Validate() error {
	if c.Host == "" {
		return &ncerr.ConfigError{
			Field:   "host",
			Message: "robot hostname is required",
			Hint:    "usage: roverctl [options] <host> <port>",
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &ncerr.ConfigError{Field: "port", Value: c.Port, Message: "out of range 1-65535"}
	}
	if c.NoDNS && net.ParseIP(c.Host) == nil {
		return &ncerr.ConfigError{
			Field:   "no-dns",
			Value:   c.Host,
			Message: "host is not an IP address",
			Hint:    "drop -n or give the robot's numeric address",
		}
	}
	if c.Timeout < 0 {
		return &ncerr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}
	if c.Retries < 0 {
		return &ncerr.ConfigError{Field: "retries", Value: c.Retries, Message: "must not be negative"}
	}
	if c.RetryDelay < 0 {
		return &ncerr.ConfigError{Field: "retry-delay", Value: c.RetryDelay, Message: "must not be negative"}
	}

	if err := c.validateTLS(); err != nil {
		return err
	}
	if err := c.validateSSH(); err != nil {
		return err
	}
	if err := c.validateDrive(); err != nil {
		return err
	}

	if c.InlineParams && c.PromptParams {
		return &ncerr.ConfigError{
			Field:   "prompt-params",
			Message: "--inline-params and --prompt-params are mutually exclusive",
		}
	}
	return nil
}

func (c *Config) validateTLS() error {
	if c.TLS.Plain {
		if c.TLS.any() {
			return &ncerr.ConfigError{
				Field:   "plain",
				Message: "conflicts with the TLS options",
				Hint:    "remove --plain to talk TLS to the controller",
			}
		}
		return nil
	}

	err := c.TLS.Options().Validate()
	switch {
	case err == nil:
		return nil
	case ncerr.Is(err, transport.ErrTLSCAFileRequired):
		return &ncerr.ConfigError{
			Field:   "tls-ca",
			Message: "a CA bundle is required to verify the controller",
			Hint:    "pass --tls-ca <file>, or --tls-insecure against a development robot",
		}
	case ncerr.Is(err, transport.ErrTLSKeyFileRequired):
		return &ncerr.ConfigError{Field: "tls-key", Message: "required with --tls-cert"}
	case ncerr.Is(err, transport.ErrTLSCertFileRequired):
		return &ncerr.ConfigError{Field: "tls-cert", Message: "required with --tls-key"}
	default:
		return &ncerr.ConfigError{Field: "tls", Message: err.Error()}
	}
}

func (c *Config) validateSSH() error {
	if !c.SSH.Enabled() {
		return nil
	}
	if c.SSH.Host == "" {
		return &ncerr.ConfigError{
			Field:   "jump",
			Value:   c.SSH.Jump,
			Message: "jump host is not resolved",
			Hint:    "call Resolve before Validate",
		}
	}
	if c.SSH.KeepAlive < 0 {
		return &ncerr.ConfigError{Field: "ssh-keepalive", Value: c.SSH.KeepAlive, Message: "must not be negative"}
	}
	return nil
}

func (c *Config) validateDrive() error {
	d := c.Drive
	switch {
	case d.Distance < 0 || d.Distance > MaxDistance:
		return &ncerr.ConfigError{Field: "distance", Value: d.Distance,
			Message: fmt.Sprintf("out of range 0-%d", MaxDistance)}
	case d.Power < 0 || d.Power > 100:
		return &ncerr.ConfigError{Field: "power", Value: d.Power, Message: "out of range 0-100"}
	case d.Angle < 0 || d.Angle > 360:
		return &ncerr.ConfigError{Field: "angle", Value: d.Angle, Message: "out of range 0-360"}
	case d.TurnPower < 0 || d.TurnPower > 100:
		return &ncerr.ConfigError{Field: "turn-power", Value: d.TurnPower, Message: "out of range 0-100"}
	}
	return nil
}
