package config

// loader.go - configuration from ROVERCTL_* environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults  (defaults.go)

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	ncerr "roverctl/internal/errors"
)

// EnvPrefix starts every variable LoadFromEnv reads.
const EnvPrefix = "ROVERCTL_"

// ConfigPathEnv names the config file when --config is not given.
const ConfigPathEnv = EnvPrefix + "CONFIG"

// LoadFromEnv overlays environment variables onto cfg.  Unset or empty
// variables leave cfg alone.  Booleans accept 1/true/yes/on and
// 0/false/no/off; durations accept Go syntax ("1500ms") or whole
// seconds.  A malformed value is an error naming the variable.
func LoadFromEnv(cfg *Config) error {
	e := envReader{}

	e.boolean("NO_DNS", &cfg.NoDNS)
	e.duration("TIMEOUT", &cfg.Timeout)
	e.integer("RETRIES", &cfg.Retries)
	e.duration("RETRY_DELAY", &cfg.RetryDelay)

	// TLS
	e.boolean("PLAIN", &cfg.TLS.Plain)
	e.str("TLS_CA", &cfg.TLS.CAFile)
	e.str("TLS_CERT", &cfg.TLS.CertFile)
	e.str("TLS_KEY", &cfg.TLS.KeyFile)
	e.str("TLS_SERVER_NAME", &cfg.TLS.ServerName)
	e.boolean("TLS_INSECURE", &cfg.TLS.InsecureSkipVerify)

	// SSH jump host
	e.str("JUMP", &cfg.SSH.Jump)
	e.str("SSH_KEY", &cfg.SSH.KeyPath)
	e.boolean("SSH_PASSWORD", &cfg.SSH.Password)
	e.boolean("SSH_AGENT", &cfg.SSH.Agent)
	e.boolean("STRICT_HOSTKEY", &cfg.SSH.StrictHostKey)
	e.str("KNOWN_HOSTS", &cfg.SSH.KnownHosts)
	e.duration("SSH_KEEPALIVE", &cfg.SSH.KeepAlive)

	// Drive
	e.integer("DISTANCE", &cfg.Drive.Distance)
	e.integer("POWER", &cfg.Drive.Power)
	e.integer("ANGLE", &cfg.Drive.Angle)
	e.integer("TURN_POWER", &cfg.Drive.TurnPower)
	e.boolean("INLINE_PARAMS", &cfg.InlineParams)
	e.boolean("PROMPT_PARAMS", &cfg.PromptParams)

	// Output
	e.integer("VERBOSE", &cfg.Verbose)
	e.boolean("TIMESTAMPS", &cfg.Timestamps)

	return ncerr.Join(e.errs...)
}

// ── helpers ──────────────────────────────────────────────────────────

type envReader struct {
	errs []error
}

func (e *envReader) lookup(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + name))
	return v, v != ""
}

func (e *envReader) fail(name, v, want string) {
	e.errs = append(e.errs, fmt.Errorf("%s%s=%q: expected %s", EnvPrefix, name, v, want))
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.lookup(name); ok {
		*dst = v
	}
}

func (e *envReader) integer(name string, dst *int) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(name, v, "an integer")
		return
	}
	*dst = n
}

func (e *envReader) boolean(name string, dst *bool) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	default:
		e.fail(name, v, "a boolean")
	}
}

func (e *envReader) duration(name string, dst *time.Duration) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	if sec, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(sec) * time.Second
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(name, v, "a duration")
		return
	}
	*dst = d
}
