package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// Every default lives here so flags, the config file and environment
// loading agree on them.

const (
	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnTimeout bounds the TCP dial and the TLS handshake.
	DefaultConnTimeout = 10 * time.Second

	// DefaultRetries is how many times a refused or timed-out dial is
	// retried.  The controller may still be booting.
	DefaultRetries = 0

	// DefaultRetryDelay is the wait before the first retry; it doubles
	// after each attempt.
	DefaultRetryDelay = time.Second

	// DefaultSSHKeepAlive is the interval between jump-host keepalives.
	DefaultSSHKeepAlive = 30 * time.Second

	// Movement defaults sent with f/b and l/r.
	DefaultDistance     = 5   // cm
	DefaultPower        = 50  // percent
	DefaultAngle        = 90  // degrees
	DefaultTurningPower = 100 // percent

	// MaxDistance caps the distance accepted from configuration.
	MaxDistance = 10000 // cm
)

// Defaults returns a Config with every default applied.
func Defaults() *Config {
	return &Config{
		Timeout:    DefaultConnTimeout,
		Retries:    DefaultRetries,
		RetryDelay: DefaultRetryDelay,
		SSH: SSHConfig{
			KeepAlive: DefaultSSHKeepAlive,
		},
		Drive: DriveConfig{
			Distance:  DefaultDistance,
			Power:     DefaultPower,
			Angle:     DefaultAngle,
			TurnPower: DefaultTurningPower,
		},
	}
}
