package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	ncerr "roverctl/internal/errors"
)

var (
	ErrTLSCertFileRequired = errors.New("transport: tls cert file required with key file")
	ErrTLSKeyFileRequired  = errors.New("transport: tls key file required with cert file")
	ErrTLSCAFileRequired   = errors.New("transport: tls ca file required unless verification is skipped")
)

// TLSOptions locates the material for the controller's TLS session.
type TLSOptions struct {
	CAFile             string // PEM bundle the controller certificate must chain to
	CertFile           string // client certificate for mutual TLS
	KeyFile            string
	ServerName         string // expected name on the controller certificate; host part of the address when empty
	InsecureSkipVerify bool
}

// Validate checks that the options can produce a usable config.
func (o TLSOptions) Validate() error {
	cert := strings.TrimSpace(o.CertFile) != ""
	key := strings.TrimSpace(o.KeyFile) != ""
	switch {
	case cert && !key:
		return ErrTLSKeyFileRequired
	case key && !cert:
		return ErrTLSCertFileRequired
	case strings.TrimSpace(o.CAFile) == "" && !o.InsecureSkipVerify:
		return ErrTLSCAFileRequired
	}
	return nil
}

// Mutual reports whether a client certificate will be presented.
func (o TLSOptions) Mutual() bool {
	return strings.TrimSpace(o.CertFile) != ""
}

// ClientConfig loads the files named by o into a client tls.Config.
func (o TLSOptions) ClientConfig() (*tls.Config, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         strings.TrimSpace(o.ServerName),
		InsecureSkipVerify: o.InsecureSkipVerify, //nolint:gosec // development only, set explicitly
	}

	if path := strings.TrimSpace(o.CAFile); path != "" {
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("transport: read tls ca bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("transport: parse tls ca bundle: %s", path)
		}
		cfg.RootCAs = pool
	}

	if o.Mutual() {
		cert, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("transport: load client key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// TLSDialer runs a TLS client handshake over connections from Base.
type TLSDialer struct {
	Base   Dialer
	Config *tls.Config

	// Timeout bounds the handshake.  Zero means only ctx limits it.
	Timeout time.Duration
}

// Dial opens the underlying stream and completes the handshake before
// returning.  A handshake that runs out of Timeout is a retryable
// *errors.NetworkError; any other handshake failure is *errors.TLSError.
func (d *TLSDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	raw, err := d.Base.Dial(ctx, network, address)
	if err != nil {
		return nil, err
	}

	cfg := d.Config.Clone()
	if cfg.ServerName == "" {
		host, _, err := net.SplitHostPort(address)
		if err != nil {
			raw.Close()
			return nil, fmt.Errorf("transport: server name from %q: %w", address, err)
		}
		cfg.ServerName = host
	}

	hctx := ctx
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	conn := tls.Client(raw, cfg)
	if err := conn.HandshakeContext(hctx); err != nil {
		raw.Close()
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, &ncerr.NetworkError{
				Op:        "tls handshake",
				Addr:      address,
				Err:       fmt.Errorf("no reply within %s: %w", d.Timeout, err),
				Retryable: true,
			}
		}
		return nil, ncerr.WrapTLS(address, cfg.ServerName, err)
	}
	return conn, nil
}

// Close closes the base dialer.
func (d *TLSDialer) Close() error { return d.Base.Close() }
