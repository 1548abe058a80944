package tunnel

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	ncerr "roverctl/internal/errors"
	"roverctl/util"
)

// SSHConfig describes the jump host.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration

	// KeepAlive is the interval between keepalive@openssh.com requests.
	// Zero disables them.
	KeepAlive time.Duration
}

func (c *SSHConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// JumpHost implements [Tunnel] over one SSH client connection.  The
// controller stream is a direct-tcpip channel on that connection.
type JumpHost struct {
	config *SSHConfig
	logger *util.Logger

	mu     sync.RWMutex
	client *ssh.Client
	alive  bool
	stop   chan struct{}
}

var _ Tunnel = (*JumpHost)(nil)

// NewJumpHost returns a jump host that is ready to [JumpHost.Connect].
func NewJumpHost(cfg *SSHConfig, logger *util.Logger) *JumpHost {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &JumpHost{config: cfg, logger: logger}
}

// Connect dials the jump host and authenticates.
func (j *JumpHost) Connect(ctx context.Context) error {
	auth, err := BuildAuthMethods(j.config)
	if err != nil {
		return ncerr.WrapSSH("auth", j.config.Host, j.config.Port, err)
	}
	hostKeys, err := hostKeyCallback(j.config)
	if err != nil {
		return ncerr.WrapSSH("hostkey", j.config.Host, j.config.Port, err)
	}

	addr := j.config.addr()
	j.logger.Debug("ssh: dialing %s as %s", addr, j.config.User)

	dialer := net.Dialer{Timeout: j.config.ConnTimeout}
	raw, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return ncerr.Wrap("dial", addr, err)
	}

	// ssh.NewClientConn ignores ctx; bound the handshake by the deadline.
	if dl, ok := ctx.Deadline(); ok {
		_ = raw.SetDeadline(dl)
	} else {
		_ = raw.SetDeadline(time.Now().Add(j.config.ConnTimeout))
	}
	conn, chans, reqs, err := ssh.NewClientConn(raw, addr, &ssh.ClientConfig{
		User:            j.config.User,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         j.config.ConnTimeout,
	})
	if err != nil {
		raw.Close()
		return ncerr.WrapSSH("handshake", j.config.Host, j.config.Port, err)
	}
	_ = raw.SetDeadline(time.Time{})

	client := ssh.NewClient(conn, chans, reqs)

	j.mu.Lock()
	j.client = client
	j.alive = true
	j.stop = make(chan struct{})
	stop := j.stop
	j.mu.Unlock()

	go j.watch(client)
	if j.config.KeepAlive > 0 {
		go j.keepalive(client, stop)
	}
	return nil
}

// Dial opens a direct-tcpip channel to address.
func (j *JumpHost) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	j.mu.RLock()
	client, alive := j.client, j.alive
	j.mu.RUnlock()

	if !alive || client == nil {
		return nil, ncerr.ErrNotConnected
	}

	j.logger.Debug("ssh: forwarding %s %s", network, address)
	conn, err := client.DialContext(ctx, network, address)
	if err != nil {
		return nil, ncerr.WrapSSH("forward", j.config.Host, j.config.Port,
			fmt.Errorf("%s: %w", address, err))
	}
	return conn, nil
}

// Close shuts down the SSH connection.  It is safe to call more than
// once.
func (j *JumpHost) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.alive = false
	if j.stop != nil {
		close(j.stop)
		j.stop = nil
	}
	if j.client == nil {
		return nil
	}
	err := j.client.Close()
	j.client = nil
	return err
}

// Alive reports whether the SSH connection is still up.
func (j *JumpHost) Alive() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.alive
}

// watch blocks until the SSH connection ends and marks the jump host
// dead.
func (j *JumpHost) watch(client *ssh.Client) {
	err := client.Wait()

	j.mu.Lock()
	if j.client == client {
		j.alive = false
	}
	j.mu.Unlock()

	if err != nil {
		j.logger.Debug("ssh: connection closed: %v", err)
	} else {
		j.logger.Debug("ssh: connection closed")
	}
}

// keepalive probes the jump host until stop is closed.  A failed probe
// closes the client, which ends every forwarded stream.
func (j *JumpHost) keepalive(client *ssh.Client, stop <-chan struct{}) {
	ticker := time.NewTicker(j.config.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, _, err := client.SendRequest("keepalive@openssh.com", true, nil); err != nil {
				j.logger.Warn("ssh keepalive to %s failed: %v", j.config.Host, err)
				client.Close()
				return
			}
			j.logger.Debug("ssh keepalive ok")
		}
	}
}
