package tunnel

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	ncerr "roverctl/internal/errors"
	"roverctl/util"
)

// startJumpHost runs a minimal SSH server that accepts clientKey and
// forwards direct-tcpip channels.  It returns the listen port.
func startJumpHost(t *testing.T, clientKey ssh.PublicKey) int {
	t.Helper()

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	hostSigner, err := ssh.NewSignerFromKey(hostPriv)
	if err != nil {
		t.Fatal(err)
	}

	cfg := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if string(key.Marshal()) == string(clientKey.Marshal()) {
				return nil, nil
			}
			return nil, errors.New("unknown key")
		},
	}
	cfg.AddHostKey(hostSigner)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			raw, err := ln.Accept()
			if err != nil {
				return
			}
			go serveSSH(raw, cfg)
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

func serveSSH(raw net.Conn, cfg *ssh.ServerConfig) {
	conn, chans, reqs, err := ssh.NewServerConn(raw, cfg)
	if err != nil {
		raw.Close()
		return
	}
	defer conn.Close()

	go func() {
		for r := range reqs {
			if r.WantReply {
				r.Reply(r.Type == "keepalive@openssh.com", nil) //nolint:errcheck
			}
		}
	}()

	for nc := range chans {
		if nc.ChannelType() != "direct-tcpip" {
			nc.Reject(ssh.UnknownChannelType, "unsupported") //nolint:errcheck
			continue
		}
		var target struct {
			Host     string
			Port     uint32
			OrigHost string
			OrigPort uint32
		}
		if err := ssh.Unmarshal(nc.ExtraData(), &target); err != nil {
			nc.Reject(ssh.ConnectionFailed, err.Error()) //nolint:errcheck
			continue
		}
		up, err := net.Dial("tcp", net.JoinHostPort(target.Host, strconv.Itoa(int(target.Port))))
		if err != nil {
			nc.Reject(ssh.ConnectionFailed, err.Error()) //nolint:errcheck
			continue
		}
		ch, chReqs, err := nc.Accept()
		if err != nil {
			up.Close()
			continue
		}
		go ssh.DiscardRequests(chReqs)
		go func() {
			defer ch.Close()
			defer up.Close()
			go io.Copy(up, ch) //nolint:errcheck
			io.Copy(ch, up)    //nolint:errcheck
		}()
	}
}

// startController accepts one connection, reads a 10-byte command and
// answers with a two-byte ERROR packet.
func startController(t *testing.T) (string, <-chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	got := make(chan []byte, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		buf := make([]byte, 10)
		if _, err := io.ReadFull(c, buf); err != nil {
			return
		}
		got <- buf
		c.Write([]byte{0, 0}) //nolint:errcheck
	}()
	return ln.Addr().String(), got
}

func TestJumpHost_ForwardsToController(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "id_jump")
	signer := writeTestKey(t, keyPath, nil)
	port := startJumpHost(t, signer.PublicKey())
	target, got := startController(t)

	j := NewJumpHost(&SSHConfig{
		User:      "pilot",
		Host:      "127.0.0.1",
		Port:      port,
		KeyPath:   keyPath,
		KeepAlive: 20 * time.Millisecond,
	}, util.NewLogger(0))
	defer j.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := j.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !j.Alive() {
		t.Fatal("jump host should be alive after Connect")
	}

	conn, err := j.Dial(ctx, "tcp", target)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	cmd := []byte{3, 'f', 5, 0, 0, 0, 50, 0, 0, 0}
	if _, err := conn.Write(cmd); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case b := <-got:
		if string(b) != string(cmd) {
			t.Errorf("controller got %v, want %v", b, cmd)
		}
	case <-ctx.Done():
		t.Fatal("controller never received the command")
	}

	reply := make([]byte, 2)
	if _, err := io.ReadFull(conn, reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}

	// Let a few keepalives go through.
	time.Sleep(80 * time.Millisecond)
	if !j.Alive() {
		t.Error("keepalives should keep the jump host alive")
	}

	if err := j.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if j.Alive() {
		t.Error("jump host should be dead after Close")
	}
	if err := j.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestJumpHost_RejectedKey(t *testing.T) {
	dir := t.TempDir()
	trusted := writeTestKey(t, filepath.Join(dir, "trusted"), nil)
	otherPath := filepath.Join(dir, "other")
	writeTestKey(t, otherPath, nil)
	port := startJumpHost(t, trusted.PublicKey())

	j := NewJumpHost(&SSHConfig{User: "pilot", Host: "127.0.0.1", Port: port, KeyPath: otherPath}, nil)
	err := j.Connect(context.Background())

	var sshErr *ncerr.SSHError
	if !errors.As(err, &sshErr) || sshErr.Op != "handshake" {
		t.Fatalf("expected handshake SSHError, got %v", err)
	}
	if j.Alive() {
		t.Error("jump host should not be alive")
	}
}

func TestJumpHost_DialBeforeConnect(t *testing.T) {
	j := NewJumpHost(&SSHConfig{Host: "bastion"}, nil)
	if _, err := j.Dial(context.Background(), "tcp", "rover:5001"); !errors.Is(err, ncerr.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestNewJumpHost_Defaults(t *testing.T) {
	cfg := &SSHConfig{Host: "bastion"}
	NewJumpHost(cfg, nil)
	if cfg.Port != 22 {
		t.Errorf("Port = %d, want 22", cfg.Port)
	}
	if cfg.ConnTimeout != 30*time.Second {
		t.Errorf("ConnTimeout = %v, want 30s", cfg.ConnTimeout)
	}
}
