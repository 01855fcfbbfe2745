package remote

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DialConfig describes how to connect and authenticate to a remote
// SFTP server.
type DialConfig struct {
	Host     string // host[:port]; port defaults to 22
	Username string

	Password             string // tried first, if non-empty
	PrivateKeyPath       string // tried after Password, if non-empty
	PrivateKeyPassphrase string

	// AgentSocketPath, if set, is dialed fresh on every (re)connect
	// and offered as a public-key auth method via ssh-agent,
	// tried after Password and PrivateKeyPath. Typically
	// os.Getenv("SSH_AUTH_SOCK").
	AgentSocketPath string

	// KnownHostsPath defaults to ~/.ssh/known_hosts. Host keys are
	// verified strictly against it unless InsecureIgnoreHostKey is
	// set.
	KnownHostsPath        string
	InsecureIgnoreHostKey bool

	// Timeout bounds both the TCP/SSH handshake and each
	// subsequent read; it is the "every socket has a read-timeout"
	// parameter of the durable session. Defaults to 15s.
	Timeout time.Duration
}

// NewDialer builds a DialFunc that opens a fresh TCP connection, SSH
// handshake, and SFTP subsystem each time it is called, using cfg.
// It performs no caching: a Session calls it again on every
// reconnect, exactly mirroring the original client's retained-
// credential reconnect behavior.
func NewDialer(cfg DialConfig) (DialFunc, error) {
	host := cfg.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "22")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	hostKeyCallback, err := hostKeyCallback(cfg)
	if err != nil {
		return nil, err
	}

	staticAuth, err := authMethods(cfg)
	if err != nil {
		return nil, err
	}
	if len(staticAuth) == 0 && cfg.AgentSocketPath == "" {
		return nil, fmt.Errorf("remote: no authentication method configured (need --password, --private-key, or an ssh-agent socket)")
	}

	return func(ctx context.Context) (Client, error) {
		auth := append([]ssh.AuthMethod(nil), staticAuth...)
		var closers []func() error

		if cfg.AgentSocketPath != "" {
			agentConn, err := net.Dial("unix", cfg.AgentSocketPath)
			if err != nil {
				return nil, fmt.Errorf("remote: dial ssh-agent socket: %w", err)
			}
			closers = append(closers, agentConn.Close)
			auth = append(auth, ssh.PublicKeysCallback(agent.NewClient(agentConn).Signers))
		}

		sshCfg := &ssh.ClientConfig{
			User:            cfg.Username,
			Auth:            auth,
			HostKeyCallback: hostKeyCallback,
			Timeout:         timeout,
		}

		conn, err := net.DialTimeout("tcp", host, timeout)
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("remote: dial %s: %w", host, err)
		}
		conn.SetDeadline(time.Now().Add(timeout))

		sshConn, chans, reqs, err := ssh.NewClientConn(conn, host, sshCfg)
		if err != nil {
			conn.Close()
			closeAll(closers)
			return nil, fmt.Errorf("remote: ssh handshake with %s: %w", host, err)
		}
		sc := ssh.NewClient(sshConn, chans, reqs)

		sftpc, err := sftp.NewClient(sc)
		if err != nil {
			sc.Close()
			closeAll(closers)
			return nil, fmt.Errorf("remote: open sftp subsystem: %w", err)
		}

		return &closeableSFTPClient{
			Client: NewSFTPClient(sftpc),
			closers: append([]func() error{
				sftpc.Close,
				sc.Close,
			}, closers...),
		}, nil
	}, nil
}

func closeAll(closers []func() error) {
	for _, fn := range closers {
		fn()
	}
}

func hostKeyCallback(cfg DialConfig) (ssh.HostKeyCallback, error) {
	if cfg.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	path := cfg.KnownHostsPath
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".ssh", "known_hosts")
	}
	return knownhosts.New(path)
}

func authMethods(cfg DialConfig) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if cfg.Password != "" {
		methods = append(methods, ssh.Password(cfg.Password))
	}

	if cfg.PrivateKeyPath != "" {
		key, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("remote: read private key: %w", err)
		}

		var signer ssh.Signer
		if cfg.PrivateKeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(cfg.PrivateKeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}
		if err != nil {
			return nil, fmt.Errorf("remote: parse private key: %w", err)
		}

		methods = append(methods, ssh.PublicKeys(signer))
	}

	return methods, nil
}

// closeableSFTPClient closes the sftp subsystem and the underlying
// ssh.Client, since sftp.Client.Close does not close the transport it
// was built on.
type closeableSFTPClient struct {
	Client

	closers []func() error
}

func (c *closeableSFTPClient) Close() error {
	var firstErr error
	for _, fn := range c.closers {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
