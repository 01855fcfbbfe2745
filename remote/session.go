package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
)

// ErrSessionClosed signals that Close was called; no further
// operations may be started.
var ErrSessionClosed = errors.New("remote: session is closed")

// SessionState is the lifecycle state of a Session, per the durable
// session's state machine: a session starts Disconnected, moves
// through Connecting to Ready on a successful dial, Faulting and
// Reconnecting around a retriable error, and ends in Closed.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateReady
	StateFaulting
	StateReconnecting
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateFaulting:
		return "faulting"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is a durable, single-flight SFTP session: every operation
// runs under a single mutex, so a reconnect triggered by one caller's
// fault can never race with another caller's in-flight call. On a
// retriable fault the current client is closed, a fresh one is dialed
// via DialFunc, and the operation is retried, up to MaxAttempts times
// total.
//
// A Session is not meant to be used concurrently from multiple
// goroutines at once; the mutex exists to make reconnect-on-fault
// safe, not to parallelize callers.
type Session struct {
	dial        DialFunc
	maxAttempts int

	mu     sync.Mutex
	client Client
	err    error // sticky once set to ErrSessionClosed
	state  SessionState
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithMaxAttempts overrides the default of 3 attempts per operation.
func WithMaxAttempts(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewSession dials once via dial (to surface dial-time errors, such as
// bad credentials, immediately) and returns a Session wrapping the
// result.
func NewSession(ctx context.Context, dial DialFunc, opts ...SessionOption) (*Session, error) {
	s := &Session{
		dial:        dial,
		maxAttempts: 3,
		state:       StateDisconnected,
	}
	for _, o := range opts {
		o(s)
	}

	if _, err := s.getClient(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// getClient returns the current client, dialing a new one if none is
// open yet.
func (s *Session) getClient(ctx context.Context) (Client, error) {
	if s.client == nil && !errors.Is(s.err, ErrSessionClosed) {
		s.state = StateConnecting
		s.client, s.err = s.dial(ctx)
		if s.err == nil {
			s.state = StateReady
		} else {
			s.state = StateDisconnected
		}
	}
	return s.client, s.err
}

// closeClient closes and discards the current client, if it is the
// one the caller observed failing.
func (s *Session) closeClient(used Client) {
	if s.client != used {
		return
	}
	c := s.client
	s.client = nil
	if c != nil {
		if err := c.Close(); err != nil {
			glog.Warningf("remote: error closing faulted client: %v", err)
		}
	}
}

// do runs fun against the session's client, reconnecting and retrying
// up to maxAttempts times on a retriable fault. Exactly the spec'd
// protocol: attempt, classify, and either reconnect-and-continue or
// propagate.
func (s *Session) do(ctx context.Context, fun func(Client) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if errors.Is(s.err, ErrSessionClosed) {
		return ErrSessionClosed
	}

	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		client, err := s.getClient(ctx)
		if err != nil {
			lastErr = err
			if Classify(err) != FaultRetriable {
				return err
			}
			s.state = StateReconnecting
			continue
		}

		err = fun(client)
		if err == nil {
			s.state = StateReady
			return nil
		}

		lastErr = err
		if Classify(err) != FaultRetriable {
			return err
		}

		s.state = StateFaulting
		glog.Warningf("remote: retriable fault on attempt %d/%d: %v", attempt+1, s.maxAttempts, err)
		s.closeClient(client)

		if attempt == s.maxAttempts-1 {
			break
		}
		s.state = StateReconnecting
	}

	return fmt.Errorf("remote: operation failed after %d attempts: %w", s.maxAttempts, lastErr)
}

// State reports the session's current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears down the open connection, if any, drops the dialer (and
// the credentials it closed over), and makes all future operations
// fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = ErrSessionClosed
	s.state = StateClosed
	s.dial = nil
	if s.client != nil {
		c := s.client
		s.client = nil
		return c.Close()
	}
	return nil
}

func (s *Session) ListDir(ctx context.Context, path string) ([]Entry, error) {
	var es []Entry
	err := s.do(ctx, func(c Client) error {
		var err error
		es, err = c.ListDir(path)
		return err
	})
	return es, err
}

func (s *Session) Stat(ctx context.Context, path string) (Entry, error) {
	var e Entry
	err := s.do(ctx, func(c Client) error {
		var err error
		e, err = c.Stat(path)
		return err
	})
	return e, err
}

func (s *Session) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	err := s.do(ctx, func(c Client) error {
		var err error
		rc, err = c.Open(path)
		return err
	})
	return rc, err
}

func (s *Session) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	var wc io.WriteCloser
	err := s.do(ctx, func(c Client) error {
		var err error
		wc, err = c.Create(path)
		return err
	})
	return wc, err
}

func (s *Session) Chtimes(ctx context.Context, path string, mtime time.Time) error {
	return s.do(ctx, func(c Client) error {
		return c.Chtimes(path, mtime)
	})
}

func (s *Session) Mkdir(ctx context.Context, path string) error {
	return s.do(ctx, func(c Client) error {
		return c.Mkdir(path)
	})
}

func (s *Session) Remove(ctx context.Context, path string) error {
	return s.do(ctx, func(c Client) error {
		return c.Remove(path)
	})
}

func (s *Session) RemoveDirectory(ctx context.Context, path string) error {
	return s.do(ctx, func(c Client) error {
		return c.RemoveDirectory(path)
	})
}
