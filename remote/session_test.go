package remote

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/pkg/sftp"
)

// fakeClient is a hand-written test double in the teacher's style: a
// struct with a call counter and canned behavior, no mocking library.
type fakeClient struct {
	nClosed int
	failN   int // fail this many ListDir calls with a retriable error, then succeed
	calls   int
}

func (f *fakeClient) ListDir(path string) ([]Entry, error) {
	f.calls++
	if f.failN > 0 {
		f.failN--
		return nil, sftp.ErrSshFxConnectionLost
	}
	return []Entry{{Path: "a", Kind: KindFile}}, nil
}
func (f *fakeClient) Stat(path string) (Entry, error)           { return Entry{}, nil }
func (f *fakeClient) Open(path string) (io.ReadCloser, error)   { return nil, nil }
func (f *fakeClient) Create(path string) (io.WriteCloser, error) { return nil, nil }
func (f *fakeClient) Chtimes(path string, mtime time.Time) error { return nil }
func (f *fakeClient) Mkdir(path string) error                   { return nil }
func (f *fakeClient) Remove(path string) error                  { return nil }
func (f *fakeClient) RemoveDirectory(path string) error         { return nil }
func (f *fakeClient) Close() error {
	f.nClosed++
	return nil
}

func TestSessionRetriesUpToMaxAttempts(t *testing.T) {
	fc := &fakeClient{failN: 2}
	dial := func(ctx context.Context) (Client, error) {
		return fc, nil
	}

	s, err := NewSession(context.Background(), dial, WithMaxAttempts(3))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer s.Close()

	if _, err := s.ListDir(context.Background(), "/"); err != nil {
		t.Errorf("ListDir: got error %v, want nil", err)
	}

	if want := 3; fc.calls != want {
		t.Errorf("calls: got %v, want %v", fc.calls, want)
	}
}

func TestSessionPropagatesAfterMaxAttempts(t *testing.T) {
	fc := &fakeClient{failN: 100}
	dial := func(ctx context.Context) (Client, error) {
		return fc, nil
	}

	s, err := NewSession(context.Background(), dial, WithMaxAttempts(3))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer s.Close()

	if _, err := s.ListDir(context.Background(), "/"); err == nil {
		t.Errorf("ListDir: got nil error, want failure after exhausting retries")
	}

	if want := 3; fc.calls != want {
		t.Errorf("calls: got %v, want %v", fc.calls, want)
	}
}

func TestSessionCloseRejectsFurtherOps(t *testing.T) {
	fc := &fakeClient{}
	dial := func(ctx context.Context) (Client, error) { return fc, nil }

	s, err := NewSession(context.Background(), dial)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if _, err := s.ListDir(context.Background(), "/"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("ListDir after Close: got %v, want ErrSessionClosed", err)
	}
	if want := 1; fc.nClosed != want {
		t.Errorf("nClosed: got %v, want %v", fc.nClosed, want)
	}
}
