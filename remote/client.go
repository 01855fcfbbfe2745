// Package remote implements a durable SFTP transport: a thin interface
// over github.com/pkg/sftp primitives (Client), fault classification for
// the errors that interface can return (faults.go), and a reconnecting,
// bounded-retry session built on top of both (session.go).
package remote

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/sftp"
)

// Kind identifies what sort of thing a directory entry is.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindOther
)

// Entry is a single directory entry as seen over SFTP.
type Entry struct {
	Path  string // base name, not a full path
	Kind  Kind
	Size  int64
	MTime time.Time
}

// Client abstracts the subset of github.com/pkg/sftp.Client operations
// the mirroring engine needs. It intentionally excludes Chmod/Chown/
// Symlink/Link: permission, ownership and symlink mirroring are out of
// scope.
type Client interface {
	// ListDir returns the direct children of path.
	ListDir(path string) ([]Entry, error)

	// Stat returns the entry for path itself.
	Stat(path string) (Entry, error)

	// Open opens path for reading.
	Open(path string) (io.ReadCloser, error)

	// Create truncates or creates path for writing.
	Create(path string) (io.WriteCloser, error)

	// Chtimes sets path's modification time. Used after Create to
	// preserve source mtimes, which entry equivalence compares; a
	// failure fails the transfer action.
	Chtimes(path string, mtime time.Time) error

	// Mkdir creates path. The parent must already exist.
	Mkdir(path string) error

	// Remove removes a single file.
	Remove(path string) error

	// RemoveDirectory removes a single, empty directory.
	RemoveDirectory(path string) error

	// Close releases the underlying connection.
	Close() error
}

// DialFunc creates a fresh, connected Client. It is called once at
// session construction and again on every reconnect; it must not
// depend on any state the session itself produced; credentials are
// closed over by the caller of NewSession.
type DialFunc func(ctx context.Context) (Client, error)

// sftpClient adapts *sftp.Client to Client.
type sftpClient struct {
	c *sftp.Client
}

// NewSFTPClient wraps an established *sftp.Client.
func NewSFTPClient(c *sftp.Client) Client {
	return &sftpClient{c: c}
}

func toEntry(fi os.FileInfo) Entry {
	k := KindFile
	switch {
	case fi.IsDir():
		k = KindDir
	case fi.Mode()&os.ModeType != 0:
		k = KindOther
	}
	return Entry{
		Path:  fi.Name(),
		Kind:  k,
		Size:  fi.Size(),
		MTime: fi.ModTime(),
	}
}

func (s *sftpClient) ListDir(path string) ([]Entry, error) {
	fis, err := s.c.ReadDir(path)
	if err != nil {
		return nil, err
	}
	es := make([]Entry, len(fis))
	for i, fi := range fis {
		es[i] = toEntry(fi)
	}
	return es, nil
}

func (s *sftpClient) Stat(path string) (Entry, error) {
	fi, err := s.c.Lstat(path)
	if err != nil {
		return Entry{}, err
	}
	return toEntry(fi), nil
}

func (s *sftpClient) Open(path string) (io.ReadCloser, error) {
	return s.c.Open(path)
}

func (s *sftpClient) Create(path string) (io.WriteCloser, error) {
	return s.c.Create(path)
}

func (s *sftpClient) Chtimes(path string, mtime time.Time) error {
	return s.c.Chtimes(path, mtime, mtime)
}

func (s *sftpClient) Mkdir(path string) error {
	return s.c.Mkdir(path)
}

func (s *sftpClient) Remove(path string) error {
	return s.c.Remove(path)
}

func (s *sftpClient) RemoveDirectory(path string) error {
	return s.c.RemoveDirectory(path)
}

func (s *sftpClient) Close() error {
	return s.c.Close()
}
