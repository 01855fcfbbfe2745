// Package entry defines the unified local/remote directory-entry model
// the planner compares, and the canonical remote-relative path rules
// both sides of a mirror are keyed by.
package entry

import (
	"path"
	"strings"
	"time"
)

// Kind identifies what sort of object an Entry describes.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "other"
	}
}

// Entry is an immutable record of one object on one side (local or
// remote) of a mirror, keyed by its canonical path.
type Entry struct {
	Path  string // canonical, always starting with "/"
	Kind  Kind
	Size  int64
	MTime time.Time
}

// Canonical rewrites p into the canonical remote-relative form: always
// "/"-separated, always starting with "/", never trailing "/" (except
// for the root itself).
func Canonical(p string) string {
	p = filepath2slash(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = path.Clean(p)
	return p
}

// Join appends child (a single path component, not itself rooted) to
// the canonical parent path.
func Join(parent, child string) string {
	if parent == "/" {
		return "/" + child
	}
	return parent + "/" + child
}

func filepath2slash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// Equivalent implements the mirror's entry-equivalence rule: two
// directories are always equivalent to each other; two files are
// equivalent iff their sizes match and their modification times agree
// to the whole second; any other pairing (including a Kind mismatch)
// is never equivalent.
func Equivalent(a, b Entry) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindDir:
		return true
	case KindFile:
		return a.Size == b.Size && a.MTime.Unix() == b.MTime.Unix()
	default:
		return false
	}
}
