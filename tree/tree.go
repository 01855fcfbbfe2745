// Package tree loads a local or remote filesystem subtree into an
// ordered map of canonical path to entry.Entry, the input the planner
// compares two of.
package tree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/desertwitch/durasftp/entry"
	"github.com/desertwitch/durasftp/remote"
)

// ExcludeFilter reports whether a canonical path should be pruned from
// a tree. Directories matched are not recursed into; files matched are
// simply omitted. A nil ExcludeFilter excludes nothing.
type ExcludeFilter func(canonicalPath string, kind entry.Kind) bool

// Tree is an ordered collection of entries, keyed by canonical path.
// Insertion order is preserved (depth-first, as visited) even though
// consumers are free to re-sort; see entry equivalence and the
// planner's own sort for why order here isn't itself load-bearing.
type Tree struct {
	order  []string
	byPath map[string]entry.Entry
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{byPath: map[string]entry.Entry{}}
}

// Add inserts or overwrites the entry at e.Path.
func (t *Tree) Add(e entry.Entry) {
	if _, ok := t.byPath[e.Path]; !ok {
		t.order = append(t.order, e.Path)
	}
	t.byPath[e.Path] = e
}

// Get returns the entry at path and whether it was present.
func (t *Tree) Get(path string) (entry.Entry, bool) {
	e, ok := t.byPath[path]
	return e, ok
}

// Paths returns all canonical paths in insertion (depth-first) order.
func (t *Tree) Paths() []string {
	return append([]string(nil), t.order...)
}

// SortedPaths returns all canonical paths sorted lexically, the
// ordering the planner's action lists rely on.
func (t *Tree) SortedPaths() []string {
	ps := t.Paths()
	sort.Strings(ps)
	return ps
}

// LoadLocal walks the local directory tree rooted at localBase,
// populating a Tree keyed by canonical remote-relative path (the root
// itself maps to "/").
func LoadLocal(localBase string, exclude ExcludeFilter) (*Tree, error) {
	t := New()
	var walk func(absPath, canonPath string) error
	walk = func(absPath, canonPath string) error {
		fi, err := os.Lstat(absPath)
		if err != nil {
			return fmt.Errorf("tree: stat %s: %w", absPath, err)
		}
		e := fromFileInfo(canonPath, fi)
		if canonPath != "/" {
			if exclude != nil && exclude(canonPath, e.Kind) {
				return nil
			}
			t.Add(e)
		}
		if e.Kind != entry.KindDir {
			return nil
		}

		children, err := os.ReadDir(absPath)
		if err != nil {
			return fmt.Errorf("tree: read dir %s: %w", absPath, err)
		}
		names := make([]string, len(children))
		for i, c := range children {
			names[i] = c.Name()
		}
		sort.Strings(names)
		for _, name := range names {
			if err := walk(filepath.Join(absPath, name), entry.Join(canonPath, name)); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(localBase, "/"); err != nil {
		return nil, err
	}
	return t, nil
}

func fromFileInfo(canonPath string, fi os.FileInfo) entry.Entry {
	k := entry.KindFile
	switch {
	case fi.IsDir():
		k = entry.KindDir
	case fi.Mode()&os.ModeType != 0:
		k = entry.KindOther
	}
	return entry.Entry{
		Path:  canonPath,
		Kind:  k,
		Size:  fi.Size(),
		MTime: fi.ModTime(),
	}
}

// LoadRemote walks the remote directory tree rooted at root (a
// canonical path, typically "/") over sess, populating a Tree the
// same way LoadLocal does.
func LoadRemote(ctx context.Context, sess *remote.Session, root string, exclude ExcludeFilter) (*Tree, error) {
	t := New()
	var walk func(remotePath, canonPath string) error
	walk = func(remotePath, canonPath string) error {
		children, err := sess.ListDir(ctx, remotePath)
		if err != nil {
			return fmt.Errorf("tree: list dir %s: %w", remotePath, err)
		}
		sort.Slice(children, func(i, j int) bool { return children[i].Path < children[j].Path })

		for _, c := range children {
			childCanon := entry.Join(canonPath, c.Path)
			e := fromRemoteEntry(childCanon, c)

			if exclude != nil && exclude(childCanon, e.Kind) {
				continue
			}
			t.Add(e)

			if e.Kind == entry.KindDir {
				if err := walk(entry.Join(remotePath, c.Path), childCanon); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(root, "/"); err != nil {
		return nil, err
	}
	return t, nil
}

func fromRemoteEntry(canonPath string, e remote.Entry) entry.Entry {
	k := entry.KindFile
	switch e.Kind {
	case remote.KindDir:
		k = entry.KindDir
	case remote.KindOther:
		k = entry.KindOther
	}
	return entry.Entry{
		Path:  canonPath,
		Kind:  k,
		Size:  e.Size,
		MTime: e.MTime,
	}
}
