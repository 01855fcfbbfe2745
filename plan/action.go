// Package plan implements the mirror planner (comparing two trees into
// an ordered list of actions), the actions themselves (idempotent
// execution against local disk and a remote session), and the ordered
// action list invariant: OK actions, then directory actions, then
// file actions, each bucket sorted by path.
package plan

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/desertwitch/durasftp/entry"
	"github.com/desertwitch/durasftp/remote"
)

// Code names an action.
type Code string

const (
	// CodeOK means the entry already matches; no transfer is
	// needed.
	CodeOK Code = "OK"

	// CodeLMkdir creates a local directory to match a remote one.
	CodeLMkdir Code = "LMKDIR"

	// CodeRMkdir creates a remote directory to match a local one.
	CodeRMkdir Code = "RMKDIR"

	// CodeGet downloads a remote file to local disk.
	CodeGet Code = "GET"

	// CodePut uploads a local file to the remote side.
	CodePut Code = "PUT"
)

// Callback is invoked once per executed Action, after it runs (or
// fails). A non-nil error from the callback stops the mirror run.
type Callback func(a *Action, execErr error) error

// Action is a single, idempotent step of a mirror plan.
type Action struct {
	Code Code
	Path string // canonical path the action concerns

	// Local/Remote are the entries observed on each side at plan
	// time, used only to decide tie-break cleanup during Execute;
	// either may be the zero Entry if nothing was there.
	Local, Remote entry.Entry

	LocalBase string
	Sess      *remote.Session
}

// String renders the action the way the mirror CLI prints executed
// actions: Action(code=CODE,path=PATH).
func (a *Action) String() string {
	return fmt.Sprintf("Action(code=%s,path=%s)", a.Code, a.Path)
}

// Execute runs the action idempotently. If dryRun is true, no change
// is made to either side; Execute still validates that the action is
// well-formed.
//
// Per the action table: before creating a directory or writing a
// file, any conflicting entry of the wrong kind already present at
// the target path is removed first (a local file in the way of
// LMKDIR, a remote directory in the way of PUT, and so on), exactly
// mirroring the original action handlers' kind-check-then-replace
// logic.
func (a *Action) Execute(ctx context.Context, dryRun bool) error {
	switch a.Code {
	case CodeOK:
		return nil

	case CodeLMkdir:
		return a.runLMkdir(dryRun)

	case CodeRMkdir:
		return a.runRMkdir(ctx, dryRun)

	case CodeGet:
		return a.runGet(ctx, dryRun)

	case CodePut:
		return a.runPut(ctx, dryRun)

	default:
		return fmt.Errorf("plan: unknown action code %q", a.Code)
	}
}

func (a *Action) localAbs() string {
	return filepath.Join(a.LocalBase, filepath.FromSlash(a.Path))
}

func (a *Action) runLMkdir(dryRun bool) error {
	abs := a.localAbs()

	if a.Local.Kind == entry.KindFile || a.Local.Kind == entry.KindOther {
		if dryRun {
			return nil
		}
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("plan: remove conflicting local file %s: %w", a.Path, err)
		}
	}

	if dryRun {
		return nil
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("plan: mkdir local %s: %w", a.Path, err)
	}
	return nil
}

func (a *Action) runRMkdir(ctx context.Context, dryRun bool) error {
	if a.Remote.Kind == entry.KindFile || a.Remote.Kind == entry.KindOther {
		if dryRun {
			return nil
		}
		if err := a.Sess.Remove(ctx, a.Path); err != nil && !remote.IsNotExist(err) {
			return fmt.Errorf("plan: remove conflicting remote file %s: %w", a.Path, err)
		}
	}

	if dryRun {
		return nil
	}
	if err := a.Sess.Mkdir(ctx, a.Path); err != nil {
		return fmt.Errorf("plan: mkdir remote %s: %w", a.Path, err)
	}
	return nil
}

func (a *Action) runGet(ctx context.Context, dryRun bool) error {
	abs := a.localAbs()

	if a.Local.Kind == entry.KindDir {
		if dryRun {
			return nil
		}
		if err := RemoveAllLocal(abs); err != nil {
			return fmt.Errorf("plan: remove conflicting local directory %s: %w", a.Path, err)
		}
	}

	if dryRun {
		return nil
	}

	src, err := a.Sess.Open(ctx, a.Path)
	if err != nil {
		return fmt.Errorf("plan: open remote %s: %w", a.Path, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("plan: mkdir parent of %s: %w", a.Path, err)
	}

	dst, err := os.Create(abs)
	if err != nil {
		return fmt.Errorf("plan: create local %s: %w", a.Path, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("plan: copy %s: %w", a.Path, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("plan: close local %s: %w", a.Path, err)
	}

	if !a.Remote.MTime.IsZero() {
		if err := os.Chtimes(abs, a.Remote.MTime, a.Remote.MTime); err != nil {
			return fmt.Errorf("plan: set mtime on %s: %w", a.Path, err)
		}
	}
	return nil
}

func (a *Action) runPut(ctx context.Context, dryRun bool) error {
	if a.Remote.Kind == entry.KindDir {
		if dryRun {
			return nil
		}
		if err := RemoveAllRemote(ctx, a.Sess, a.Path); err != nil {
			return fmt.Errorf("plan: remove conflicting remote directory %s: %w", a.Path, err)
		}
	}

	if dryRun {
		return nil
	}

	abs := a.localAbs()
	src, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("plan: open local %s: %w", a.Path, err)
	}
	defer src.Close()

	dst, err := a.Sess.Create(ctx, a.Path)
	if err != nil {
		return fmt.Errorf("plan: create remote %s: %w", a.Path, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("plan: copy %s: %w", a.Path, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("plan: close remote %s: %w", a.Path, err)
	}

	if !a.Local.MTime.IsZero() {
		if err := a.Sess.Chtimes(ctx, a.Path, a.Local.MTime); err != nil {
			return fmt.Errorf("plan: set mtime on %s: %w", a.Path, err)
		}
	}
	return nil
}

// RemoveAllLocal removes a local directory subtree, files before
// directories, directories ordered by descending path length so
// children are always removed before their parents without needing
// to track depth explicitly.
func RemoveAllLocal(root string) error {
	var files, dirs []string
	err := filepath.Walk(root, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		if fi.IsDir() {
			dirs = append(dirs, p)
		} else {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, d := range dirs {
		if err := os.Remove(d); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return os.Remove(root)
}

// RemoveAllRemote removes a remote directory subtree the same way:
// walk it, remove every file, then remove every directory sorted by
// descending path length (children before parents), then the root
// itself. This is the recursive-removal rule used when a PUT action
// finds a remote directory occupying its target path.
func RemoveAllRemote(ctx context.Context, sess *remote.Session, root string) error {
	var files, dirs []string
	var walk func(path string) error
	walk = func(path string) error {
		children, err := sess.ListDir(ctx, path)
		if err != nil {
			return err
		}
		for _, c := range children {
			childPath := entry.Join(path, c.Path)
			switch c.Kind {
			case remote.KindDir:
				dirs = append(dirs, childPath)
				if err := walk(childPath); err != nil {
					return err
				}
			default:
				files = append(files, childPath)
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return err
	}

	for _, f := range files {
		if err := sess.Remove(ctx, f); err != nil && !remote.IsNotExist(err) {
			return err
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, d := range dirs {
		if err := sess.RemoveDirectory(ctx, d); err != nil && !remote.IsNotExist(err) {
			return err
		}
	}

	return sess.RemoveDirectory(ctx, root)
}
