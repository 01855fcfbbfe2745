// Package mirror implements the Mirrorer façade: construction dials
// and probes a durable remote session, and MirrorFromRemote/
// MirrorToRemote each reload both trees, build a plan, and execute it
// action by action.
package mirror

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/golang/glog"

	"github.com/desertwitch/durasftp/plan"
	"github.com/desertwitch/durasftp/remote"
	"github.com/desertwitch/durasftp/tree"
)

// Config configures a Mirrorer.
type Config struct {
	LocalBase string

	Host                  string
	Port                  int
	Username              string
	Password              string
	PrivateKeyPath        string
	PrivateKeyPassphrase  string
	AgentSocketPath       string
	KnownHostsPath        string
	InsecureIgnoreHostKey bool

	Timeout     time.Duration
	MaxAttempts int

	// Exclude, if set, prunes matching paths from both trees before
	// planning; see mirror/exclude.go and tree.ExcludeFilter.
	Exclude tree.ExcludeFilter
}

// Mirrorer is the public entry point of the mirroring engine.
type Mirrorer struct {
	localBase string
	sess      *remote.Session
	exclude   tree.ExcludeFilter
}

// New dials the remote side, probes it with a root directory listing
// to surface authentication or connectivity failures immediately
// (rather than on the first real operation), and returns a ready
// Mirrorer.
func New(ctx context.Context, cfg Config) (*Mirrorer, error) {
	localBase, err := resolveLocalBase(cfg.LocalBase)
	if err != nil {
		return nil, fmt.Errorf("mirror: resolving local base %s: %w", cfg.LocalBase, err)
	}

	host := cfg.Host
	if cfg.Port != 0 {
		host = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	dial, err := remote.NewDialer(remote.DialConfig{
		Host:                  host,
		Username:              cfg.Username,
		Password:              cfg.Password,
		PrivateKeyPath:        cfg.PrivateKeyPath,
		PrivateKeyPassphrase:  cfg.PrivateKeyPassphrase,
		AgentSocketPath:       cfg.AgentSocketPath,
		KnownHostsPath:        cfg.KnownHostsPath,
		InsecureIgnoreHostKey: cfg.InsecureIgnoreHostKey,
		Timeout:               cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	sess, err := remote.NewSession(ctx, dial, remote.WithMaxAttempts(cfg.MaxAttempts))
	if err != nil {
		return nil, fmt.Errorf("mirror: connecting to %s: %w", cfg.Host, err)
	}

	if _, err := sess.ListDir(ctx, "/"); err != nil {
		sess.Close()
		return nil, fmt.Errorf("mirror: probing %s: %w", cfg.Host, err)
	}
	glog.Infof("mirror: connected to %s as %s", cfg.Host, cfg.Username)

	return &Mirrorer{
		localBase: localBase,
		sess:      sess,
		exclude:   cfg.Exclude,
	}, nil
}

// resolveLocalBase resolves localBase to an absolute, symlink-free
// form once at session creation, so that a trailing slash or a
// symlinked directory can never cause tree.LoadLocal to silently
// walk the wrong (or nothing at all, for a symlink misclassified by
// os.Lstat) tree.
func resolveLocalBase(localBase string) (string, error) {
	abs, err := filepath.Abs(localBase)
	if err != nil {
		return "", err
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return real, nil
}

// Close tears down the remote session, which drops its dialer and the
// credentials the dialer closed over.
func (m *Mirrorer) Close() error {
	return m.sess.Close()
}

func (m *Mirrorer) loadTrees(ctx context.Context) (local, remoteTree *tree.Tree, err error) {
	local, err = tree.LoadLocal(m.localBase, m.exclude)
	if err != nil {
		return nil, nil, fmt.Errorf("mirror: loading local tree: %w", err)
	}
	remoteTree, err = tree.LoadRemote(ctx, m.sess, "/", m.exclude)
	if err != nil {
		return nil, nil, fmt.Errorf("mirror: loading remote tree: %w", err)
	}
	return local, remoteTree, nil
}

// MirrorFromRemote makes the local tree match the remote one,
// additively: every action is executed in plan order (directories
// before files), cb is invoked after each, and a non-nil error from
// either the action or cb stops the run.
func (m *Mirrorer) MirrorFromRemote(ctx context.Context, cb plan.Callback, dryRun bool) error {
	local, remoteTree, err := m.loadTrees(ctx)
	if err != nil {
		return err
	}

	pl := &plan.Planner{LocalBase: m.localBase, Sess: m.sess}
	return m.run(ctx, pl.FromRemote(local, remoteTree), cb, dryRun)
}

// MirrorToRemote makes the remote tree match the local one. Symmetric
// with MirrorFromRemote.
func (m *Mirrorer) MirrorToRemote(ctx context.Context, cb plan.Callback, dryRun bool) error {
	local, remoteTree, err := m.loadTrees(ctx)
	if err != nil {
		return err
	}

	pl := &plan.Planner{LocalBase: m.localBase, Sess: m.sess}
	return m.run(ctx, pl.ToRemote(local, remoteTree), cb, dryRun)
}

func (m *Mirrorer) run(ctx context.Context, p *plan.Plan, cb plan.Callback, dryRun bool) error {
	actions := p.Actions()
	glog.Infof("mirror: executing %d actions (dry-run=%v)", len(actions), dryRun)

	for _, a := range actions {
		execErr := a.Execute(ctx, dryRun)
		if execErr != nil {
			glog.Warningf("mirror: %v failed: %v", a, execErr)
		}

		if cb != nil {
			if cbErr := cb(a, execErr); cbErr != nil {
				return fmt.Errorf("mirror: callback for %v: %w", a, cbErr)
			}
		}

		if execErr != nil {
			return fmt.Errorf("mirror: %v: %w", a, execErr)
		}
	}

	return nil
}
