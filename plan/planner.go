package plan

import (
	"github.com/desertwitch/durasftp/entry"
	"github.com/desertwitch/durasftp/remote"
	"github.com/desertwitch/durasftp/tree"
)

// Planner builds a Plan by comparing a local and a remote tree.
// Direction determines which side a missing entry gets created on;
// the two directions are symmetric in every other respect.
type Planner struct {
	LocalBase string
	Sess      *remote.Session
}

// FromRemote builds a plan that makes the local tree match the
// remote one: remote directories missing locally become LMKDIR,
// remote files missing or out of date locally become GET, and entries
// that already match become OK. Nothing present only locally is ever
// touched — the mirror is additive, never a delete-on-destination
// sync.
func (pl *Planner) FromRemote(local, remoteTree *tree.Tree) *Plan {
	p := NewPlan()
	for _, path := range remoteTree.SortedPaths() {
		re, _ := remoteTree.Get(path)
		le, haveLocal := local.Get(path)

		if haveLocal && entry.Equivalent(le, re) {
			p.Add(&Action{Code: CodeOK, Path: path, Local: le, Remote: re, LocalBase: pl.LocalBase, Sess: pl.Sess})
			continue
		}

		switch re.Kind {
		case entry.KindDir:
			p.Add(&Action{Code: CodeLMkdir, Path: path, Local: le, Remote: re, LocalBase: pl.LocalBase, Sess: pl.Sess})
		case entry.KindFile:
			p.Add(&Action{Code: CodeGet, Path: path, Local: le, Remote: re, LocalBase: pl.LocalBase, Sess: pl.Sess})
		}
	}
	return p
}

// ToRemote builds a plan that makes the remote tree match the local
// one: local directories missing remotely become RMKDIR, local files
// missing or out of date remotely become PUT. Symmetric with
// FromRemote; nothing present only remotely is ever touched.
func (pl *Planner) ToRemote(local, remoteTree *tree.Tree) *Plan {
	p := NewPlan()
	for _, path := range local.SortedPaths() {
		le, _ := local.Get(path)
		re, haveRemote := remoteTree.Get(path)

		if haveRemote && entry.Equivalent(le, re) {
			p.Add(&Action{Code: CodeOK, Path: path, Local: le, Remote: re, LocalBase: pl.LocalBase, Sess: pl.Sess})
			continue
		}

		switch le.Kind {
		case entry.KindDir:
			p.Add(&Action{Code: CodeRMkdir, Path: path, Local: le, Remote: re, LocalBase: pl.LocalBase, Sess: pl.Sess})
		case entry.KindFile:
			p.Add(&Action{Code: CodePut, Path: path, Local: le, Remote: re, LocalBase: pl.LocalBase, Sess: pl.Sess})
		}
	}
	return p
}
