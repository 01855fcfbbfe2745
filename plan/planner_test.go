package plan

import (
	"testing"
	"time"

	"github.com/desertwitch/durasftp/entry"
	"github.com/desertwitch/durasftp/tree"
)

func TestFromRemotePlanOrderingAndCodes(t *testing.T) {
	local := tree.New()
	local.Add(entry.Entry{Path: "/a", Kind: entry.KindFile, Size: 1, MTime: time.Unix(1, 0)})

	remoteTree := tree.New()
	remoteTree.Add(entry.Entry{Path: "/a", Kind: entry.KindFile, Size: 1, MTime: time.Unix(1, 0)}) // matches -> OK
	remoteTree.Add(entry.Entry{Path: "/b", Kind: entry.KindDir})                                   // missing -> LMKDIR
	remoteTree.Add(entry.Entry{Path: "/b/c", Kind: entry.KindFile, Size: 2, MTime: time.Unix(2, 0)}) // missing -> GET

	pl := &Planner{LocalBase: t.TempDir()}
	p := pl.FromRemote(local, remoteTree)

	actions := p.Actions()
	if len(actions) != 3 {
		t.Fatalf("actions: got %d, want 3", len(actions))
	}

	if actions[0].Code != CodeOK || actions[0].Path != "/a" {
		t.Errorf("actions[0]: got %v, want OK /a", actions[0])
	}
	if actions[1].Code != CodeLMkdir || actions[1].Path != "/b" {
		t.Errorf("actions[1]: got %v, want LMKDIR /b", actions[1])
	}
	if actions[2].Code != CodeGet || actions[2].Path != "/b/c" {
		t.Errorf("actions[2]: got %v, want GET /b/c", actions[2])
	}
}

func TestToRemoteNeverTouchesRemoteOnlyEntries(t *testing.T) {
	local := tree.New()
	local.Add(entry.Entry{Path: "/only-local", Kind: entry.KindFile, Size: 3})

	remoteTree := tree.New()
	remoteTree.Add(entry.Entry{Path: "/only-remote", Kind: entry.KindFile, Size: 4})

	pl := &Planner{LocalBase: t.TempDir()}
	p := pl.ToRemote(local, remoteTree)

	actions := p.Actions()
	if len(actions) != 1 {
		t.Fatalf("actions: got %d, want 1 (only-local put, nothing for only-remote)", len(actions))
	}
	if actions[0].Code != CodePut || actions[0].Path != "/only-local" {
		t.Errorf("actions[0]: got %v, want PUT /only-local", actions[0])
	}
}

func TestPlanDirectoryActionsPrecedeFileActionsRegardlessOfDiscoveryOrder(t *testing.T) {
	p := NewPlan()
	p.Add(&Action{Code: CodeGet, Path: "/a/file"})
	p.Add(&Action{Code: CodeLMkdir, Path: "/z-dir"})
	p.Add(&Action{Code: CodeOK, Path: "/ok-entry"})
	p.Add(&Action{Code: CodeGet, Path: "/a-early-file"})

	actions := p.Actions()
	var sawFile bool
	for _, a := range actions {
		switch a.Code {
		case CodeLMkdir, CodeRMkdir:
			if sawFile {
				t.Fatalf("directory action %v appeared after a file action", a)
			}
		case CodeGet, CodePut:
			sawFile = true
		}
	}
}
