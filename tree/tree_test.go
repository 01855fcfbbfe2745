package tree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/desertwitch/durasftp/entry"
)

func TestLoadLocal(t *testing.T) {
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "sub"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "top.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "sub", "nested.txt"), []byte("yo"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tr, err := LoadLocal(base, nil)
	if err != nil {
		t.Fatalf("LoadLocal failed: %v", err)
	}

	for _, path := range []string{"/top.txt", "/sub", "/sub/nested.txt"} {
		if _, ok := tr.Get(path); !ok {
			t.Errorf("missing entry for %s", path)
		}
	}

	if e, _ := tr.Get("/sub"); e.Kind != entry.KindDir {
		t.Errorf("/sub kind: got %v, want dir", e.Kind)
	}
	if e, _ := tr.Get("/top.txt"); e.Kind != entry.KindFile || e.Size != 2 {
		t.Errorf("/top.txt: got kind=%v size=%v, want file size=2", e.Kind, e.Size)
	}
}

func TestLoadLocalHonorsExcludeFilter(t *testing.T) {
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "skip"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "skip", "x.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "keep.txt"), []byte("k"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	exclude := func(path string, kind entry.Kind) bool {
		return path == "/skip"
	}

	tr, err := LoadLocal(base, exclude)
	if err != nil {
		t.Fatalf("LoadLocal failed: %v", err)
	}

	if _, ok := tr.Get("/skip"); ok {
		t.Errorf("/skip: got present, want excluded")
	}
	if _, ok := tr.Get("/skip/x.txt"); ok {
		t.Errorf("/skip/x.txt: got present, want pruned with its parent")
	}
	if _, ok := tr.Get("/keep.txt"); !ok {
		t.Errorf("/keep.txt: got absent, want present")
	}
}
