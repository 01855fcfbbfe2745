package entry

import (
	"testing"
	"time"
)

func TestCanonical(t *testing.T) {
	tsts := []struct {
		in   string
		want string
	}{
		{"a/b", "/a/b"},
		{"/a/b/", "/a/b"},
		{"a\\b", "/a/b"},
		{"/", "/"},
	}
	for _, tst := range tsts {
		if got := Canonical(tst.in); got != tst.want {
			t.Errorf("Canonical(%q): got %q, want %q", tst.in, got, tst.want)
		}
	}
}

func TestEquivalentDirsAlwaysMatch(t *testing.T) {
	a := Entry{Path: "/x", Kind: KindDir, Size: 999, MTime: time.Unix(1, 0)}
	b := Entry{Path: "/x", Kind: KindDir, Size: 0, MTime: time.Unix(2, 0)}
	if !Equivalent(a, b) {
		t.Errorf("Equivalent(dir, dir): got false, want true")
	}
}

func TestEquivalentFilesCompareSizeAndWholeSecondMTime(t *testing.T) {
	base := Entry{Path: "/f", Kind: KindFile, Size: 10, MTime: time.Unix(100, 500000000)}
	same := Entry{Path: "/f", Kind: KindFile, Size: 10, MTime: time.Unix(100, 999999999)}
	diffSize := Entry{Path: "/f", Kind: KindFile, Size: 11, MTime: time.Unix(100, 500000000)}
	diffSec := Entry{Path: "/f", Kind: KindFile, Size: 10, MTime: time.Unix(101, 0)}

	if !Equivalent(base, same) {
		t.Errorf("Equivalent(same second, diff sub-second): got false, want true")
	}
	if Equivalent(base, diffSize) {
		t.Errorf("Equivalent(diff size): got true, want false")
	}
	if Equivalent(base, diffSec) {
		t.Errorf("Equivalent(diff second): got true, want false")
	}
}

func TestEquivalentKindMismatchNeverMatches(t *testing.T) {
	f := Entry{Path: "/x", Kind: KindFile}
	d := Entry{Path: "/x", Kind: KindDir}
	if Equivalent(f, d) {
		t.Errorf("Equivalent(file, dir): got true, want false")
	}
}
