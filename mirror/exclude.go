package mirror

import (
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/desertwitch/durasftp/entry"
	"github.com/desertwitch/durasftp/tree"
)

// ParseExcludeFilter compiles gitignore-style patterns (one per line,
// as from a multi-line --exclude value followed by the contents of
// --exclude-from) into a tree.ExcludeFilter. An empty patterns string
// excludes nothing.
func ParseExcludeFilter(patterns string) (tree.ExcludeFilter, error) {
	patterns = strings.TrimSpace(patterns)
	if patterns == "" {
		return nil, nil
	}

	gi := ignore.CompileIgnoreLines(strings.Split(patterns, "\n")...)

	return func(canonicalPath string, _ entry.Kind) bool {
		// go-gitignore matches relative to its patterns' root, not
		// expecting a leading slash.
		return gi.MatchesPath(strings.TrimPrefix(canonicalPath, "/"))
	}, nil
}
