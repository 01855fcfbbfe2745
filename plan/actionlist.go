package plan

import "sort"

// Plan is an ordered list of actions: every OK action, then every
// directory action (LMKDIR/RMKDIR), then every file action (GET/PUT),
// each bucket sorted by path. This fixed ordering is the mirror's core
// correctness invariant: a directory must exist before any file is
// written into it, so directory actions always precede file actions
// regardless of the order entries were discovered in.
type Plan struct {
	ok    []*Action
	dirs  []*Action
	files []*Action
}

// NewPlan returns an empty Plan.
func NewPlan() *Plan {
	return &Plan{}
}

// Add classifies and appends an action into its bucket.
func (p *Plan) Add(a *Action) {
	switch a.Code {
	case CodeOK:
		p.ok = append(p.ok, a)
	case CodeLMkdir, CodeRMkdir:
		p.dirs = append(p.dirs, a)
	case CodeGet, CodePut:
		p.files = append(p.files, a)
	}
}

// Actions returns the ordered OK, then directory, then file actions,
// each bucket sorted lexically by path.
func (p *Plan) Actions() []*Action {
	sortByPath(p.ok)
	sortByPath(p.dirs)
	sortByPath(p.files)

	out := make([]*Action, 0, len(p.ok)+len(p.dirs)+len(p.files))
	out = append(out, p.ok...)
	out = append(out, p.dirs...)
	out = append(out, p.files...)
	return out
}

// Len returns the total number of actions across all buckets.
func (p *Plan) Len() int {
	return len(p.ok) + len(p.dirs) + len(p.files)
}

func sortByPath(as []*Action) {
	sort.Slice(as, func(i, j int) bool { return as[i].Path < as[j].Path })
}
