// Package plugins recognizes publisher file-naming conventions inside a
// collection folder and derives the page order for merging.
//
// Every plugin assigns each file a Category and a SortKey. Files are ordered
// by category, then key, then by the plugin's tie-break on the file name.
// Plugins are stateless; one value may serve any number of collections.
package plugins

import (
	"cmp"
	"slices"
	"strings"
)

// Category places a file within the book.
type Category int

const (
	FrontMatter Category = iota
	Body
	Appendix
	BackMatter
	// Excluded files (duplicate downloads) never reach the merged output.
	Excluded
)

func (c Category) String() string {
	switch c {
	case FrontMatter:
		return "front"
	case Body:
		return "body"
	case Appendix:
		return "appendix"
	case BackMatter:
		return "back"
	case Excluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// SortKey orders files within a category. Major is compared first.
// For nested conventions Major is the part and Minor the chapter within it.
type SortKey struct {
	Major int `json:"major" yaml:"major"`
	Minor int `json:"minor" yaml:"minor"`
}

// Compare returns -1, 0 or +1.
func (k SortKey) Compare(o SortKey) int {
	return cmp.Or(cmp.Compare(k.Major, o.Major), cmp.Compare(k.Minor, o.Minor))
}

// Entry is one classified file.
type Entry struct {
	Name     string   `json:"name" yaml:"name"`
	Category Category `json:"category" yaml:"category"`
	Key      SortKey  `json:"key" yaml:"key"`
}

// Plugin is a naming convention.
type Plugin interface {
	// Name is the stable identifier used in config and reports.
	Name() string

	// MatchScore rates how well names follow the convention, in [0,1].
	MatchScore(names []string) float64

	// ClassifyAndOrder returns names in merge order with Excluded files removed.
	ClassifyAndOrder(names []string) []Entry
}

// classification is the outcome of one plugin rule set for one file name.
type classification struct {
	category Category
	key      SortKey
	// recognized is false when no specific rule matched and the file fell
	// through to Body.
	recognized bool
}

// unmatched files sort after every numbered body file.
const unmatchedMajor = 1 << 30

func fallthroughBody() classification {
	return classification{category: Body, key: SortKey{Major: unmatchedMajor}}
}

// rules is shared by the builtin plugins: a per-file classifier, a tie-break
// on names that share category and key, and a gate that must pass before the
// plugin scores above zero.
type rules struct {
	name     string
	classify func(name string) classification
	gate     func(names []string) bool
	tiebreak func(a, b string) int
	// weight scales the coverage score; generic conventions weigh less than
	// publisher-specific ones.
	weight float64
}

func (r *rules) Name() string { return r.name }

func (r *rules) MatchScore(names []string) float64 {
	if len(names) == 0 || !r.gate(names) {
		return 0
	}
	recognized := 0
	for _, n := range names {
		if r.classify(n).recognized {
			recognized++
		}
	}
	w := r.weight
	if w == 0 {
		w = 1
	}
	return w * float64(recognized) / float64(len(names))
}

func (r *rules) ClassifyAndOrder(names []string) []Entry {
	tiebreak := r.tiebreak
	if tiebreak == nil {
		tiebreak = strings.Compare
	}

	entries := make([]Entry, 0, len(names))
	for _, n := range names {
		c := r.classify(n)
		if c.category == Excluded {
			continue
		}
		entries = append(entries, Entry{Name: n, Category: c.category, Key: c.key})
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(a.Category, b.Category),
			a.Key.Compare(b.Key),
			tiebreak(a.Name, b.Name),
		)
	})
	return entries
}
