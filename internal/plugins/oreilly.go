package plugins

import "regexp"

var (
	oreillyIndicators = []string{"BEGINN", "Inhalt", "Vorwort", "Kapitel_", "Chapter_", "Index", "Anhang"}
	oreillyFront      = []string{"BEGINN", "Inhalt", "Vorwort"}

	chapterRe = regexp.MustCompile(`(?i)(?:Kapitel|Chapter)_(\d+)_`)
)

// NewOReilly recognizes O'Reilly downloads, which mix German and English
// markers: BEGINN, Inhalt, Vorwort, Kapitel_<n>_ or Chapter_<n>_, Anhang, Index.
func NewOReilly() Plugin {
	return &rules{
		name: "oreilly",
		gate: func(names []string) bool {
			count := countIndicators(names, oreillyIndicators)
			hasBeginn := anyMarker(names, []string{"BEGINN"})
			return (hasBeginn && count >= 2) || (anyMatch(names, chapterRe) && count >= 3)
		},
		classify: classifyOReilly,
	}
}

func classifyOReilly(name string) classification {
	if i := markerIndex(name, oreillyFront); i >= 0 {
		return classification{category: FrontMatter, key: SortKey{Major: i}, recognized: true}
	}
	if n, ok := submatchInt(chapterRe, name); ok {
		return classification{category: Body, key: SortKey{Major: n}, recognized: true}
	}
	if markerIndex(name, []string{"Anhang", "Appendix"}) >= 0 {
		return classification{category: Appendix, recognized: true}
	}
	if markerIndex(name, []string{"Index"}) >= 0 {
		return classification{category: BackMatter, recognized: true}
	}
	return fallthroughBody()
}
