package plugins

import "regexp"

var (
	teilFront = []string{"BEGINN", "Vorwort", "Inhaltsverzeichnis"}

	teilRe = regexp.MustCompile(`(?i)Teil_([IVXLC]+|\d+)_`)
)

// NewTeil recognizes books split into parts (Teil_I_, Teil_II_ or Teil_2_)
// with chapters inside them. Files sort by (part, chapter); a chapter file
// without a part marker has part 0, a part file without a chapter has
// chapter 0.
func NewTeil() Plugin {
	return &rules{
		name: "teil",
		gate: func(names []string) bool {
			return anyMatch(names, teilRe) &&
				(anyMarker(names, teilFront) || anyMatch(names, kapitelRe))
		},
		classify: classifyTeil,
		tiebreak: foldCompare,
	}
}

func classifyTeil(name string) classification {
	if i := markerIndex(name, teilFront); i >= 0 {
		return classification{category: FrontMatter, key: SortKey{Major: i}, recognized: true}
	}
	if markerIndex(name, []string{"Anhang"}) >= 0 {
		return classification{category: Appendix, recognized: true}
	}
	if markerIndex(name, []string{"Index"}) >= 0 {
		return classification{category: BackMatter, recognized: true}
	}

	part, hasPart := 0, false
	if m := teilRe.FindStringSubmatch(name); m != nil {
		part, hasPart = parsePart(m[1]), true
	}
	chapter, hasChapter := submatchInt(kapitelRe, name)
	if hasPart || hasChapter {
		return classification{category: Body, key: SortKey{Major: part, Minor: chapter}, recognized: true}
	}
	return fallthroughBody()
}
