package plugins

import "regexp"

var (
	wichmannIndicators = []string{"Vorwort", "Inhalt", "_1_", "_2_", "Anhnge", "Stichwortverzeichnis"}
	wichmannFront      = []string{"Vorwort", "Inhalt"}
	// Downloads drop the umlaut; accept both spellings.
	wichmannAppendix = []string{"Anhnge", "Anhänge"}
	wichmannBack     = []string{"Stichwortverzeichnis"}

	underscoreNumRe = regexp.MustCompile(`_(\d+)_`)
)

// NewWichmann recognizes Wichmann Verlag downloads: Vorwort, Inhalt, bare
// underscore-delimited chapter numbers (_3_), Anhänge, Stichwortverzeichnis.
func NewWichmann() Plugin {
	return &rules{
		name: "wichmann",
		gate: func(names []string) bool {
			return countIndicators(names, wichmannIndicators) >= 2 &&
				anyMarker(names, wichmannFront) &&
				anyMatch(names, underscoreNumRe)
		},
		classify: classifyWichmann,
	}
}

func classifyWichmann(name string) classification {
	if i := markerIndex(name, wichmannFront); i >= 0 {
		return classification{category: FrontMatter, key: SortKey{Major: i}, recognized: true}
	}
	// Appendix and index files may carry their own _n_ numbering.
	if markerIndex(name, wichmannAppendix) >= 0 {
		return classification{category: Appendix, recognized: true}
	}
	if i := markerIndex(name, wichmannBack); i >= 0 {
		return classification{category: BackMatter, key: SortKey{Major: i}, recognized: true}
	}
	if n, ok := submatchInt(underscoreNumRe, name); ok {
		return classification{category: Body, key: SortKey{Major: n}, recognized: true}
	}
	return fallthroughBody()
}
