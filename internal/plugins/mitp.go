package plugins

import "regexp"

var (
	mitpIndicators = []string{
		"Cover", "Titel", "Inhaltsverzeichnis", "Einleitung",
		"Kapitel_", "Anhang_", "Glossar", "Stichwortverzeichnis",
	}
	mitpFront = []string{"Cover", "Titel", "Inhaltsverzeichnis", "Einleitung", "über den Autor", "über_den_Autor"}
	mitpBack  = []string{"Glossar", "Stichwortverzeichnis"}

	kapitelRe   = regexp.MustCompile(`(?i)Kapitel_(\d+)_`)
	anhangRe    = regexp.MustCompile(`(?i)Anhang_([A-Z])_`)
	duplicateRe = regexp.MustCompile(`(?i)\(\d+\)\.pdf$`)
)

// NewMitp recognizes mitp-Verlag downloads: Cover, Titel, Kapitel_<n>_,
// Anhang_<letter>_, Glossar and friends. Browser duplicates such as
// "Kapitel_3_Foo(1).pdf" are excluded.
func NewMitp() Plugin {
	return &rules{
		name: "mitp",
		gate: func(names []string) bool {
			return countIndicators(names, mitpIndicators) >= 3
		},
		classify: classifyMitp,
	}
}

func classifyMitp(name string) classification {
	if duplicateRe.MatchString(name) {
		return classification{category: Excluded, recognized: true}
	}
	if i := markerIndex(name, mitpFront); i >= 0 {
		return classification{category: FrontMatter, key: SortKey{Major: i}, recognized: true}
	}
	if n, ok := submatchInt(kapitelRe, name); ok {
		return classification{category: Body, key: SortKey{Major: n}, recognized: true}
	}
	if m := anhangRe.FindStringSubmatch(name); m != nil {
		return classification{category: Appendix, key: SortKey{Major: letterOrdinal(m[1])}, recognized: true}
	}
	if i := markerIndex(name, mitpBack); i >= 0 {
		return classification{category: BackMatter, key: SortKey{Major: i}, recognized: true}
	}
	return fallthroughBody()
}
