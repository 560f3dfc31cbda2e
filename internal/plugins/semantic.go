package plugins

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	semanticCoverRe    = regexp.MustCompile(`(?i)(cover|deckblatt|titel|title)`)
	semanticFrontRe    = regexp.MustCompile(`(?i)(inhaltsverzeichnis|contents|table.?of.?contents|toc|vorwort|preface|introduction|einleitung|einführung)`)
	semanticChapterRe  = regexp.MustCompile(`(?i)(kapitel|chapter|teil|part|abschnitt|section)`)
	semanticAppendixRe = regexp.MustCompile(`(?i)(anhang|appendix|appendices|annex)`)
	semanticBackRe     = regexp.MustCompile(`(?i)(glossar|glossary|index|literatur|bibliography|references|quellenverzeichnis|nachwort|epilogue|afterword)`)
)

// semanticWeight keeps generic structure words below any publisher convention
// that recognizes the same files.
const semanticWeight = 0.5

// NewSemantic recognizes generic German and English structure words (cover,
// Vorwort, chapter, Anhang, index, ...) and orders within a section by
// natural comparison.
func NewSemantic() Plugin {
	return &rules{
		name: "semantic",
		gate: func(names []string) bool {
			for _, n := range names {
				if classifySemantic(n).recognized {
					return true
				}
			}
			return false
		},
		classify: classifySemantic,
		tiebreak: NaturalCompare,
		weight:   semanticWeight,
	}
}

func classifySemantic(name string) classification {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	switch {
	case semanticCoverRe.MatchString(stem):
		return classification{category: FrontMatter, key: SortKey{Major: 0}, recognized: true}
	case semanticFrontRe.MatchString(stem):
		return classification{category: FrontMatter, key: SortKey{Major: 1}, recognized: true}
	case semanticChapterRe.MatchString(stem):
		return classification{category: Body, recognized: true}
	case semanticAppendixRe.MatchString(stem):
		return classification{category: Appendix, recognized: true}
	case semanticBackRe.MatchString(stem):
		return classification{category: BackMatter, recognized: true}
	}
	return fallthroughBody()
}
