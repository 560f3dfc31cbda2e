package plugins

import (
	"regexp"
	"strconv"
	"strings"
)

// hanserRe matches "<stem>.fm.pdf", "<stem>.bm.pdf" and "<stem>.NNN.pdf".
// Hanser uses the ISBN as stem, e.g. 9783446461234.004.pdf.
var hanserRe = regexp.MustCompile(`(?i)^(.+)\.(fm|bm|\d{3})\.pdf$`)

// NewHanser recognizes Hanser Verlag downloads. Chapter suffixes compare as
// numbers, so .010 follows .009.
func NewHanser() Plugin {
	return &rules{
		name:     "hanser",
		gate:     hanserGate,
		classify: classifyHanser,
	}
}

// hanserGate requires at least two conforming files sharing a stem.
func hanserGate(names []string) bool {
	stems := make(map[string]int)
	for _, n := range names {
		m := hanserRe.FindStringSubmatch(n)
		if m == nil {
			continue
		}
		stem := strings.ToLower(m[1])
		stems[stem]++
		if stems[stem] >= 2 {
			return true
		}
	}
	return false
}

func classifyHanser(name string) classification {
	m := hanserRe.FindStringSubmatch(name)
	if m == nil {
		return fallthroughBody()
	}
	switch suffix := strings.ToLower(m[2]); suffix {
	case "fm":
		return classification{category: FrontMatter, recognized: true}
	case "bm":
		return classification{category: BackMatter, recognized: true}
	default:
		n, _ := strconv.Atoi(suffix)
		return classification{category: Body, key: SortKey{Major: n}, recognized: true}
	}
}
