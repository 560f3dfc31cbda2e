package plugins

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// markerIndex returns the position of the first marker contained in name,
// ignoring case, or -1.
func markerIndex(name string, markers []string) int {
	lower := strings.ToLower(name)
	for i, m := range markers {
		if strings.Contains(lower, strings.ToLower(m)) {
			return i
		}
	}
	return -1
}

// countIndicators returns how many indicators appear in at least one name.
func countIndicators(names, indicators []string) int {
	n := 0
	for _, ind := range indicators {
		for _, name := range names {
			if markerIndex(name, []string{ind}) >= 0 {
				n++
				break
			}
		}
	}
	return n
}

func anyMatch(names []string, re *regexp.Regexp) bool {
	for _, n := range names {
		if re.MatchString(n) {
			return true
		}
	}
	return false
}

func anyMarker(names, markers []string) bool {
	for _, n := range names {
		if markerIndex(n, markers) >= 0 {
			return true
		}
	}
	return false
}

// submatchInt parses the first capture group of re in s.
func submatchInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// letterOrdinal maps A..Z (any case) to 1..26.
func letterOrdinal(s string) int {
	if s == "" {
		return 0
	}
	r := unicode.ToUpper(rune(s[0]))
	if r < 'A' || r > 'Z' {
		return 0
	}
	return int(r-'A') + 1
}

var romanValues = map[rune]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}

// parseRoman converts a Roman numeral (subtractive notation, any case).
func parseRoman(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	total, prev := 0, 0
	runes := []rune(strings.ToUpper(s))
	for i := len(runes) - 1; i >= 0; i-- {
		v, ok := romanValues[runes[i]]
		if !ok {
			return 0, false
		}
		if v < prev {
			total -= v
		} else {
			total += v
			prev = v
		}
	}
	return total, true
}

// parsePart accepts a Roman or Arabic part number.
func parsePart(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if n, ok := parseRoman(s); ok {
		return n
	}
	return 0
}

// foldCompare orders case-insensitively, then by bytes.
func foldCompare(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// NaturalCompare compares strings treating runs of digits as numbers and
// letters case-insensitively, so "part2" < "part10". Strings that compare
// equal that way fall back to byte order.
func NaturalCompare(a, b string) int {
	ai, bi := 0, 0
	for ai < len(a) && bi < len(b) {
		ca, cb := a[ai], b[bi]
		if isDigit(ca) && isDigit(cb) {
			as, ae := digitRun(a, ai)
			bs, be := digitRun(b, bi)
			if c := compareDigits(a[as:ae], b[bs:be]); c != 0 {
				return c
			}
			ai, bi = ae, be
			continue
		}
		la, lb := lowerByte(ca), lowerByte(cb)
		if la != lb {
			if la < lb {
				return -1
			}
			return 1
		}
		ai++
		bi++
	}
	switch {
	case len(a)-ai < len(b)-bi:
		return -1
	case len(a)-ai > len(b)-bi:
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func lowerByte(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

// digitRun returns the run of digits starting at i with leading zeros skipped.
func digitRun(s string, i int) (start, end int) {
	end = i
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	start = i
	for start < end-1 && s[start] == '0' {
		start++
	}
	return start, end
}

// compareDigits compares two digit strings without leading zeros by value.
func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
