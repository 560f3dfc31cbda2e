package plugins

import "strings"

// FallbackName identifies the plugin used when no convention is recognized.
const FallbackName = "default"

// NewFallback treats every file as body text in case-sensitive lexical order.
func NewFallback() Plugin {
	return &rules{
		name:     FallbackName,
		gate:     func([]string) bool { return false },
		classify: func(string) classification { return classification{category: Body} },
		tiebreak: strings.Compare,
	}
}
