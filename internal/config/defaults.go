package config

import (
	"fmt"
	"strings"
)

// Entry describes one configuration key.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// Entries lists c as documented key/value pairs in file order.
func (c *Config) Entries() []Entry {
	return []Entry{
		{Key: "log_level", Value: c.LogLevel, Description: "Log level for stderr output (debug, info, warn, error)"},
		{Key: "workers", Value: c.Workers, Description: "Documents prepared concurrently; 1 is fully sequential"},
		{Key: "min_confidence", Value: c.MinConfidence, Description: "Score a naming convention must exceed to be used"},
		{Key: "exclude", Value: c.Exclude, Description: "Glob patterns (relative to the source) to skip"},
		{Key: "extensions", Value: c.Extensions, Description: "File extensions treated as documents"},
		{Key: "disabled_plugins", Value: c.DisabledPlugins, Description: "Naming conventions to ignore"},
		{Key: "commit_retries", Value: c.CommitRetries, Description: "Attempts to publish an output file"},
		{Key: "commit_retry_delay", Value: c.CommitRetryDelay.String(), Description: "Initial delay between publish attempts"},
		{Key: "verify_standalone", Value: c.VerifyStandalone, Description: "Open single documents before copying to reject corrupt files"},
		{Key: "lock", Value: c.Lock, Description: "Hold a lock on the target for the duration of a run"},
	}
}

// DefaultEntries returns the default configuration entries.
func DefaultEntries() []Entry {
	return DefaultConfig().Entries()
}

// GetDefault returns the default entry for key, or nil.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// FormatValue renders an entry value for display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case []string:
		return "[" + strings.Join(val, ", ") + "]"
	default:
		return fmt.Sprint(val)
	}
}
