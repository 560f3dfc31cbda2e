package config

import (
	"runtime"
	"time"
)

// Config holds bookshelf configuration.
// Stored at: ./bookshelf.yaml or ~/.bookshelf/config.yaml
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"` // debug, info, warn, error

	// Workers bounds concurrent document preparation. 1 is fully sequential.
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`

	// MinConfidence is the score a naming convention must exceed.
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`

	Exclude         []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`                            // doublestar globs relative to the source
	Extensions      []string `mapstructure:"extensions" yaml:"extensions" json:"extensions"`                   // document extensions
	DisabledPlugins []string `mapstructure:"disabled_plugins" yaml:"disabled_plugins" json:"disabled_plugins"` // convention names

	CommitRetries    int           `mapstructure:"commit_retries" yaml:"commit_retries" json:"commit_retries"`
	CommitRetryDelay time.Duration `mapstructure:"commit_retry_delay" yaml:"commit_retry_delay" json:"commit_retry_delay"`

	// VerifyStandalone opens single documents before copying them.
	VerifyStandalone bool `mapstructure:"verify_standalone" yaml:"verify_standalone" json:"verify_standalone"`

	// Lock serializes runs against the same target.
	Lock bool `mapstructure:"lock" yaml:"lock" json:"lock"`
}

// DefaultWorkers is runtime.NumCPU capped at 8.
func DefaultWorkers() int {
	return min(runtime.NumCPU(), 8)
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:         "warn",
		Workers:          DefaultWorkers(),
		MinConfidence:    0.25,
		Exclude:          []string{"**/._*"},
		Extensions:       []string{".pdf"},
		DisabledPlugins:  []string{},
		CommitRetries:    3,
		CommitRetryDelay: 100 * time.Millisecond,
		VerifyStandalone: true,
		Lock:             true,
	}
}
