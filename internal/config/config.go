package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// LocalFileName is looked up in the working directory before the home config.
const LocalFileName = "bookshelf.yaml"

// Manager loads configuration from defaults, an optional YAML file and
// BOOKSHELF_* environment variables, in increasing precedence.
type Manager struct {
	v      *viper.Viper
	config *Config
}

// NewManager creates a new config manager and loads initial config.
// cfgFile wins when set; otherwise ./bookshelf.yaml, then homeConfig.
func NewManager(cfgFile, homeConfig string) (*Manager, error) {
	m := &Manager{v: viper.New()}

	if err := m.initViper(cfgFile, homeConfig); err != nil {
		return nil, err
	}

	cfg, err := m.load()
	if err != nil {
		return nil, err
	}
	m.config = cfg

	return m, nil
}

// initViper sets up viper with defaults and config file.
func (m *Manager) initViper(cfgFile, homeConfig string) error {
	defaults := DefaultConfig()
	m.v.SetDefault("log_level", defaults.LogLevel)
	m.v.SetDefault("workers", defaults.Workers)
	m.v.SetDefault("min_confidence", defaults.MinConfidence)
	m.v.SetDefault("exclude", defaults.Exclude)
	m.v.SetDefault("extensions", defaults.Extensions)
	m.v.SetDefault("disabled_plugins", defaults.DisabledPlugins)
	m.v.SetDefault("commit_retries", defaults.CommitRetries)
	m.v.SetDefault("commit_retry_delay", defaults.CommitRetryDelay)
	m.v.SetDefault("verify_standalone", defaults.VerifyStandalone)
	m.v.SetDefault("lock", defaults.Lock)

	// Environment variables with BOOKSHELF_ prefix
	m.v.SetEnvPrefix("BOOKSHELF")
	m.v.AutomaticEnv()

	if cfgFile == "" {
		for _, candidate := range []string{LocalFileName, homeConfig} {
			if candidate == "" {
				continue
			}
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	if cfgFile == "" {
		return nil
	}

	m.v.SetConfigFile(cfgFile)
	if err := m.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// load parses the current viper state into a validated Config.
func (m *Manager) load() (*Config, error) {
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	return m.config
}

// File returns the config file in use, or "" when running on defaults.
func (m *Manager) File() string {
	return m.v.ConfigFileUsed()
}

// Override sets key above every other source, typically from a CLI flag,
// and reloads.
func (m *Manager) Override(key string, value any) error {
	m.v.Set(key, value)
	cfg, err := m.load()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// fileConfig is the on-disk shape written by WriteDefault; durations are
// human-readable strings.
type fileConfig struct {
	LogLevel         string   `yaml:"log_level"`
	Workers          int      `yaml:"workers"`
	MinConfidence    float64  `yaml:"min_confidence"`
	Exclude          []string `yaml:"exclude"`
	Extensions       []string `yaml:"extensions"`
	DisabledPlugins  []string `yaml:"disabled_plugins"`
	CommitRetries    int      `yaml:"commit_retries"`
	CommitRetryDelay string   `yaml:"commit_retry_delay"`
	VerifyStandalone bool     `yaml:"verify_standalone"`
	Lock             bool     `yaml:"lock"`
}

// WriteDefault writes the default configuration to the specified path.
// An existing file is left alone.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(fileConfig{
		LogLevel:         cfg.LogLevel,
		Workers:          cfg.Workers,
		MinConfidence:    cfg.MinConfidence,
		Exclude:          cfg.Exclude,
		Extensions:       cfg.Extensions,
		DisabledPlugins:  cfg.DisabledPlugins,
		CommitRetries:    cfg.CommitRetries,
		CommitRetryDelay: cfg.CommitRetryDelay.String(),
		VerifyStandalone: cfg.VerifyStandalone,
		Lock:             cfg.Lock,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Bookshelf configuration
# Every key can be overridden with an environment variable: BOOKSHELF_<KEY>, e.g. BOOKSHELF_WORKERS=2
# Naming conventions: teil, hanser, mitp, oreilly, wichmann, semantic

`)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if _, err := f.Write(append(header, data...)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return f.Close()
}
