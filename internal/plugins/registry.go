package plugins

import (
	"fmt"
	"log/slog"
	"slices"
)

// DefaultMinConfidence is the score a convention must exceed to be chosen
// over the fallback.
const DefaultMinConfidence = 0.25

// Builtins returns the builtin conventions in registration order.
// Earlier entries win ties.
func Builtins() []Plugin {
	return []Plugin{
		NewTeil(),
		NewHanser(),
		NewMitp(),
		NewOReilly(),
		NewWichmann(),
		NewSemantic(),
	}
}

// Config configures a Registry.
type Config struct {
	// MinConfidence defaults to DefaultMinConfidence when nil. Zero is a
	// valid threshold: any positive score wins.
	MinConfidence *float64

	// Disabled lists builtin names to leave out.
	Disabled []string

	Logger *slog.Logger
}

// Registry picks the convention for a collection.
type Registry struct {
	plugins   []Plugin
	fallback  Plugin
	threshold float64
	logger    *slog.Logger
}

// Selection is the outcome of Select.
type Selection struct {
	Plugin   Plugin
	Score    float64
	Fallback bool
}

// NewRegistry builds a registry holding the builtins minus cfg.Disabled.
func NewRegistry(cfg Config) (*Registry, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	threshold := DefaultMinConfidence
	if cfg.MinConfidence != nil {
		threshold = *cfg.MinConfidence
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("min confidence %v out of range [0,1]", threshold)
	}

	r := &Registry{
		fallback:  NewFallback(),
		threshold: threshold,
		logger:    logger.With("component", "plugins"),
	}

	known := make(map[string]bool)
	for _, p := range Builtins() {
		known[p.Name()] = true
		if slices.Contains(cfg.Disabled, p.Name()) {
			continue
		}
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	for _, name := range cfg.Disabled {
		if !known[name] {
			return nil, fmt.Errorf("unknown plugin %q", name)
		}
	}
	return r, nil
}

// Register appends p after the existing plugins.
func (r *Registry) Register(p Plugin) error {
	if p.Name() == FallbackName {
		return fmt.Errorf("plugin name %q is reserved", FallbackName)
	}
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin %q already registered", p.Name())
		}
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// Names returns registered plugin names in registration order, fallback last.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins)+1)
	for _, p := range r.plugins {
		names = append(names, p.Name())
	}
	return append(names, r.fallback.Name())
}

// Select returns the plugin with the strictly highest score for names, or the
// fallback if no plugin scores above the threshold.
func (r *Registry) Select(names []string) Selection {
	var best Selection
	for _, p := range r.plugins {
		score := p.MatchScore(names)
		r.logger.Debug("scored plugin", "plugin", p.Name(), "score", score)
		if best.Plugin == nil || score > best.Score {
			best = Selection{Plugin: p, Score: score}
		}
	}

	if best.Plugin == nil || best.Score <= r.threshold {
		return Selection{Plugin: r.fallback, Score: best.Score, Fallback: true}
	}
	return best
}
