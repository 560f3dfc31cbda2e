// Package plan turns a collection directory into an ordered merge plan.
package plan

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jackzampolin/bookshelf/internal/plugins"
	"github.com/jackzampolin/bookshelf/internal/scan"
)

// OutputExt is the extension of merged output.
const OutputExt = ".pdf"

// MergePlan is the resolved page order for one collection.
type MergePlan struct {
	// Source is the collection directory.
	Source string `json:"source" yaml:"source"`

	// Files are member paths in merge order, duplicates removed.
	Files []string `json:"files" yaml:"files"`

	// Entries carry the classification behind Files, index for index.
	Entries []plugins.Entry `json:"entries" yaml:"entries"`

	// Excluded are member paths dropped as duplicates.
	Excluded []string `json:"excluded,omitempty" yaml:"excluded,omitempty"`

	Plugin   string  `json:"plugin" yaml:"plugin"`
	Score    float64 `json:"score" yaml:"score"`
	Fallback bool    `json:"fallback" yaml:"fallback"`

	// BaseName is the collection directory's name.
	BaseName string `json:"base_name" yaml:"base_name"`
}

// OutputName is the proposed file name for the merged document.
func (p *MergePlan) OutputName() string {
	return p.BaseName + OutputExt
}

// EmptyCollectionError means every member of a collection was excluded.
type EmptyCollectionError struct {
	Dir      string
	Excluded []string
}

func (e *EmptyCollectionError) Error() string {
	return fmt.Sprintf("collection %s: all %d files excluded as duplicates", e.Dir, len(e.Excluded))
}

// Config configures a Planner.
type Config struct {
	Registry *plugins.Registry
	Logger   *slog.Logger
}

// Planner builds merge plans.
type Planner struct {
	registry *plugins.Registry
	logger   *slog.Logger
}

// New creates a Planner. A nil Registry gets the builtin conventions.
func New(cfg Config) (*Planner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := cfg.Registry
	if registry == nil {
		r, err := plugins.NewRegistry(plugins.Config{Logger: logger})
		if err != nil {
			return nil, err
		}
		registry = r
	}
	return &Planner{registry: registry, logger: logger.With("component", "plan")}, nil
}

// Plan selects a convention for the collection and orders its files.
func (p *Planner) Plan(unit scan.Unit) (*MergePlan, error) {
	if unit.Kind != scan.Collection {
		return nil, fmt.Errorf("plan %s: not a collection (%s)", unit.Path, unit.Kind)
	}

	// Conventions see base names; map them back to full paths afterwards.
	names := make([]string, len(unit.Files))
	byName := make(map[string]string, len(unit.Files))
	for i, f := range unit.Files {
		names[i] = filepath.Base(f)
		byName[names[i]] = f
	}

	sel := p.registry.Select(names)
	entries := sel.Plugin.ClassifyAndOrder(names)

	mp := &MergePlan{
		Source:   unit.Path,
		Entries:  entries,
		Plugin:   sel.Plugin.Name(),
		Score:    sel.Score,
		Fallback: sel.Fallback,
		BaseName: filepath.Base(unit.Path),
	}

	kept := make(map[string]bool, len(entries))
	for _, e := range entries {
		path, ok := byName[e.Name]
		if !ok || kept[e.Name] {
			return nil, fmt.Errorf("plan %s: plugin %s returned unknown or repeated file %q", unit.Path, mp.Plugin, e.Name)
		}
		kept[e.Name] = true
		mp.Files = append(mp.Files, path)
	}
	for _, n := range names {
		if !kept[n] {
			mp.Excluded = append(mp.Excluded, byName[n])
		}
	}

	if len(mp.Files) == 0 {
		return nil, &EmptyCollectionError{Dir: unit.Path, Excluded: mp.Excluded}
	}

	p.logger.Debug("planned collection",
		"unit", unit.Path,
		"plugin", mp.Plugin,
		"score", mp.Score,
		"files", len(mp.Files),
		"excluded", len(mp.Excluded))
	return mp, nil
}
