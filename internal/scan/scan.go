// Package scan walks a source tree and groups document files into units:
// one output book per unit.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind distinguishes unit shapes.
type Kind string

const (
	// Standalone is a single document copied as-is.
	Standalone Kind = "standalone"
	// Collection is a directory of documents merged into one.
	Collection Kind = "collection"
	// Unreadable is a sub-directory that could not be listed.
	Unreadable Kind = "unreadable"
)

// Unit is one output book.
type Unit struct {
	Kind Kind `json:"kind" yaml:"kind"`

	// Path is the document for a Standalone unit and the directory otherwise.
	Path string `json:"path" yaml:"path"`

	// Name is the proposed output name: the file name for Standalone, the
	// directory base name for Collection.
	Name string `json:"name" yaml:"name"`

	// Files holds member documents in discovery order.
	Files []string `json:"files,omitempty" yaml:"files,omitempty"`

	// Err is set for Unreadable units.
	Err error `json:"-" yaml:"-"`
}

// Result is the outcome of a scan.
type Result struct {
	Units []Unit `json:"units" yaml:"units"`

	// Excluded lists documents and directories skipped by an exclude
	// pattern, in walk order.
	Excluded []string `json:"excluded,omitempty" yaml:"excluded,omitempty"`
}

// Error reports a missing or unreadable source root.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// DefaultExtensions are the document types picked up when none are configured.
var DefaultExtensions = []string{".pdf"}

// Config configures a Scanner.
type Config struct {
	// Extensions are matched case-insensitively, with leading dot.
	Extensions []string

	// Exclude holds doublestar patterns matched against slash-separated
	// paths relative to the root. Matching directories are not entered.
	Exclude []string

	// Skip lists absolute directories never entered, such as the target.
	Skip []string

	Logger *slog.Logger
}

// Scanner discovers units.
type Scanner struct {
	extensions []string
	exclude    []string
	skip       []string
	logger     *slog.Logger
}

// New validates cfg and returns a Scanner.
func New(cfg Config) (*Scanner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	s := &Scanner{logger: logger.With("component", "scan")}
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		s.extensions = append(s.extensions, e)
	}

	for _, p := range cfg.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
		s.exclude = append(s.exclude, p)
	}

	for _, dir := range cfg.Skip {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve skip dir %s: %w", dir, err)
		}
		s.skip = append(s.skip, filepath.Clean(abs))
	}
	return s, nil
}

// Scan lists every document under root, grouped into units.
//
// Loose files in root become Standalone units. Below the root a directory
// with several documents becomes a Collection and a directory with exactly
// one becomes a Standalone unit for that file. Directories are visited
// depth-first in lexical order, each directory's own unit before its
// children. Symlinked directories are not followed.
//
// A missing or unreadable root returns *Error. Sub-directories that cannot be
// listed are reported as Unreadable units and the walk continues. Paths
// matched by an exclude pattern are listed in Result.Excluded.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, &Error{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &Error{Path: root, Err: errors.New("not a directory")}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &Error{Path: root, Err: err}
	}

	w := &walker{Scanner: s, root: root}
	docs, dirs := w.split(root, entries)
	for _, d := range docs {
		w.units = append(w.units, Unit{Kind: Standalone, Path: d, Name: filepath.Base(d), Files: []string{d}})
	}
	for _, dir := range dirs {
		if err := w.walk(ctx, dir); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("scan complete", "source", root, "units", len(w.units), "excluded", len(w.excluded))
	return &Result{Units: w.units, Excluded: w.excluded}, nil
}

type walker struct {
	*Scanner
	root     string
	units    []Unit
	excluded []string
}

func (w *walker) walk(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Warn("cannot read directory", "dir", dir, "error", err)
		w.units = append(w.units, Unit{Kind: Unreadable, Path: dir, Name: filepath.Base(dir), Err: err})
		return nil
	}

	docs, dirs := w.split(dir, entries)
	switch len(docs) {
	case 0:
	case 1:
		w.units = append(w.units, Unit{Kind: Standalone, Path: docs[0], Name: filepath.Base(docs[0]), Files: docs})
	default:
		w.units = append(w.units, Unit{Kind: Collection, Path: dir, Name: filepath.Base(dir), Files: docs})
	}

	for _, sub := range dirs {
		if err := w.walk(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}

// split returns the documents and walkable sub-directories in entries,
// both in lexical order.
func (w *walker) split(dir string, entries []fs.DirEntry) (docs, dirs []string) {
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if w.matchesExclude(path) {
			if e.IsDir() || w.isDocument(path) {
				w.logger.Debug("excluded by pattern", "path", path)
				w.excluded = append(w.excluded, path)
			}
			continue
		}

		switch {
		case e.IsDir():
			if !w.skipped(path) {
				dirs = append(dirs, path)
			}
		case e.Type()&fs.ModeSymlink != 0:
			// Follow file links only.
			info, err := os.Stat(path)
			if err != nil {
				w.logger.Debug("dangling symlink", "path", path, "error", err)
				continue
			}
			if info.Mode().IsRegular() && w.isDocument(path) {
				docs = append(docs, path)
			}
		case e.Type().IsRegular():
			if w.isDocument(path) {
				docs = append(docs, path)
			}
		}
	}
	slices.Sort(docs)
	slices.Sort(dirs)
	return docs, dirs
}

func (s *Scanner) isDocument(path string) bool {
	return slices.Contains(s.extensions, strings.ToLower(filepath.Ext(path)))
}

func (w *walker) matchesExclude(path string) bool {
	if len(w.exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range w.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) skipped(dir string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	return slices.Contains(s.skip, filepath.Clean(abs))
}
