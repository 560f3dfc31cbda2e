// Package naming hands out unique output file names for one consolidation run.
package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrExhausted is returned when no suffix up to the limit is free.
var ErrExhausted = errors.New("no free output name")

// DefaultMaxSuffix bounds the _N search.
const DefaultMaxSuffix = 10000

// Namer tracks claimed names. A Namer belongs to one run and is not safe
// for concurrent use.
type Namer struct {
	claimed   map[string]struct{}
	maxSuffix int
}

// New returns an empty Namer. maxSuffix <= 0 uses DefaultMaxSuffix.
func New(maxSuffix int) *Namer {
	if maxSuffix <= 0 {
		maxSuffix = DefaultMaxSuffix
	}
	return &Namer{claimed: make(map[string]struct{}), maxSuffix: maxSuffix}
}

// Seed marks every entry already in dir as claimed. A missing dir is empty.
func (n *Namer) Seed(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read target %s: %w", dir, err)
	}
	for _, e := range entries {
		n.claimed[e.Name()] = struct{}{}
	}
	return nil
}

// Claimed reports whether name is taken.
func (n *Namer) Claimed(name string) bool {
	_, ok := n.claimed[name]
	return ok
}

// Claim reserves proposed, or the first free "stem_N.ext" with N counting
// from 1.
func (n *Namer) Claim(proposed string) (string, error) {
	if proposed == "" || proposed != filepath.Base(proposed) {
		return "", fmt.Errorf("invalid output name %q", proposed)
	}
	if !n.Claimed(proposed) {
		n.claimed[proposed] = struct{}{}
		return proposed, nil
	}

	ext := filepath.Ext(proposed)
	stem := strings.TrimSuffix(proposed, ext)
	for i := 1; i <= n.maxSuffix; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !n.Claimed(candidate) {
			n.claimed[candidate] = struct{}{}
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %w", proposed, ErrExhausted)
}
