package home

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the bookshelf home directory.
	DefaultDirName = ".bookshelf"

	// LocksDirName holds per-target lock files.
	LocksDirName = "locks"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the bookshelf home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.bookshelf).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// LocksPath returns the path to the lock directory.
func (d *Dir) LocksPath() string {
	return filepath.Join(d.path, LocksDirName)
}

// LockPath returns the lock file guarding a target directory. Equivalent
// spellings of the same target map to the same file.
func (d *Dir) LockPath(target string) (string, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolve target %s: %w", target, err)
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return filepath.Join(d.LocksPath(), hex.EncodeToString(sum[:8])+".lock"), nil
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create locks directory (this also creates the parent)
	if err := os.MkdirAll(d.LocksPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create locks directory: %w", err)
	}
	return nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
