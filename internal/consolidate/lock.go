package consolidate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrTargetLocked is returned when another run holds the target.
var ErrTargetLocked = errors.New("target is locked by another run")

// targetLock is an exclusive advisory lock on a target directory.
type targetLock struct {
	flock *flock.Flock
	path  string
}

// lockTarget takes the lock at path without blocking.
func lockTarget(path string) (*targetLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(path)
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to try lock on %s: %w", path, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w (%s)", ErrTargetLocked, path)
	}
	return &targetLock{flock: fl, path: path}, nil
}

func (l *targetLock) unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
