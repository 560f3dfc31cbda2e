package consolidate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

// Staged output lives next to its destination under a hidden name until it
// is published.
const (
	stagePrefix = ".bookshelf-"
	stageSuffix = ".tmp"
)

func stagePath(target string) string {
	return filepath.Join(target, stagePrefix+uuid.NewString()+stageSuffix)
}

func isStageName(name string) bool {
	return strings.HasPrefix(name, stagePrefix) && strings.HasSuffix(name, stageSuffix)
}

// sweepStaging removes staging files left behind by an interrupted run.
// Callers hold the target lock.
func (o *Orchestrator) sweepStaging(target string) {
	entries, err := os.ReadDir(target)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.Type().IsRegular() && isStageName(e.Name()) {
			path := filepath.Join(target, e.Name())
			if err := os.Remove(path); err != nil {
				o.logger.Warn("failed to remove stale staging file", "path", path, "error", err)
				continue
			}
			o.logger.Info("removed stale staging file", "path", path)
		}
	}
}

// copyStaged copies src byte for byte to a new staging file in target.
func copyStaged(src, target string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	staged := stagePath(target)
	if err := copyExclusive(in, staged); err != nil {
		return "", err
	}

	// Keep the source modification time; listings sort by it.
	if info, err := in.Stat(); err == nil {
		_ = os.Chtimes(staged, info.ModTime(), info.ModTime())
	}
	return staged, nil
}

// copyExclusive writes r to path, failing with fs.ErrExist if path exists.
// A partial file is removed.
func copyExclusive(r io.Reader, path string) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// publishOnce makes staged visible as final without replacing anything.
// Hard links are tried first; filesystems without them get an exclusive copy.
func publishOnce(staged, final string) error {
	err := os.Link(staged, final)
	if err == nil || errors.Is(err, fs.ErrExist) {
		return err
	}

	in, openErr := os.Open(staged)
	if openErr != nil {
		return fmt.Errorf("link: %v; reopen staged: %w", err, openErr)
	}
	defer in.Close()
	return copyExclusive(in, final)
}

// publish moves a staged file to its final name in target, claiming the
// next free name if something appeared under the claimed one in the
// meantime. Transient errors are retried.
func (r *run) publish(ctx context.Context, staged, target, proposed, name string) (string, error) {
	defer os.Remove(staged)

	for {
		final := filepath.Join(target, name)
		err := retry.Do(
			func() error { return publishOnce(staged, final) },
			retry.Context(ctx),
			retry.Attempts(uint(r.retries)),
			retry.Delay(r.retryDelay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.RetryIf(func(err error) bool { return !errors.Is(err, fs.ErrExist) }),
			retry.OnRetry(func(n uint, err error) {
				r.logger.Debug("retrying publish", "output", final, "attempt", n+1, "error", err)
			}),
		)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("publish %s: %w", final, err)
		}

		r.logger.Warn("output name taken during run, claiming another", "output", name)
		next, claimErr := r.namer.Claim(proposed)
		if claimErr != nil {
			return "", claimErr
		}
		name = next
	}
}
