package flock

import (
	"context"
	"os"
	"path/filepath"
	"time"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// pollInterval is the wait between lock attempts in Acquire.
const pollInterval = 20 * time.Millisecond

// Lock is a held lock file. Release it exactly once.
type Lock struct {
	f *os.File
}

// Acquire opens or creates path and retries Exclusive until it succeeds,
// ctx is done, or timeout elapses. A timeout returns ErrLockTimeout.
func Acquire(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, tferrors.Wrap(err, "create lock directory")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600) //nolint:gosec // Path comes from config
	if err != nil {
		return nil, tferrors.Wrap(err, "open lock file")
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := Exclusive(f.Fd()); err == nil {
			return &Lock{f: f}, nil
		}
		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, tferrors.Wrapf(tferrors.ErrLockTimeout, "%s", path)
		}

		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Release unlocks and closes the lock file. The file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil

	if err := Unlock(f.Fd()); err != nil {
		_ = f.Close()
		return tferrors.Wrap(err, "release lock")
	}
	return f.Close()
}
