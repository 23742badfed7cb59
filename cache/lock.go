package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by TryLock when another process holds the run lock.
var ErrLocked = errors.New("cache is locked by another index run")

// RunLock serializes index runs across processes with <cache>/.lock.
type RunLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewRunLock creates the lock for a cache directory.
func NewRunLock(dir string) *RunLock {
	lockPath := filepath.Join(dir, ".lock")
	return &RunLock{path: lockPath, flock: flock.New(lockPath)}
}

// Lock blocks until the lock is held.
func (l *RunLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("acquiring run lock: %w", err)
	}
	l.locked = true
	return nil
}

// TryLock takes the lock without waiting; ErrLocked means another run is active.
func (l *RunLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}
	ok, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring run lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (l *RunLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("releasing run lock: %w", err)
	}
	return nil
}
