// Package lock provides the cross-process writer lock serializing
// snapshot creation on a shared data root.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// WriterLock is a cross-process exclusive lock over a data root. Every
// writer (snapshot create, index ensure, lineage record) takes it before
// mutating shared state; readers never do.
// Works on all platforms (Unix, Linux, macOS, Windows).
type WriterLock struct {
	path   string
	flock  *flock.Flock
	locked bool // explicit state tracking for clarity
}

// NewWriterLock creates a writer lock for the given data root.
// The lock file lives at <root>/.writer.lock
func NewWriterLock(root string) *WriterLock {
	lockPath := filepath.Join(root, ".writer.lock")
	return &WriterLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Lock acquires the exclusive lock, blocking until it is available.
// The lock file is created if it does not exist.
func (l *WriterLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire writer lock: %w", err)
	}

	l.locked = true
	return nil
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false if another process holds it.
func (l *WriterLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire writer lock: %w", err)
	}

	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call multiple times or on an
// unlocked WriterLock.
func (l *WriterLock) Unlock() error {
	if !l.locked {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		l.locked = false
		return fmt.Errorf("failed to release writer lock: %w", err)
	}

	l.locked = false
	return nil
}

// Path returns the path to the lock file.
func (l *WriterLock) Path() string {
	return l.path
}

// IsLocked returns true if this process currently holds the lock.
func (l *WriterLock) IsLocked() bool {
	return l.locked
}
