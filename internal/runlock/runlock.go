// Package runlock enforces single-run execution. A run owns the remote
// browser session and the image cache; two concurrent runs would fight
// over both, so acquisition fails fast instead of blocking.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = "deckhand.lock"

// Lock is a held run lock. Release it when the run finishes.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the run lock under dir, creating the directory if needed.
// It returns an error immediately if another run already holds it.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	path := filepath.Join(dir, lockFileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another deckhand run is already in progress (lock %s)", path)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. Safe to call once after a successful Acquire.
func (l *Lock) Release() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}
