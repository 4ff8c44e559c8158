// Package runlock keeps two pipeline runs on the same host from writing to
// the store at once.
package runlock

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
)

// ErrLocked is returned when another run holds the lock.
var ErrLocked = errors.New("runlock: another run is in progress")

// Lock is a held run lock.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the lock at path without waiting.
func Acquire(path string) (*Lock, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "runlock: create %s", dir)
		}
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, eris.Wrapf(err, "runlock: lock %s", path)
	}
	if !ok {
		return nil, eris.Wrapf(ErrLocked, "runlock: %s", path)
	}
	return &Lock{fl: fl}, nil
}

// Release frees the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return eris.Wrap(err, "runlock: unlock")
	}
	return nil
}
