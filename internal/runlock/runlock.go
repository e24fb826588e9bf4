// Package runlock guards an output prefix against concurrent sequencer runs.
// Two orchestrators writing manifests and launching stages under the same
// outdir would interleave remote writes unpredictably.
package runlock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock is a held file lock scoped to one output prefix.
type Lock struct {
	flock *flock.Flock
	path  string
}

// Acquire takes a non-blocking lock keyed on the output prefix. It fails
// immediately when another sequencer already holds it.
func Acquire(lockDir, outputBase string) (*Lock, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	digest := sha256.Sum256([]byte(outputBase))
	path := filepath.Join(lockDir, hex.EncodeToString(digest[:8])+".lock")

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another run is already active for this outdir")
	}
	return &Lock{flock: fl, path: path}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release drops the lock. Safe to call on a nil lock.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}
