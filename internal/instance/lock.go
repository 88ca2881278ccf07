// pattern: Imperative Shell
package instance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockDirName  = "locks"
	retryDelay   = 100 * time.Millisecond
	lockFileMode = 0o755
)

// ErrLocked is returned by Lock when another process holds the lock.
var ErrLocked = errors.New("lock is held by another process")

// Path returns the lock file path for name under dataDir.
func Path(dataDir, name string) string {
	return filepath.Join(dataDir, lockDirName, name+".lock")
}

// Lock takes the named lock without waiting. It returns ErrLocked when
// another process already holds it. The caller must Release the handle.
func Lock(dataDir, name string) (*flock.Flock, error) {
	fl, err := newFlock(dataDir, name)
	if err != nil {
		return nil, err
	}
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", name, ErrLocked)
	}
	return fl, nil
}

// Acquire waits for the named lock until ctx ends.
func Acquire(ctx context.Context, dataDir, name string) (*flock.Flock, error) {
	fl, err := newFlock(dataDir, name)
	if err != nil {
		return nil, err
	}
	locked, err := fl.TryLockContext(ctx, retryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", name, ErrLocked)
	}
	return fl, nil
}

// Held reports whether some process currently holds the named lock.
func Held(dataDir, name string) (bool, error) {
	path := Path(dataDir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to check lock: %w", err)
	}
	if locked {
		_ = fl.Unlock()
		return false, nil
	}
	return true, nil
}

// Release unlocks fl. A nil handle is ignored.
func Release(fl *flock.Flock) {
	if fl != nil {
		_ = fl.Unlock()
	}
}

func newFlock(dataDir, name string) (*flock.Flock, error) {
	path := Path(dataDir, name)
	if err := os.MkdirAll(filepath.Dir(path), lockFileMode); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	return flock.New(path), nil
}
