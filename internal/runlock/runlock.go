package runlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrTimeout reports that another process held the lock for the whole wait
// window.
var ErrTimeout = errors.New("run lock held by another process")

const retryInterval = 500 * time.Millisecond

// Lock guards a single acquisition run across processes.
type Lock struct {
	path string
	fl   *flock.Flock
}

// New returns a lock backed by the given file path. The file is created on
// first acquisition.
func New(path string) *Lock {
	return &Lock{path: path, fl: flock.New(path)}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire blocks until the lock is held, the timeout elapses, or ctx is
// canceled. A timeout of zero or less waits indefinitely.
func (l *Lock) Acquire(ctx context.Context, timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ok, err := l.fl.TryLockContext(ctx, retryInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w (path %s)", ErrTimeout, l.path)
		}
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (path %s)", ErrTimeout, l.path)
	}
	return nil
}

// Release unlocks the file. Releasing an unheld lock is a no-op.
func (l *Lock) Release() error {
	if !l.fl.Locked() {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}
