//go:build !windows && !js && !wasip1

package engine

import (
	"fmt"
	"os"
	"syscall"

	"github.com/mlaurent/colbase/internal/enginerr"
)

// tableLock represents an OS-level advisory lock on a table directory (Unix implementation using flock).
type tableLock struct {
	file *os.File
}

// lockTableDir acquires an exclusive lock on the given table directory.
// Returns a tableLock that must be released with unlock().
func lockTableDir(dir string) (*tableLock, error) {
	f, err := openLockFile(dir)
	if err != nil {
		return nil, err
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("engine: table %q: %w", dir, enginerr.ErrTableLocked)
	}

	return &tableLock{file: f}, nil
}

// unlock releases the table lock.
func (tl *tableLock) unlock() error {
	if tl.file == nil {
		return nil
	}
	syscall.Flock(int(tl.file.Fd()), syscall.LOCK_UN)
	return closeLockFile(tl.file)
}
