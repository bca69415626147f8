//go:build windows

package engine

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"github.com/mlaurent/colbase/internal/enginerr"
)

var (
	modkernel32      = syscall.NewLazyDLL("kernel32.dll")
	procLockFileEx   = modkernel32.NewProc("LockFileEx")
	procUnlockFileEx = modkernel32.NewProc("UnlockFileEx")
)

const (
	lockfileExclusiveLock = 0x00000002
	lockfileFailImmediate = 0x00000001
)

// tableLock represents an OS-level advisory lock on a table directory (Windows implementation).
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

	ol := new(syscall.Overlapped)
	r1, _, _ := procLockFileEx.Call(
		f.Fd(),
		uintptr(lockfileExclusiveLock|lockfileFailImmediate),
		0,
		1, 0,
		uintptr(unsafe.Pointer(ol)),
	)
	if r1 == 0 {
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
	ol := new(syscall.Overlapped)
	procUnlockFileEx.Call(
		tl.file.Fd(),
		0,
		1, 0,
		uintptr(unsafe.Pointer(ol)),
	)
	return closeLockFile(tl.file)
}
