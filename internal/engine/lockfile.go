//go:build !js && !wasip1

package engine

import (
	"fmt"
	"os"
)

// openLockFile opens (creating if needed) the sidecar lock file for a table
// directory. Shared by the unix and windows tableLock implementations, which
// differ only in the OS locking primitive applied to the returned file.
func openLockFile(dir string) (*os.File, error) {
	f, err := os.OpenFile(dir+".lock", os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("engine: cannot open lock file: %w", err)
	}
	return f, nil
}

// closeLockFile closes f and removes the lock file from disk.
func closeLockFile(f *os.File) error {
	name := f.Name()
	err := f.Close()
	os.Remove(name)
	return err
}
