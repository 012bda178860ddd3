//go:build !windows

package repos

import (
	"os"

	"golang.org/x/sys/unix"
)

// flock locks belong to the open file description, so two opens of the
// same path exclude each other even inside one process.
func lockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
