// Package sys provides system utilities with the same API across OSes.
package sys

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsATTY determines whether the given file is a terminal.
func IsATTY(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// MkdirPrivate creates a directory and all its missing parents, readable and
// writable only by the current user. On Unix, the process umask is tightened
// while the directories are created, so that intermediate directories are not
// left group- or world-accessible.
func MkdirPrivate(dir string) error {
	restore := restrictUmask()
	defer restore()
	return os.MkdirAll(dir, 0700)
}
