package testutil

import (
	"os"
	"path/filepath"
)

// TempDir returns a temporary directory with symlinks in its path resolved.
// The directory is removed when the test finishes.
func TempDir(c TempDirer) string {
	dir, err := filepath.EvalSymlinks(c.TempDir())
	if err != nil {
		panic(err)
	}
	return dir
}

// InTempDir is like TempDir, but also changes into the directory for the
// duration of the test.
func InTempDir(c TempDirer) string {
	dir := TempDir(c)
	Chdir(c, dir)
	return dir
}

// TempHome points $HOME and $XDG_CONFIG_HOME to a new temporary directory for
// the duration of the test, and returns the directory.
func TempHome(c TempDirer) string {
	dir := TempDir(c)
	Setenv(c, "HOME", dir)
	Setenv(c, "XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	return dir
}

// Chdir changes into a directory, and restores the original working directory
// when the test finishes.
func Chdir(c Cleanuper, dir string) {
	oldWd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}
	c.Cleanup(func() {
		if err := os.Chdir(oldWd); err != nil {
			panic(err)
		}
	})
}
