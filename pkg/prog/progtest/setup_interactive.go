//go:build !windows && !plan9 && !js

package progtest

import (
	"os"

	"github.com/creack/pty"
	"src.solrepl.sh/pkg/testutil"
)

// OpenPty opens a pseudo terminal pair for tests of interactive programs. The
// pty end is what a terminal emulator would hold; the tty end should be given
// to the program as stdin and stdout. Both are closed when the test finishes.
func OpenPty(c testutil.Cleanuper) (ptyFile, ttyFile *os.File) {
	ptyFile, ttyFile, err := pty.Open()
	if err != nil {
		panic(err)
	}
	c.Cleanup(func() {
		ttyFile.Close()
		ptyFile.Close()
	})
	return ptyFile, ttyFile
}
