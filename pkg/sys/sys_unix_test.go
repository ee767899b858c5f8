//go:build !windows && !plan9 && !js

package sys

import (
	"testing"

	"src.solrepl.sh/pkg/prog/progtest"
)

func TestIsATTY_Pty(t *testing.T) {
	_, tty := progtest.OpenPty(t)
	if !IsATTY(tty.Fd()) {
		t.Errorf("IsATTY(tty) = false")
	}
}
