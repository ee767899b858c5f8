package sys

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"src.solrepl.sh/pkg/must"
)

func TestIsATTY_Pipe(t *testing.T) {
	r, w := must.Pipe()
	defer r.Close()
	defer w.Close()
	if IsATTY(r.Fd()) {
		t.Errorf("IsATTY(pipe) = true")
	}
}

func TestMkdirPrivate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := MkdirPrivate(dir); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", dir)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0077 != 0 {
		t.Errorf("%s has mode %v, want no group or other bits", dir, info.Mode().Perm())
	}
}
