package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"src.solrepl.sh/pkg/tt"
)

func TestDedent(t *testing.T) {
	tt.Test(t, tt.Fn("Dedent", Dedent), tt.Table{
		tt.Args("\n  a\n  b\n").Rets("a\nb\n"),
		tt.Args("\n\t\tx\n\t\t  y\n\t\tz").Rets("x\n  y\nz"),
		tt.Args("  a\n\n    b").Rets("a\n\n  b"),
		tt.Args("  a\n b").Rets(" a\nb"),
		tt.Args("no indent").Rets("no indent"),
	})
}

func TestSet(t *testing.T) {
	x := 1
	t.Run("inner", func(t *testing.T) {
		Set(t, &x, 2)
		if x != 2 {
			t.Errorf("x = %d during test, want 2", x)
		}
	})
	if x != 1 {
		t.Errorf("x = %d after test, want 1", x)
	}
}

func TestSetenv(t *testing.T) {
	const name = "SOLREPL_TESTUTIL_VAR"
	os.Unsetenv(name)
	t.Run("inner", func(t *testing.T) {
		Setenv(t, name, "value")
		if got := os.Getenv(name); got != "value" {
			t.Errorf("got %q", got)
		}
	})
	if _, ok := os.LookupEnv(name); ok {
		t.Errorf("%s still set after test", name)
	}
}

func TestInTempDir(t *testing.T) {
	oldWd, _ := os.Getwd()
	var dir string
	t.Run("inner", func(t *testing.T) {
		dir = InTempDir(t)
		wd, _ := os.Getwd()
		if wd != dir {
			t.Errorf("wd = %q, want %q", wd, dir)
		}
		resolved, _ := filepath.EvalSymlinks(dir)
		if resolved != dir {
			t.Errorf("TempDir returned %q with unresolved symlinks", dir)
		}
	})
	if wd, _ := os.Getwd(); wd != oldWd {
		t.Errorf("wd not restored: %q", wd)
	}
}

func TestScaled(t *testing.T) {
	Setenv(t, TimeScaleEnv, "2")
	if got := Scaled(time.Second); got != 2*time.Second {
		t.Errorf("Scaled(1s) = %v", got)
	}
	Setenv(t, TimeScaleEnv, "bad")
	if got := Scaled(time.Second); got != time.Second {
		t.Errorf("Scaled(1s) with bad scale = %v", got)
	}
}
