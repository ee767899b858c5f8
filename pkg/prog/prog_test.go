package prog_test

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	. "src.solrepl.sh/pkg/prog"
	"src.solrepl.sh/pkg/prog/progtest"
	"src.solrepl.sh/pkg/testutil"
)

var (
	Test        = progtest.Test
	ThatSolrepl = progtest.ThatSolrepl
)

func TestCommonFlagHandling(t *testing.T) {
	testutil.InTempDir(t)

	Test(t, testProgram{},
		ThatSolrepl("-bad-flag").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -bad-flag\nUsage:"),
		// -h is treated as a bad flag
		ThatSolrepl("-h").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -h\nUsage:"),

		ThatSolrepl("-help").
			WritesStdoutContaining("Usage: solrepl [flags]"),

		ThatSolrepl("-log", "debug.log").DoesNothing(),
	)

	if _, err := os.Stat("debug.log"); err != nil {
		t.Errorf("log file does not exist: %v", err)
	}
}

func TestFlagsAreRecorded(t *testing.T) {
	var got *Flags
	p := recordProgram{&got}
	Test(t, p, ThatSolrepl("-rpc", "http://node:8545", "-timeout", "3s", "-warnings").DoesNothing())

	if got.RPC != "http://node:8545" || got.Timeout != 3*time.Second || !got.Warnings {
		t.Errorf("got flags %+v", got)
	}
	for _, name := range []string{"rpc", "timeout", "warnings"} {
		if !got.Set[name] {
			t.Errorf("flag %s not recorded as set", name)
		}
	}
	if got.Set["solc"] {
		t.Errorf("flag solc recorded as set")
	}
}

func TestBadUsageAndExit(t *testing.T) {
	Test(t, testProgram{returnErr: BadUsage("lorem ipsum")},
		ThatSolrepl().ExitsWith(2).WritesStderrContaining("lorem ipsum\nUsage:"))
	Test(t, testProgram{returnErr: Exit(3)},
		ThatSolrepl().ExitsWith(3))
	Test(t, testProgram{returnErr: Exit(0)},
		ThatSolrepl().DoesNothing())
	Test(t, testProgram{returnErr: errors.New("some error")},
		ThatSolrepl().ExitsWith(2).WritesStderr("some error\n"))
}

func TestNoSuitableSubprogram(t *testing.T) {
	Test(t, testProgram{notSuitable: true},
		ThatSolrepl().
			ExitsWith(2).
			WritesStderr("internal error: no suitable subprogram\n"),
	)
}

func TestComposite(t *testing.T) {
	Test(t,
		Composite(testProgram{notSuitable: true}, testProgram{writeOut: "program 2"}),
		ThatSolrepl().WritesStdout("program 2"),
	)
}

func TestComposite_NoSuitableSubprogram(t *testing.T) {
	Test(t,
		Composite(testProgram{notSuitable: true}, testProgram{notSuitable: true}),
		ThatSolrepl().
			ExitsWith(2).
			WritesStderr("internal error: no suitable subprogram\n"),
	)
}

type testProgram struct {
	notSuitable bool
	writeOut    string
	returnErr   error
}

func (p testProgram) Run(fds [3]*os.File, f *Flags, args []string) error {
	if p.notSuitable {
		return ErrNotSuitable
	}
	fmt.Fprint(fds[1], p.writeOut)
	return p.returnErr
}

type recordProgram struct{ flags **Flags }

func (p recordProgram) Run(fds [3]*os.File, f *Flags, args []string) error {
	*p.flags = f
	return nil
}
