package buildinfo

import (
	"runtime"
	"testing"

	"src.solrepl.sh/pkg/prog"
	"src.solrepl.sh/pkg/prog/progtest"
)

func TestVersion(t *testing.T) {
	progtest.Test(t, Program,
		progtest.ThatSolrepl("-version").WritesStdout(Version+VersionSuffix+"\n"),
		progtest.ThatSolrepl("-version", "-json").
			WritesStdout(`{"version":"`+Version+VersionSuffix+`","goversion":"`+runtime.Version()+`"}`+"\n"),
	)
}

func TestNotSuitableWithoutVersionFlag(t *testing.T) {
	progtest.Test(t, prog.Composite(Program),
		progtest.ThatSolrepl().ExitsWith(2).WritesStderrContaining("no suitable subprogram"))
}
