// Package buildinfo contains build information.
//
// Build information should be set during compilation by passing
// -ldflags "-X src.solrepl.sh/pkg/buildinfo.VersionSuffix=value" to
// "go build".
package buildinfo

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"src.solrepl.sh/pkg/prog"
)

// Version identifies the version of solrepl. On development commits, it
// identifies the next release.
const Version = "v0.3.0"

// VersionSuffix is appended to Version to build the full version string.
var VersionSuffix = "-dev.unknown"

// Program is the buildinfo subprogram.
var Program prog.Program = program{}

type program struct{}

func (program) Run(fds [3]*os.File, f *prog.Flags, _ []string) error {
	if !f.Version {
		return prog.ErrNotSuitable
	}
	fullVersion := Version + VersionSuffix
	if f.JSON {
		data, err := json.Marshal(struct {
			Version   string `json:"version"`
			GoVersion string `json:"goversion"`
		}{fullVersion, runtime.Version()})
		if err != nil {
			return err
		}
		fmt.Fprintln(fds[1], string(data))
		return nil
	}
	fmt.Fprintln(fds[1], fullVersion)
	return nil
}
