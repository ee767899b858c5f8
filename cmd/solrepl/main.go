// Solrepl is an interactive evaluator for Solidity statements. Each statement
// is compiled into a throwaway contract together with the statements accepted
// before it, deployed to an Ethereum node and run there.
package main

import (
	"os"

	"src.solrepl.sh/pkg/buildinfo"
	"src.solrepl.sh/pkg/lsp"
	"src.solrepl.sh/pkg/prog"
	"src.solrepl.sh/pkg/server"
	"src.solrepl.sh/pkg/shell"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(
			buildinfo.Program, lsp.Program{}, server.Program{}, shell.Program{})))
}
