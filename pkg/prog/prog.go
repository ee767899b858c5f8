// Package prog provides the entry point to solrepl. Its subpackages
// correspond to subprograms of solrepl.
package prog

// This package sets up the basic environment and calls the appropriate
// "subprogram", one of the language server, the JSON-RPC session server, or
// the interactive shell.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"src.solrepl.sh/pkg/logutil"
)

// Flags keeps command-line flags.
type Flags struct {
	Log, Config string

	Help, Version, JSON bool

	RPC, Solc, Pragma, Grammar, DB string
	Warnings                       bool
	Timeout                        time.Duration

	Serve, LSP bool

	// Names of flags that were explicitly set on the command line. Flags
	// that are not set leave the corresponding config values alone.
	Set map[string]bool
}

func newFlagSet(f *Flags) *flag.FlagSet {
	fs := flag.NewFlagSet("solrepl", flag.ContinueOnError)
	// Error and usage will be printed explicitly.
	fs.SetOutput(io.Discard)

	fs.StringVar(&f.Log, "log", "", "a file to write debug log to")
	fs.StringVar(&f.Config, "config", "", "path to config.yaml")

	fs.BoolVar(&f.Help, "help", false, "show usage help and quit")
	fs.BoolVar(&f.Version, "version", false, "show version and quit")
	fs.BoolVar(&f.JSON, "json", false, "show output of -version in JSON")

	fs.StringVar(&f.RPC, "rpc", "", "URL of the Ethereum JSON-RPC endpoint")
	fs.StringVar(&f.Solc, "solc", "", "path to the solc binary")
	fs.StringVar(&f.Pragma, "pragma", "", "version constraint written in the pragma of synthesized contracts; defaults to one matching -grammar")
	fs.StringVar(&f.Grammar, "grammar", "", "diagnostic grammar of the compiler, solc-0.8 or solc-0.4")
	fs.StringVar(&f.DB, "db", "", "path to the history database")
	fs.BoolVar(&f.Warnings, "warnings", false, "show compiler warnings")
	fs.DurationVar(&f.Timeout, "timeout", 0, "timeout of each evaluation; 0 means no timeout")

	fs.BoolVar(&f.Serve, "serve", false, "serve evaluation sessions over JSON-RPC on stdio")
	fs.BoolVar(&f.LSP, "lsp", false, "run language server instead of shell")

	return fs
}

func usage(out io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(out, "Usage: solrepl [flags]")
	fmt.Fprintln(out, "Supported flags:")
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// Run parses command-line flags and runs the first applicable subprogram. It
// returns the exit status of the program.
func Run(fds [3]*os.File, args []string, p Program) int {
	f := &Flags{}
	fs := newFlagSet(f)
	err := fs.Parse(args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			// (*flag.FlagSet).Parse returns ErrHelp when -h or -help was
			// requested but *not* defined. solrepl defines -help, but not -h;
			// so this means that -h has been requested. Handle this by
			// printing the same message as an undefined flag.
			fmt.Fprintln(fds[2], "flag provided but not defined: -h")
		} else {
			fmt.Fprintln(fds[2], err)
		}
		usage(fds[2], fs)
		return 2
	}
	f.Set = map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { f.Set[fl.Name] = true })

	if f.Log != "" {
		err = logutil.SetOutputFile(f.Log)
		if err != nil {
			fmt.Fprintln(fds[2], err)
		}
	}

	if f.Help {
		usage(fds[1], fs)
		return 0
	}

	err = p.Run(fds, f, fs.Args())
	if err == nil {
		return 0
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(fds[2], msg)
	}
	switch err := err.(type) {
	case badUsageError:
		usage(fds[2], fs)
	case exitError:
		return err.exit
	}
	return 2
}

// Composite returns a Program that tries each of the given programs,
// terminating at the first one that doesn't return ErrNotSuitable.
func Composite(programs ...Program) Program {
	return compositeProgram(programs)
}

type compositeProgram []Program

func (cp compositeProgram) Run(fds [3]*os.File, f *Flags, args []string) error {
	for _, p := range cp {
		err := p.Run(fds, f, args)
		if err != ErrNotSuitable {
			return err
		}
	}
	// If we have reached here, all subprograms have returned ErrNotSuitable
	return ErrNotSuitable
}

// ErrNotSuitable is a special error that may be returned by Program.Run, to
// signify that this Program should not be run. It is useful when a Program is
// used in Composite.
var ErrNotSuitable = errors.New("internal error: no suitable subprogram")

// BadUsage returns a special error that may be returned by Program.Run. It
// causes the main function to print out a message, the usage information and
// exit with 2.
func BadUsage(msg string) error { return badUsageError{msg} }

type badUsageError struct{ msg string }

func (e badUsageError) Error() string { return e.msg }

// Exit returns a special error that may be returned by Program.Run. It causes
// the main function to exit with the given code without printing any error
// messages. Exit(0) returns nil.
func Exit(exit int) error {
	if exit == 0 {
		return nil
	}
	return exitError{exit}
}

type exitError struct{ exit int }

func (e exitError) Error() string { return "" }

// Program represents a subprogram.
type Program interface {
	// Run runs the subprogram.
	Run(fds [3]*os.File, f *Flags, args []string) error
}
