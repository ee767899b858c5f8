// Package lsp implements a language server for line-oriented Solidity
// scratch files, where each line is a statement as it would be entered in the
// shell.
package lsp

import (
	"context"
	"os"

	"github.com/sourcegraph/jsonrpc2"
	"src.solrepl.sh/pkg/config"
	"src.solrepl.sh/pkg/errutil"
	"src.solrepl.sh/pkg/eval"
	"src.solrepl.sh/pkg/eval/evaldefs"
	"src.solrepl.sh/pkg/prog"
	"src.solrepl.sh/pkg/solc"
)

// Program is the LSP subprogram.
type Program struct {
	// Defaults to running solc as configured.
	NewCompiler func(config.Config) evaldefs.Compiler
}

func (p Program) Run(fds [3]*os.File, f *prog.Flags, _ []string) error {
	if !f.LSP {
		return prog.ErrNotSuitable
	}
	cfg, err := config.FromFlags(f)
	if err != nil {
		return err
	}
	var compiler evaldefs.Compiler
	if p.NewCompiler != nil {
		compiler = p.NewCompiler(cfg)
	} else {
		compiler = solc.New(cfg.Solc)
	}
	dialect, _ := eval.DialectByName(cfg.Grammar)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newServer(compiler, dialect, cfg.Pragma)
	conn := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(transport{fds[0], fds[1]}, jsonrpc2.VSCodeObjectCodec{}),
		handler(s))
	<-conn.DisconnectNotify()
	return nil
}

type transport struct{ in, out *os.File }

func (c transport) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c transport) Write(p []byte) (int, error) { return c.out.Write(p) }

func (c transport) Close() error {
	return errutil.Multi(c.in.Close(), c.out.Close())
}
