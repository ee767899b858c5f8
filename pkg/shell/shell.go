// Package shell is the entry point for the terminal interface of solrepl.
package shell

import (
	"context"
	"fmt"
	"os"

	"src.solrepl.sh/pkg/config"
	"src.solrepl.sh/pkg/diag"
	"src.solrepl.sh/pkg/ethbridge"
	"src.solrepl.sh/pkg/eval"
	"src.solrepl.sh/pkg/logutil"
	"src.solrepl.sh/pkg/prog"
	"src.solrepl.sh/pkg/solc"
	"src.solrepl.sh/pkg/store"
	"src.solrepl.sh/pkg/sys"
)

var logger = logutil.GetLogger("[shell] ")

// SessionFunc creates a session from the configuration. The returned function
// releases its resources.
type SessionFunc func(ctx context.Context, cfg config.Config, warnings func([]string)) (*eval.Session, func(), error)

// Program is the shell subprogram.
type Program struct {
	// Defaults to InitSession.
	NewSession SessionFunc
}

func (p Program) Run(fds [3]*os.File, f *prog.Flags, args []string) error {
	if len(args) > 0 {
		return prog.BadUsage("arguments are not supported")
	}
	cfg, err := config.FromFlags(f)
	if err != nil {
		return err
	}
	var warnings func([]string)
	if cfg.Warnings {
		warnings = func(ws []string) {
			for _, w := range ws {
				diag.Warn(fds[2], w)
			}
		}
	}
	newSession := p.NewSession
	if newSession == nil {
		newSession = InitSession
	}
	session, cleanup, err := newSession(context.Background(), cfg, warnings)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := openStore(&cfg)
	if err != nil {
		fmt.Fprintln(fds[2], "Warning:", err)
		fmt.Fprintln(fds[2], "Input history and saved sessions are not available.")
	} else {
		defer st.Close()
	}
	Interact(fds, &InteractConfig{Session: session, Store: st, Timeout: cfg.Timeout})
	return nil
}

func openStore(cfg *config.Config) (store.DBStore, error) {
	path, err := cfg.DBPath(sys.MkdirPrivate)
	if err != nil {
		return nil, err
	}
	return store.NewStore(path)
}

// InitSession creates a session that compiles with solc and deploys to the
// configured node.
func InitSession(ctx context.Context, cfg config.Config, warnings func([]string)) (*eval.Session, func(), error) {
	dialect, ok := eval.DialectByName(cfg.Grammar)
	if !ok {
		return nil, nil, fmt.Errorf("unknown grammar %q", cfg.Grammar)
	}
	compiler := solc.New(cfg.Solc)
	if v, err := compiler.Version(ctx); err == nil {
		logger.Println("using solc", v)
	} else {
		logger.Println("cannot get solc version:", err)
	}
	bridge, err := ethbridge.Dial(ctx, ethbridge.Config{
		URL: cfg.RPC, Account: cfg.Account, Gas: cfg.Gas})
	if err != nil {
		return nil, nil, err
	}
	session := eval.NewSession(eval.Config{
		Compiler: compiler,
		Bridge:   bridge,
		Dialect:  dialect,
		Pragma:   cfg.Pragma,
		Warnings: warnings,
	})
	return session, bridge.Close, nil
}
