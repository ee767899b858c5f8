package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"src.solrepl.sh/pkg/diag"
	"src.solrepl.sh/pkg/eval"
)

var errQuit = errors.New("quit")

type command struct {
	name    string
	aliases []string
	args    string
	help    string
	fn      func(fds [3]*os.File, cfg *InteractConfig, arg string) error
}

var commands []*command

func init() {
	commands = []*command{
		{name: ".quit", aliases: []string{"quit", ".exit"},
			help: "quit", fn: quit},
		{name: ".reset", aliases: []string{"clear"},
			help: "forget all statements", fn: reset},
		{name: ".history",
			help: "show the accepted statements", fn: history},
		{name: ".inputs",
			help: "show recent input lines with their numbers", fn: inputs},
		{name: ".rerun", args: "SEQ",
			help: "evaluate the input line numbered SEQ again", fn: rerun},
		{name: ".save", args: "NAME",
			help: "save the accepted statements under NAME", fn: save},
		{name: ".load", args: "NAME",
			help: "replace the accepted statements with those saved under NAME", fn: load},
		{name: ".sessions",
			help: "list saved sessions", fn: sessions},
		{name: ".delete", args: "NAME",
			help: "delete the session saved under NAME", fn: deleteSession},
		{name: ".help",
			help: "show this help", fn: help},
	}
}

// Returns the command named by the first word of line, and the rest of the
// line.
func parseCommand(line string) (*command, string, bool) {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	for _, cmd := range commands {
		if name == cmd.name {
			return cmd, strings.TrimSpace(arg), true
		}
		for _, alias := range cmd.aliases {
			if name == alias {
				return cmd, strings.TrimSpace(arg), true
			}
		}
	}
	if strings.HasPrefix(name, ".") {
		return &command{name: name, fn: unknown}, "", true
	}
	return nil, "", false
}

func (cmd *command) run(fds [3]*os.File, cfg *InteractConfig, arg string) error {
	if cmd.args == "" && arg != "" {
		diag.Complainf(fds[2], "%s takes no argument", cmd.name)
		return nil
	}
	if cmd.args != "" && arg == "" {
		diag.Complainf(fds[2], "usage: %s %s", cmd.name, cmd.args)
		return nil
	}
	err := cmd.fn(fds, cfg, arg)
	if err != nil && err != errQuit {
		diag.ShowError(fds[2], err)
	}
	return err
}

func quit([3]*os.File, *InteractConfig, string) error { return errQuit }

func reset(_ [3]*os.File, cfg *InteractConfig, _ string) error {
	cfg.Session.Reset()
	return nil
}

func history(fds [3]*os.File, cfg *InteractConfig, _ string) error {
	for _, stmt := range cfg.Session.History() {
		fmt.Fprintln(fds[1], stmt)
	}
	return nil
}

var errUnknownCommand = errors.New("unknown command; try .help")

var errNoStore = errors.New("no database; input history and saved sessions are not available")

// Number of input lines shown by .inputs.
const inputsShown = 20

func inputs(fds [3]*os.File, cfg *InteractConfig, _ string) error {
	if cfg.Store == nil {
		return errNoStore
	}
	upto, err := cfg.Store.NextCmdSeq()
	if err != nil {
		return err
	}
	cmds, err := cfg.Store.CmdsWithSeq(max(upto-inputsShown, 0), upto)
	if err != nil {
		return err
	}
	for _, cmd := range cmds {
		fmt.Fprintf(fds[1], "%5d  %s\n", cmd.Seq, cmd.Text)
	}
	return nil
}

var errRerunCommand = errors.New("only statements can be evaluated again")

func rerun(fds [3]*os.File, cfg *InteractConfig, arg string) error {
	if cfg.Store == nil {
		return errNoStore
	}
	seq, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("bad input number %q", arg)
	}
	line, err := cfg.Store.Cmd(seq)
	if err != nil {
		return fmt.Errorf("%d: %w", seq, err)
	}
	if _, _, isCommand := parseCommand(line); isCommand {
		return errRerunCommand
	}
	fmt.Fprintln(fds[2], line)
	evalLine(fds, cfg, line)
	return nil
}

func save(fds [3]*os.File, cfg *InteractConfig, name string) error {
	if cfg.Store == nil {
		return errNoStore
	}
	history := cfg.Session.History()
	stmts := make([]string, len(history))
	for i, stmt := range history {
		stmts[i] = string(stmt)
	}
	if err := cfg.Store.SaveSession(name, stmts); err != nil {
		return err
	}
	fmt.Fprintf(fds[2], "saved %d statements as %s\n", len(stmts), name)
	return nil
}

func load(fds [3]*os.File, cfg *InteractConfig, name string) error {
	if cfg.Store == nil {
		return errNoStore
	}
	saved, err := cfg.Store.Session(name)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	stmts := make([]eval.Statement, len(saved))
	for i, s := range saved {
		stmts[i] = eval.Statement(s)
	}
	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout*time.Duration(max(len(stmts), 1)))
		defer cancel()
	}
	if err := cfg.Session.Restore(ctx, stmts); err != nil {
		return err
	}
	fmt.Fprintf(fds[2], "loaded %d statements from %s\n", len(stmts), name)
	return nil
}

func sessions(fds [3]*os.File, cfg *InteractConfig, _ string) error {
	if cfg.Store == nil {
		return errNoStore
	}
	names, err := cfg.Store.SessionNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(fds[1], name)
	}
	return nil
}

func deleteSession(fds [3]*os.File, cfg *InteractConfig, name string) error {
	if cfg.Store == nil {
		return errNoStore
	}
	if err := cfg.Store.DelSession(name); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	fmt.Fprintf(fds[2], "deleted %s\n", name)
	return nil
}

func help(fds [3]*os.File, _ *InteractConfig, _ string) error {
	fmt.Fprintln(fds[1], "Enter Solidity statements or expressions. Commands:")
	for _, cmd := range commands {
		usage := strings.TrimSpace(cmd.name + " " + cmd.args)
		if len(cmd.aliases) > 0 {
			usage += " (" + strings.Join(cmd.aliases, ", ") + ")"
		}
		fmt.Fprintf(fds[1], "  %-28s %s\n", usage, cmd.help)
	}
	fmt.Fprintln(fds[1], "msg, block and tx show all members of the environment.")
	return nil
}

func unknown(fds [3]*os.File, _ *InteractConfig, _ string) error {
	return errUnknownCommand
}
