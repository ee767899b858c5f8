package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"src.solrepl.sh/pkg/diag"
	"src.solrepl.sh/pkg/eval"
	"src.solrepl.sh/pkg/store/storedefs"
	"src.solrepl.sh/pkg/sys"
)

// Number of lines of input history loaded into the editor.
const historySize = 1000

// InteractConfig keeps configuration for the interactive mode.
type InteractConfig struct {
	Session *eval.Session
	// May be nil, in which case input history is not persisted and sessions
	// can't be saved.
	Store storedefs.Store
	// Timeout of each evaluation. Zero means no timeout.
	Timeout time.Duration
}

// Interact runs an interactive session.
func Interact(fds [3]*os.File, cfg *InteractConfig) {
	var ed editor
	if sys.IsATTY(fds[0].Fd()) {
		ed = newLineEditor(loadHistory(cfg.Store))
	} else {
		ed = newMinEditor(fds[0], fds[2])
	}
	defer ed.Close()

	cooldown := time.Second
	for {
		line, err := ed.ReadLine()
		if err == io.EOF {
			break
		} else if err == errInterrupted {
			continue
		} else if err != nil {
			fmt.Fprintln(fds[2], "Editor error:", err)
			if _, isMinEditor := ed.(*minEditor); !isMinEditor {
				fmt.Fprintln(fds[2], "Falling back to basic line editor")
				ed.Close()
				ed = newMinEditor(fds[0], fds[2])
			} else {
				fmt.Fprintln(fds[2], "Restarting editor in", cooldown)
				time.Sleep(cooldown)
				if cooldown < time.Minute {
					cooldown *= 2
				}
			}
			continue
		}
		// No error; reset cooldown.
		cooldown = time.Second

		if strings.TrimSpace(line) == "" {
			continue
		}
		ed.AddHistory(line)
		if cfg.Store != nil {
			if _, err := cfg.Store.AddCmd(line); err != nil {
				logger.Println("failed to add input history:", err)
			}
		}

		if cmd, arg, ok := parseCommand(line); ok {
			if cmd.run(fds, cfg, arg) == errQuit {
				break
			}
			continue
		}
		evalLine(fds, cfg, line)
	}
}

func loadHistory(st storedefs.Store) []string {
	if st == nil {
		return nil
	}
	cmds, err := st.LastCmds(historySize)
	if err != nil {
		logger.Println("failed to load input history:", err)
		return nil
	}
	lines := make([]string, len(cmds))
	for i, cmd := range cmds {
		lines[i] = cmd.Text
	}
	return lines
}

// Evaluates a line, showing its value on stdout and errors on stderr. An
// interrupt cancels the evaluation.
func evalLine(fds [3]*os.File, cfg *InteractConfig, line string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	start := time.Now()
	v, err := cfg.Session.Evaluate(ctx, line)
	logger.Printf("evaluated %q in %v", line, time.Since(start))
	if err != nil {
		diag.ShowError(fds[2], err)
		return
	}
	if v != nil {
		fmt.Fprintln(fds[1], eval.Repr(v))
	}
}
