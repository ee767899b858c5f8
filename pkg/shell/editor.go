package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"src.solrepl.sh/pkg/eval"
)

const prompt = "> "

// This type is the interface that the line editor has to satisfy.
type editor interface {
	// ReadLine returns the next line of input, or io.EOF. It returns
	// errInterrupted if the user aborted the current line.
	ReadLine() (string, error)
	AddHistory(line string)
	Close() error
}

var errInterrupted = errors.New("interrupted")

// A full-featured editor for terminals.
type lineEditor struct {
	state *liner.State
}

func newLineEditor(history []string) *lineEditor {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetMultiLineMode(true)
	state.SetWordCompleter(completeWord)
	for _, line := range history {
		state.AppendHistory(line)
	}
	return &lineEditor{state}
}

func (ed *lineEditor) ReadLine() (string, error) {
	line, err := ed.state.Prompt(prompt)
	if err == liner.ErrPromptAborted {
		return "", errInterrupted
	}
	return line, err
}

func (ed *lineEditor) AddHistory(line string) { ed.state.AppendHistory(line) }

func (ed *lineEditor) Close() error { return ed.state.Close() }

// Completes the names of commands at the start of the line, and members of
// pseudo-namespaces after "msg.", "block." or "tx.".
func completeWord(line string, pos int) (head string, completions []string, tail string) {
	word := line[:pos]
	if strings.HasPrefix(word, ".") && !strings.ContainsAny(word, " \t") {
		for _, cmd := range commands {
			if strings.HasPrefix(cmd.name, word) {
				completions = append(completions, cmd.name)
			}
		}
		return "", completions, line[pos:]
	}
	// Members of pseudo-namespaces.
	start := strings.LastIndexFunc(word, func(r rune) bool {
		return !isIdentRune(r) && r != '.'
	}) + 1
	name, prefix, hasDot := strings.Cut(word[start:], ".")
	if ns, ok := eval.DefaultNamespaces.Lookup(name); hasDot && ok {
		for _, m := range ns.Members {
			if strings.HasPrefix(m.Name, prefix) {
				completions = append(completions, name+"."+m.Name)
			}
		}
		return word[:start], completions, line[pos:]
	}
	return word, nil, line[pos:]
}

func isIdentRune(r rune) bool {
	return r == '_' || '0' <= r && r <= '9' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z'
}

// An editor for input that is not a terminal.
type minEditor struct {
	in  *bufio.Reader
	out io.Writer
}

func newMinEditor(in, out *os.File) *minEditor {
	return &minEditor{bufio.NewReader(in), out}
}

func (ed *minEditor) ReadLine() (string, error) {
	fmt.Fprint(ed.out, prompt)
	line, err := ed.in.ReadString('\n')
	if err == io.EOF && line != "" {
		// Last line without a trailing newline.
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

func (ed *minEditor) AddHistory(string) {}

func (ed *minEditor) Close() error { return nil }
