package lsp

import (
	"context"
	"errors"
	"strings"
	"unicode/utf16"

	lsp "github.com/sourcegraph/go-lsp"
	"src.solrepl.sh/pkg/eval"
)

// Result of probing every line of a document.
type analysis struct {
	content     string
	// Probed return types of expression lines, by line number.
	types       map[int]string
	diagnostics []lsp.Diagnostic
}

// Probes each line of content after the lines before it that were accepted,
// the same way a session would evaluate them, but without deploying anything.
func (s *server) analyze(ctx context.Context, content string) *analysis {
	a := &analysis{
		content:     content,
		types:       map[int]string{},
		diagnostics: []lsp.Diagnostic{},
	}
	var warnings []string
	prober := &eval.Prober{
		Compiler:   s.compiler,
		Dialect:    s.dialect,
		Classifier: eval.SurfaceClassifier{},
		Pragma:     s.pragma,
		Warnings:   func(ws []string) { warnings = append(warnings, ws...) },
	}
	var prior []eval.Statement
	// Warnings about earlier lines are reported again when compiling later
	// lines, at the same position.
	seen := map[string]bool{}
	for i, line := range strings.Split(content, "\n") {
		stmt, ok := eval.Normalize(line)
		if !ok {
			continue
		}
		warnings = nil
		var probed *eval.Probed
		var err error
		if ns, isNamespace := eval.DefaultNamespaces.Lookup(stmt.Body()); isNamespace {
			probed, err = prober.Expand(ctx, prior, ns)
		} else {
			probed, err = prober.Probe(ctx, prior, stmt)
		}
		if err != nil {
			if ctx.Err() != nil {
				return a
			}
			for _, msg := range errorMessages(err) {
				a.diagnostics = append(a.diagnostics, lineDiagnostic(i, line, lsp.Error, msg))
			}
			continue
		}
		for _, w := range warnings {
			if seen[w] {
				continue
			}
			seen[w] = true
			a.diagnostics = append(a.diagnostics, lineDiagnostic(i, line, lsp.Warning, firstLine(w)))
		}
		if probed.Kind == eval.Expression {
			a.types[i] = probed.ReturnType
		}
		prior = append(prior, stmt)
	}
	return a
}

func errorMessages(err error) []string {
	var diagnostics []string
	var probeErr *eval.ProbeError
	var compileErr *eval.CompileError
	switch {
	case errors.As(err, &probeErr):
		diagnostics = probeErr.Diagnostics
	case errors.As(err, &compileErr):
		diagnostics = compileErr.Diagnostics
	default:
		return []string{err.Error()}
	}
	msgs := make([]string, len(diagnostics))
	for i, d := range diagnostics {
		msgs[i] = firstLine(d)
	}
	return msgs
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func lineDiagnostic(i int, line string, severity lsp.DiagnosticSeverity, msg string) lsp.Diagnostic {
	return lsp.Diagnostic{
		Range:    lineRange(i, line),
		Severity: severity,
		Source:   "solc",
		Message:  msg,
	}
}

func lineRange(i int, line string) lsp.Range {
	return lsp.Range{
		Start: lsp.Position{Line: i, Character: 0},
		End:   lsp.Position{Line: i, Character: utf16Len(line)},
	}
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// Returns the byte index in line of a character offset in UTF-16 code units.
func utf16Offset(line string, character int) int {
	units := 0
	for i, r := range line {
		if units >= character {
			return i
		}
		if r >= 0x10000 {
			// Surrogate pair.
			units += 2
		} else {
			units++
		}
	}
	return len(line)
}
