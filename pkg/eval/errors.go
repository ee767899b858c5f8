package eval

import (
	"errors"
	"strings"

	"src.solrepl.sh/pkg/diag"
	"src.solrepl.sh/pkg/eval/evaldefs"
)

// ErrBusy is returned when a statement is submitted to a Session while
// another one is being evaluated.
var ErrBusy = errors.New("another statement is being evaluated")

// CompileError is returned when the final compilation unit of a statement has
// errors.
type CompileError struct {
	Source      string
	Diagnostics []string
}

func (e *CompileError) Error() string {
	return "error compiling Solidity:\n" + strings.Join(e.Diagnostics, "\n")
}

// Show shows the line-numbered source followed by the diagnostics.
func (e *CompileError) Show(indent string) string {
	return showDiagnostics("Error compiling Solidity:", e.Source, e.Diagnostics, indent)
}

// ProbeError is returned when the first pass of the type probe has errors that
// do not reveal the type of the statement. It indicates an error in the
// statement itself.
type ProbeError struct {
	Source      string
	Diagnostics []string
}

func (e *ProbeError) Error() string {
	return strings.Join(e.Diagnostics, "\n")
}

// Show shows the line-numbered source followed by the diagnostics.
func (e *ProbeError) Show(indent string) string {
	return showDiagnostics("Error in statement:", e.Source, e.Diagnostics, indent)
}

func showDiagnostics(header, source string, diagnostics []string, indent string) string {
	listing := diag.NewListing(evaldefs.SourceName, source, diagnostics)
	var sb strings.Builder
	sb.WriteString(header + "\n\n" + indent)
	sb.WriteString(listing.Show(indent))
	sb.WriteString("\n")
	for _, d := range diagnostics {
		sb.WriteString("\n" + indent + "  ")
		sb.WriteString(strings.ReplaceAll(d, "\n", "\n"+indent+"  "))
	}
	return sb.String()
}

// DeploymentError is returned when the deployment bridge fails to deploy or
// invoke a compiled statement.
type DeploymentError struct {
	// Either "deploy" or "invoke".
	Op  string
	Err error
}

func (e *DeploymentError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *DeploymentError) Unwrap() error { return e.Err }
