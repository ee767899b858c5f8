package eval

import (
	"errors"
	"strings"
	"testing"
)

func TestCompileError(t *testing.T) {
	err := &CompileError{
		Source:      "contract ReplContainer {\n  x;\n}\n",
		Diagnostics: []string{"DeclarationError: Undeclared identifier.\n --> repl.sol:2:3:"},
	}
	if got := err.Error(); !strings.HasPrefix(got, "error compiling Solidity:\nDeclarationError") {
		t.Errorf("Error() -> %q", got)
	}
	shown := err.Show("")
	for _, want := range []string{"Error compiling Solidity:", "1  contract ReplContainer {", "Undeclared identifier."} {
		if !strings.Contains(shown, want) {
			t.Errorf("Show() -> %q, want it to contain %q", shown, want)
		}
	}
}

func TestProbeError(t *testing.T) {
	err := &ProbeError{Diagnostics: []string{"a", "b"}}
	if got := err.Error(); got != "a\nb" {
		t.Errorf("Error() -> %q, want %q", got, "a\nb")
	}
}

func TestDeploymentError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &DeploymentError{"deploy", cause}
	if got := err.Error(); got != "deploy: connection refused" {
		t.Errorf("Error() -> %q", got)
	}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) -> false")
	}
}
