package solc

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"testing"

	"github.com/google/go-cmp/cmp"
	"src.solrepl.sh/pkg/eval/evaldefs"
)

const sampleOutput = `{
  "errors": [
    {
      "severity": "warning",
      "type": "Warning",
      "message": "Unused local variable.",
      "formattedMessage": "Warning: Unused local variable.\n --> repl.sol:4:5:\n\n"
    }
  ],
  "contracts": {
    "repl.sol": {
      "ReplContainer": {
        "abi": [{"inputs":[],"name":"Main","outputs":[{"type":"uint256"}],"stateMutability":"payable","type":"function"}],
        "evm": {"bytecode": {"object": "6080604052"}}
      }
    }
  }
}`

func TestParseOutput(t *testing.T) {
	out, err := ParseOutput([]byte(sampleOutput))
	if err != nil {
		t.Fatal(err)
	}
	want := &evaldefs.CompileOutput{
		Diagnostics: []string{"Warning: Unused local variable.\n --> repl.sol:4:5:"},
		Artifacts: map[string]evaldefs.Artifact{
			"ReplContainer": {
				Bytecode: []byte{0x60, 0x80, 0x60, 0x40, 0x52},
				ABI:      `[{"inputs":[],"name":"Main","outputs":[{"type":"uint256"}],"stateMutability":"payable","type":"function"}]`,
			},
		},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if names := ContractNames(out); !cmp.Equal(names, []string{"ReplContainer"}) {
		t.Errorf("ContractNames -> %v", names)
	}
}

func TestParseOutput_ErrorsOnly(t *testing.T) {
	out, err := ParseOutput([]byte(`{"errors": [
		{"severity": "error", "type": "DeclarationError", "message": "Undeclared identifier."},
		{"severity": "warning", "message": "Something."}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"DeclarationError: Undeclared identifier.", "Warning: Something."}
	if diff := cmp.Diff(want, out.Diagnostics); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if out.Artifacts != nil {
		t.Errorf("got artifacts %v", out.Artifacts)
	}
}

func TestParseOutput_Malformed(t *testing.T) {
	if _, err := ParseOutput([]byte("solc: unknown option")); err == nil {
		t.Errorf("want error")
	}
	_, err := ParseOutput([]byte(`{"contracts": {"repl.sol": {"C": {"abi": []}}}}`))
	if err == nil || err.Error() != "no bytecode for contract C" {
		t.Errorf("got error %v", err)
	}
}

func TestInput(t *testing.T) {
	data, err := Input("contract C {}")
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"language": "Solidity",
		"sources":  map[string]any{"repl.sol": map[string]any{"content": "contract C {}"}},
		"settings": map[string]any{"outputSelection": map[string]any{
			"repl.sol": map[string]any{"*": []any{"abi", "evm.bytecode.object"}},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestCompile_NotFound(t *testing.T) {
	c := New("/nonexistent/solc")
	_, err := c.Compile(context.Background(), "contract C {}")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got error %v, want one wrapping fs.ErrNotExist", err)
	}
}
