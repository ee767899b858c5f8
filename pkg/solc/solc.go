// Package solc implements evaldefs.Compiler by running the solc binary in
// standard JSON mode.
package solc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"src.solrepl.sh/pkg/eval/evaldefs"
	"src.solrepl.sh/pkg/logutil"
)

var logger = logutil.GetLogger("[solc] ")

// Compiler runs a solc binary.
type Compiler struct {
	// Path of the binary. Looked up in PATH if it has no slashes.
	Path string
}

var _ evaldefs.Compiler = (*Compiler)(nil)

// New returns a Compiler that runs the given binary.
func New(path string) *Compiler { return &Compiler{path} }

type input struct {
	Language string                 `json:"language"`
	Sources  map[string]inputSource `json:"sources"`
	Settings settings               `json:"settings"`
}

type inputSource struct {
	Content string `json:"content"`
}

type settings struct {
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
}

type output struct {
	Errors    []outputError                        `json:"errors"`
	Contracts map[string]map[string]outputContract `json:"contracts"`
}

type outputError struct {
	Severity         string `json:"severity"`
	Type             string `json:"type"`
	Message          string `json:"message"`
	FormattedMessage string `json:"formattedMessage"`
}

type outputContract struct {
	ABI json.RawMessage `json:"abi"`
	EVM struct {
		Bytecode struct {
			Object string `json:"object"`
		} `json:"bytecode"`
	} `json:"evm"`
}

// Input returns the standard JSON input for compiling a source.
func Input(source string) ([]byte, error) {
	return json.Marshal(input{
		Language: "Solidity",
		Sources:  map[string]inputSource{evaldefs.SourceName: {source}},
		Settings: settings{OutputSelection: map[string]map[string][]string{
			evaldefs.SourceName: {"*": {"abi", "evm.bytecode.object"}},
		}},
	})
}

// Compile implements evaldefs.Compiler.
func (c *Compiler) Compile(ctx context.Context, source string) (*evaldefs.CompileOutput, error) {
	in, err := Input(source)
	if err != nil {
		return nil, err
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, "--standard-json")
	cmd.Stdin = bytes.NewReader(in)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("run %s: %w: %s", c.Path, err, msg)
		}
		return nil, fmt.Errorf("run %s: %w", c.Path, err)
	}
	out, err := ParseOutput(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	logger.Printf("%d diagnostics, contracts %v", len(out.Diagnostics), ContractNames(out))
	return out, nil
}

// ParseOutput parses the standard JSON output of solc.
func ParseOutput(data []byte) (*evaldefs.CompileOutput, error) {
	var out output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse solc output: %w", err)
	}
	result := &evaldefs.CompileOutput{}
	for _, e := range out.Errors {
		result.Diagnostics = append(result.Diagnostics, diagnostic(e))
	}
	contracts := out.Contracts[evaldefs.SourceName]
	if len(contracts) == 0 {
		return result, nil
	}
	result.Artifacts = make(map[string]evaldefs.Artifact, len(contracts))
	for name, contract := range contracts {
		if contract.EVM.Bytecode.Object == "" {
			return nil, fmt.Errorf("no bytecode for contract %s", name)
		}
		result.Artifacts[name] = evaldefs.Artifact{
			Bytecode: common.FromHex(contract.EVM.Bytecode.Object),
			ABI:      string(contract.ABI),
		}
	}
	return result, nil
}

// Returns the diagnostic as text. Diagnostics without a formatted message are
// formatted the way solc does, starting with the type.
func diagnostic(e outputError) string {
	if e.FormattedMessage != "" {
		return strings.TrimRight(e.FormattedMessage, "\n")
	}
	typ := e.Type
	if typ == "" && e.Severity != "" {
		typ = strings.ToUpper(e.Severity[:1]) + e.Severity[1:]
	}
	return typ + ": " + e.Message
}

// ErrNoVersion is returned by Version when the output of solc --version has no
// version line.
var ErrNoVersion = errors.New("no version in solc output")

// Version returns the version reported by solc --version.
func (c *Compiler) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, c.Path, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("run %s: %w", c.Path, err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if v, ok := strings.CutPrefix(line, "Version: "); ok {
			return strings.TrimSpace(v), nil
		}
	}
	return "", ErrNoVersion
}

// ContractNames returns the names of the artifacts in a CompileOutput, sorted.
func ContractNames(out *evaldefs.CompileOutput) []string {
	names := make([]string, 0, len(out.Artifacts))
	for name := range out.Artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
