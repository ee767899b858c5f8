// Package evaldefs contains definitions of the external collaborators of the
// evaluator: the contract compiler and the deployment bridge.
//
// It is a separate package so that packages implementing the collaborators do
// not need to depend on the evaluator itself.
package evaldefs

import "context"

// SourceName is the name under which synthesized compilation units are given
// to the compiler. Diagnostics refer to locations in the unit with this name.
const SourceName = "repl.sol"

// Compiler compiles a compilation unit.
type Compiler interface {
	// Compile compiles the source text. Diagnostics reported by the compiler,
	// both errors and warnings, are returned in the CompileOutput and do not
	// cause a non-nil error; the error return is reserved for failures to run
	// the compiler at all.
	Compile(ctx context.Context, source string) (*CompileOutput, error)
}

// CompileOutput is the result of compiling a compilation unit.
type CompileOutput struct {
	// Artifacts keyed by contract name. Empty if there are errors.
	Artifacts map[string]Artifact
	// Diagnostics in the order reported by the compiler, as plain text.
	Diagnostics []string
}

// Artifact is a compiled contract.
type Artifact struct {
	// Bytecode is the creation bytecode.
	Bytecode []byte
	// ABI is the JSON interface descriptor.
	ABI string
}

// Bridge deploys artifacts to a remote execution host and invokes them.
type Bridge interface {
	// Deploy deploys an artifact from the sender account and waits for it to
	// be mined.
	Deploy(ctx context.Context, a Artifact) (Handle, error)
	// Invoke calls an entry function of a deployed artifact without
	// arguments, and returns its decoded return values in order.
	Invoke(ctx context.Context, h Handle, entry string) ([]any, error)
}

// Handle identifies a deployed artifact.
type Handle struct {
	Address string
	ABI     string
}
