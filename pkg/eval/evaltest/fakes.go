package evaltest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"src.solrepl.sh/pkg/eval"
	"src.solrepl.sh/pkg/eval/evaldefs"
)

// Compiler is a fake evaldefs.Compiler that understands a small subset of
// Solidity and reports diagnostics the way solc 0.8 does. The bytecode of an
// artifact is the source itself.
type Compiler struct {
	mu      sync.Mutex
	sources []string
	// If not nil, Compile blocks until it is closed.
	Block chan struct{}
	// If not nil, Compile calls it and returns its error if it returns one.
	Fail func(source string) error
}

var _ evaldefs.Compiler = (*Compiler)(nil)

// Compile implements evaldefs.Compiler.
func (c *Compiler) Compile(ctx context.Context, source string) (*evaldefs.CompileOutput, error) {
	c.mu.Lock()
	c.sources = append(c.sources, source)
	c.mu.Unlock()
	if c.Block != nil {
		select {
		case <-c.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.Fail != nil {
		if err := c.Fail(source); err != nil {
			return nil, err
		}
	}
	diags, _ := run(source)
	out := &evaldefs.CompileOutput{Diagnostics: diags}
	for _, d := range diags {
		if !eval.Solc08Grammar.IsWarning(d) {
			return out, nil
		}
	}
	out.Artifacts = map[string]evaldefs.Artifact{
		eval.ContainerName: {Bytecode: []byte(source), ABI: `[]`},
	}
	return out, nil
}

// Sources returns all the sources that have been compiled.
func (c *Compiler) Sources() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sources...)
}

// ErrNotDeployed is returned by Chain.Invoke for unknown handles.
var ErrNotDeployed = errors.New("no contract at address")

// Chain is a fake evaldefs.Bridge. Deploying an artifact from Compiler stores
// its source; invoking it runs the source.
type Chain struct {
	mu        sync.Mutex
	contracts map[string]string
	invokes   int
	// If not nil, returned by Deploy.
	DeployErr error
	// If not nil, returned by Invoke.
	InvokeErr error
}

var _ evaldefs.Bridge = (*Chain)(nil)

// Deploy implements evaldefs.Bridge.
func (c *Chain) Deploy(ctx context.Context, a evaldefs.Artifact) (evaldefs.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DeployErr != nil {
		return evaldefs.Handle{}, c.DeployErr
	}
	if c.contracts == nil {
		c.contracts = make(map[string]string)
	}
	addr := fmt.Sprintf("0x%040x", len(c.contracts)+1)
	c.contracts[addr] = string(a.Bytecode)
	return evaldefs.Handle{Address: addr, ABI: a.ABI}, nil
}

// Invoke implements evaldefs.Bridge.
func (c *Chain) Invoke(ctx context.Context, h evaldefs.Handle, entry string) ([]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invokes++
	if c.InvokeErr != nil {
		return nil, c.InvokeErr
	}
	source, ok := c.contracts[h.Address]
	if !ok {
		return nil, ErrNotDeployed
	}
	diags, rets := run(source)
	if rets == nil {
		return nil, fmt.Errorf("execution reverted: %v", diags)
	}
	return rets, nil
}

// Deployed returns the number of deployed contracts.
func (c *Chain) Deployed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.contracts)
}

// Invoked returns the number of calls to Invoke.
func (c *Chain) Invoked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invokes
}

// NewSession returns a Session backed by a new Compiler and Chain.
func NewSession() (*eval.Session, *Compiler, *Chain) {
	compiler, chain := &Compiler{}, &Chain{}
	return eval.NewSession(eval.Config{Compiler: compiler, Bridge: chain}), compiler, chain
}
