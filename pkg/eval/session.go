// Package eval implements an interactive evaluator for Solidity.
//
// There is no interpreter for Solidity: each submitted statement is wrapped in
// a contract together with all statements accepted so far, compiled, and if it
// produces a value, deployed and invoked on a remote node.
package eval

import (
	"context"
	"fmt"
	"sync"

	"src.solrepl.sh/pkg/eval/evaldefs"
	"src.solrepl.sh/pkg/logutil"
)

var logger = logutil.GetLogger("[eval] ")

// Config keeps the configuration of a Session. Compiler and Bridge are
// required; all other fields have defaults.
type Config struct {
	Compiler evaldefs.Compiler
	Bridge   evaldefs.Bridge

	// Defaults to Solc08.
	Dialect *Dialect
	// Defaults to the Pragma of the Dialect.
	Pragma string
	// Defaults to SurfaceClassifier.
	Classifier Classifier
	// Defaults to DefaultNamespaces.
	Namespaces Namespaces
	// Called with warnings that are not suppressed. May be nil.
	Warnings func([]string)
}

// Session keeps the history of accepted statements, and evaluates new
// statements against it.
//
// A Session evaluates one statement at a time. Evaluate returns ErrBusy if it
// is called while another evaluation is in progress.
type Session struct {
	prober     *Prober
	bridge     evaldefs.Bridge
	namespaces Namespaces

	// Held during an evaluation.
	mu      sync.Mutex
	history []Statement
}

// NewSession creates a new Session with an empty history.
func NewSession(cfg Config) *Session {
	if cfg.Dialect == nil {
		cfg.Dialect = Solc08
	}
	if cfg.Pragma == "" {
		cfg.Pragma = cfg.Dialect.Pragma
	}
	if cfg.Classifier == nil {
		cfg.Classifier = SurfaceClassifier{}
	}
	if cfg.Namespaces == nil {
		cfg.Namespaces = DefaultNamespaces
	}
	return &Session{
		prober: &Prober{
			Compiler:   cfg.Compiler,
			Dialect:    cfg.Dialect,
			Classifier: cfg.Classifier,
			Pragma:     cfg.Pragma,
			Warnings:   cfg.Warnings,
		},
		bridge:     cfg.Bridge,
		namespaces: cfg.Namespaces,
	}
}

// Evaluate evaluates a line of input against the history.
//
// Blank input evaluates to nil without doing anything. Otherwise the input is
// normalized to a Statement and evaluated; the Statement is appended to the
// history only if the evaluation succeeds. Effectful statements evaluate to
// nil; see Value for the results of expressions.
//
// Errors are *ProbeError, *CompileError, *DeploymentError, ErrBusy, or errors
// from running the compiler.
func (s *Session) Evaluate(ctx context.Context, raw string) (Value, error) {
	stmt, ok := Normalize(raw)
	if !ok {
		return nil, nil
	}
	if !s.mu.TryLock() {
		return nil, ErrBusy
	}
	defer s.mu.Unlock()

	v, err := s.evaluate(ctx, stmt)
	if err != nil {
		logger.Printf("rejected %q: %v", stmt, err)
		return nil, err
	}
	s.history = append(s.history, stmt)
	return v, nil
}

func (s *Session) evaluate(ctx context.Context, stmt Statement) (Value, error) {
	// The history is only appended to, and always with s.mu held; slicing it
	// to its length guarantees that the prober never sees later appends.
	prior := s.history[:len(s.history):len(s.history)]

	ns, isNamespace := s.namespaces.Lookup(stmt.Body())
	var probed *Probed
	var err error
	if isNamespace {
		probed, err = s.prober.Expand(ctx, prior, ns)
	} else {
		probed, err = s.prober.Probe(ctx, prior, stmt)
	}
	if err != nil {
		return nil, err
	}
	if probed.Kind != Expression {
		return nil, nil
	}

	values, err := s.run(ctx, probed.Artifact)
	if err != nil {
		return nil, err
	}
	if isNamespace {
		return ns.Reassemble(values)
	}
	switch len(values) {
	case 0:
		return nil, nil
	case 1:
		return values[0], nil
	default:
		return Tuple(values), nil
	}
}

func (s *Session) run(ctx context.Context, a evaldefs.Artifact) ([]any, error) {
	h, err := s.bridge.Deploy(ctx, a)
	if err != nil {
		return nil, &DeploymentError{"deploy", err}
	}
	logger.Println("deployed at", h.Address)
	values, err := s.bridge.Invoke(ctx, h, EntryName)
	if err != nil {
		return nil, &DeploymentError{"invoke", err}
	}
	return values, nil
}

// Reset clears the history. If an evaluation is in progress, Reset waits for
// it to finish.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// History returns a copy of the accepted statements.
func (s *Session) History() []Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Statement(nil), s.history...)
}

// Restore resets the session and evaluates the given statements in order. If
// one of them fails, Restore stops and returns the error; the statements
// before it stay in the history.
func (s *Session) Restore(ctx context.Context, stmts []Statement) error {
	s.Reset()
	for i, stmt := range stmts {
		if _, err := s.Evaluate(ctx, string(stmt)); err != nil {
			return fmt.Errorf("statement %d (%s): %w", i+1, stmt, err)
		}
	}
	return nil
}
