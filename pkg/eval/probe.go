package eval

import (
	"context"
	"fmt"

	"src.solrepl.sh/pkg/eval/evaldefs"
)

// Prober finds out the return type of statements by compiling them.
//
// The compiler does not reveal the static type of an expression directly.
// Instead, the first pass declares NaiveReturnType as the return type of the
// entry function; if the expression has any other type, the compiler reports
// a type mismatch whose wording contains the real type. The second pass
// declares the real type.
type Prober struct {
	Compiler evaldefs.Compiler
	Dialect  *Dialect
	// Defaults to the Grammar of the Dialect.
	Discovery  TypeDiscovery
	Classifier Classifier
	Pragma     string
	// Called with warnings of the final compilation that are not
	// suppressed. May be nil.
	Warnings func([]string)
}

// Probed is a statement that has been compiled with its real return type.
type Probed struct {
	Source     string
	ReturnType string
	Kind       Kind
	Artifact   evaldefs.Artifact
}

// Probe compiles stmt after the prior statements, finding out its return
// type. It fails with a *ProbeError if the first pass has errors that are not
// a type mismatch, and with a *CompileError if the final pass has errors.
func (p *Prober) Probe(ctx context.Context, prior []Statement, stmt Statement) (*Probed, error) {
	kind := p.Classifier.Classify(stmt)
	var unit Unit
	if kind == Expression {
		unit = p.synthesize(prior, "", NaiveReturnType, stmt.Body())
	} else {
		unit = p.synthesize(prior, string(stmt), NaiveReturnType, Placeholder)
	}
	source := unit.Render()
	out, err := p.Compiler.Compile(ctx, source)
	if err != nil {
		return nil, err
	}
	errs, warnings := p.Dialect.Grammar.Triage(out.Diagnostics)
	if len(errs) == 0 {
		logger.Printf("%s statement %q compiled in the first pass", kind, stmt)
		return p.finish(source, NaiveReturnType, kind, out, warnings)
	}

	discovered, ok := p.discovery().DiscoverType(errs[0])
	if !ok || kind != Expression {
		return nil, &ProbeError{Source: source, Diagnostics: errs}
	}
	returnType := DeclarableType(discovered, p.Dialect.DataLocation)
	logger.Printf("discovered type %q of %q, declaring %q", discovered, stmt, returnType)

	unit.ReturnType = returnType
	return p.compile(ctx, unit, kind)
}

// Expand compiles a unit that returns all members of a pseudo-namespace after
// the prior statements. It fails with a *CompileError if there are errors.
func (p *Prober) Expand(ctx context.Context, prior []Statement, ns *Namespace) (*Probed, error) {
	returnType := DeclarableType(ns.ReturnType(), p.Dialect.DataLocation)
	unit := p.synthesize(prior, "", returnType, ns.ReturnExpr(p.Dialect.MemberExprs))
	return p.compile(ctx, unit, Expression)
}

func (p *Prober) synthesize(prior []Statement, body, returnType, returnExpr string) Unit {
	unit := Synthesize(prior, body, returnType, returnExpr)
	unit.Pragma = p.Pragma
	unit.Modifiers = p.Dialect.Modifiers
	return unit
}

func (p *Prober) compile(ctx context.Context, unit Unit, kind Kind) (*Probed, error) {
	source := unit.Render()
	out, err := p.Compiler.Compile(ctx, source)
	if err != nil {
		return nil, err
	}
	errs, warnings := p.Dialect.Grammar.Triage(out.Diagnostics)
	if len(errs) > 0 {
		return nil, &CompileError{Source: source, Diagnostics: errs}
	}
	return p.finish(source, unit.ReturnType, kind, out, warnings)
}

func (p *Prober) finish(source, returnType string, kind Kind, out *evaldefs.CompileOutput, warnings []string) (*Probed, error) {
	if len(warnings) > 0 && p.Warnings != nil {
		p.Warnings(warnings)
	}
	artifact, ok := out.Artifacts[ContainerName]
	if !ok {
		return nil, fmt.Errorf("compiler produced no artifact for %s", ContainerName)
	}
	return &Probed{Source: source, ReturnType: returnType, Kind: kind, Artifact: artifact}, nil
}

func (p *Prober) discovery() TypeDiscovery {
	if p.Discovery != nil {
		return p.Discovery
	}
	return p.Dialect.Grammar
}
