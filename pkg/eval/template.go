package eval

import (
	"strings"
)

// Names reserved for the synthesized container and entry function. Statements
// that declare identifiers with these names have undefined behavior.
const (
	ContainerName = "ReplContainer"
	EntryName     = "Main"
)

// Unit is a compilation unit with named slots. It is rendered to source text
// with Render.
type Unit struct {
	Pragma    string
	Container string
	Entry     string
	// Written between the parameter list of the entry function and its
	// returns clause, like "public payable".
	Modifiers string
	// Statements executed before the return statement, each ending with a
	// Terminator.
	Prologue []string
	// Return type of the entry function. Multiple return types are separated
	// by commas.
	ReturnType string
	// Expression in the return statement, without a Terminator.
	ReturnExpr string
}

// Synthesize builds a Unit that executes the prior statements and then body,
// and returns returnExpr as returnType. The body may be empty. The pragma and
// modifiers are left empty for the caller to fill in.
func Synthesize(prior []Statement, body string, returnType, returnExpr string) Unit {
	prologue := make([]string, 0, len(prior)+1)
	for _, s := range prior {
		prologue = append(prologue, string(s))
	}
	if body != "" {
		prologue = append(prologue, body)
	}
	return Unit{
		Container:  ContainerName,
		Entry:      EntryName,
		Prologue:   prologue,
		ReturnType: returnType,
		ReturnExpr: strings.TrimSuffix(strings.TrimSpace(returnExpr), Terminator),
	}
}

// Render renders the Unit to source text.
func (u Unit) Render() string {
	var sb strings.Builder
	if u.Pragma != "" {
		sb.WriteString("pragma solidity " + u.Pragma + ";\n")
	}
	sb.WriteString("contract " + u.Container + " {\n")
	sb.WriteString("  function " + u.Entry + "()")
	if u.Modifiers != "" {
		sb.WriteString(" " + u.Modifiers)
	}
	sb.WriteString(" returns (" + u.ReturnType + ") {\n")
	for _, line := range u.Prologue {
		sb.WriteString("    " + line + "\n")
	}
	sb.WriteString("    return " + u.ReturnExpr + Terminator + "\n")
	sb.WriteString("  }\n}\n")
	return sb.String()
}
