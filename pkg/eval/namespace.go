package eval

import (
	"fmt"
	"strings"
)

// Member is a member of a pseudo-namespace.
type Member struct {
	Name string
	Type string
}

// Namespace is a pseudo-namespace: a family of environment values, like msg
// or block, that cannot be returned as a whole. Evaluating the name of a
// Namespace returns all its members as a Record.
type Namespace struct {
	Name    string
	Members []Member
}

// ReturnType returns the types of all members, separated by commas.
func (ns *Namespace) ReturnType() string {
	types := make([]string, len(ns.Members))
	for i, m := range ns.Members {
		types[i] = m.Type
	}
	return strings.Join(types, ", ")
}

// ReturnExpr returns a tuple expression of all members. The expression for a
// member "ns.m" is looked up in overrides first.
func (ns *Namespace) ReturnExpr(overrides map[string]string) string {
	exprs := make([]string, len(ns.Members))
	for i, m := range ns.Members {
		ref := ns.Name + "." + m.Name
		if expr, ok := overrides[ref]; ok {
			ref = expr
		}
		exprs[i] = ref
	}
	return "(" + strings.Join(exprs, ", ") + ")"
}

// Reassemble zips the member names with positional values.
func (ns *Namespace) Reassemble(values []any) (Record, error) {
	if len(values) != len(ns.Members) {
		return Record{}, fmt.Errorf("%s has %d members, got %d values",
			ns.Name, len(ns.Members), len(values))
	}
	r := Record{Keys: make([]string, len(values)), Values: make([]any, len(values))}
	for i, m := range ns.Members {
		r.Keys[i] = m.Name
		r.Values[i] = values[i]
	}
	return r, nil
}

// Namespaces is a registry of pseudo-namespaces.
type Namespaces []*Namespace

// Lookup finds the Namespace with the given name.
func (nss Namespaces) Lookup(name string) (*Namespace, bool) {
	for _, ns := range nss {
		if ns.Name == name {
			return ns, true
		}
	}
	return nil, false
}

// DefaultNamespaces contains the message, block and transaction contexts.
var DefaultNamespaces = Namespaces{
	{"msg", []Member{
		{"data", "bytes"},
		{"gas", "uint256"},
		{"sender", "address"},
		{"sig", "bytes4"},
		{"value", "uint256"},
	}},
	{"block", []Member{
		{"coinbase", "address"},
		{"difficulty", "uint256"},
		{"gaslimit", "uint256"},
		{"number", "uint256"},
		{"timestamp", "uint256"},
	}},
	{"tx", []Member{
		{"gasprice", "uint256"},
		{"origin", "address"},
	}},
}
