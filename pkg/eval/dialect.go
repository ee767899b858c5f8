package eval

import (
	"regexp"
	"strings"
)

// NaiveReturnType is the return type assumed by the first pass of the type
// probe. Any expression of another type provokes a type mismatch diagnostic
// that reveals its real type.
const NaiveReturnType = "bool"

// Placeholder is the return expression used for effectful statements.
const Placeholder = "false"

// Dialect describes the parts of a compiler version that the evaluator relies
// on: how the entry function is declared, and the wording of diagnostics.
type Dialect struct {
	Name string
	// Default version constraint of synthesized units.
	Pragma string
	// Modifiers of the entry function.
	Modifiers string
	// Whether return types of reference types need an explicit data location.
	DataLocation bool
	// Replacement expressions for pseudo-namespace members that are not
	// available under their own name, like msg.gas.
	MemberExprs map[string]string
	Grammar     *DiagnosticGrammar
}

// TypeDiscovery extracts the real type of a return expression from a
// diagnostic of a compilation that declared NaiveReturnType.
type TypeDiscovery interface {
	DiscoverType(diagnostic string) (string, bool)
}

// DiagnosticGrammar is a TypeDiscovery based on the wording of diagnostics of
// a particular compiler version. It also knows how to tell warnings from
// errors, and which warnings carry no information in a REPL.
type DiagnosticGrammar struct {
	Version string
	// Matches warnings. Diagnostics that don't match are errors.
	WarningMarker *regexp.Regexp
	// Matches the type mismatch diagnostic of a return statement; the first
	// group captures the actual type.
	ReturnTypeMismatch *regexp.Regexp
	// Warnings that are never shown. Every synthesized unit triggers them,
	// because each statement is wrapped from scratch.
	Suppressed []*regexp.Regexp
}

var _ TypeDiscovery = (*DiagnosticGrammar)(nil)

func returnMismatchPattern() *regexp.Regexp {
	return regexp.MustCompile(`Return argument type (.+?) is not implicitly convertible to expected type \(type of first return variable\) ` + NaiveReturnType + `\.`)
}

var unusedLocalWarning = regexp.MustCompile(`Unused local variable`)

// Grammar of solc 0.4 as reported by the legacy combined output, where each
// diagnostic looks like "repl.sol:4:5: Warning: Unused local variable.".
var Solc04Grammar = &DiagnosticGrammar{
	Version:            "0.4",
	WarningMarker:      regexp.MustCompile(`: Warning: `),
	ReturnTypeMismatch: returnMismatchPattern(),
	// The constant entry function of every unit that reads no state can be
	// restricted to pure.
	Suppressed: []*regexp.Regexp{
		unusedLocalWarning,
		regexp.MustCompile(`Function state mutability can be restricted`),
	},
}

// Grammar of solc 0.5 and later as reported in the formattedMessage field of
// the standard JSON output, where each diagnostic starts with its type, like
// "Warning: Unused local variable.".
var Solc08Grammar = &DiagnosticGrammar{
	Version:            "0.8",
	WarningMarker:      regexp.MustCompile(`^Warning: `),
	ReturnTypeMismatch: returnMismatchPattern(),
	Suppressed:         []*regexp.Regexp{unusedLocalWarning},
}

// Dialects.
var (
	Solc04 = &Dialect{
		Name:      "solc-0.4",
		Pragma:    "^0.4.24",
		Modifiers: "constant",
		Grammar:   Solc04Grammar,
	}
	Solc08 = &Dialect{
		Name:   "solc-0.8",
		Pragma: "^0.8.0",
		// Payable, so that msg.value can be read.
		Modifiers:    "public payable",
		DataLocation: true,
		MemberExprs:  map[string]string{"msg.gas": "gasleft()"},
		Grammar:      Solc08Grammar,
	}
)

// DialectByName returns the Dialect with the given name.
func DialectByName(name string) (*Dialect, bool) {
	for _, d := range []*Dialect{Solc04, Solc08} {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// DiscoverType implements TypeDiscovery.
func (g *DiagnosticGrammar) DiscoverType(diagnostic string) (string, bool) {
	m := g.ReturnTypeMismatch.FindStringSubmatch(diagnostic)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsWarning reports whether a diagnostic is a warning.
func (g *DiagnosticGrammar) IsWarning(diagnostic string) bool {
	return g.WarningMarker.MatchString(diagnostic)
}

// IsSuppressed reports whether a diagnostic is a warning that is never shown.
func (g *DiagnosticGrammar) IsSuppressed(diagnostic string) bool {
	if !g.IsWarning(diagnostic) {
		return false
	}
	for _, re := range g.Suppressed {
		if re.MatchString(diagnostic) {
			return true
		}
	}
	return false
}

// Triage partitions diagnostics into errors and warnings, dropping
// suppressed warnings.
func (g *DiagnosticGrammar) Triage(diagnostics []string) (errors, warnings []string) {
	for _, d := range diagnostics {
		switch {
		case !g.IsWarning(d):
			errors = append(errors, d)
		case !g.IsSuppressed(d):
			warnings = append(warnings, d)
		}
	}
	return errors, warnings
}

var (
	dataLocationSuffix = regexp.MustCompile(` (memory|calldata|storage( ref| pointer)?)$`)
	intConst           = regexp.MustCompile(`^int_const (-?)\d`)
	userTypePrefix     = regexp.MustCompile(`^(struct|enum|contract) `)
)

// DeclarableType turns a type as written in diagnostics into one that can be
// declared as the return type of the entry function: literal types are
// widened, data locations are stripped, tuples become comma-separated lists,
// and if dataLocation is true, " memory" is added to reference types.
func DeclarableType(t string, dataLocation bool) string {
	t = strings.TrimSpace(t)
	if strings.HasPrefix(t, "tuple(") && strings.HasSuffix(t, ")") {
		t = t[len("tuple(") : len(t)-1]
	}
	parts := splitTopLevel(t)
	for i, part := range parts {
		parts[i] = declarableSingle(part, dataLocation)
	}
	return strings.Join(parts, ", ")
}

func declarableSingle(t string, dataLocation bool) string {
	t = strings.TrimSpace(t)
	if m := intConst.FindStringSubmatch(t); m != nil {
		if m[1] == "-" {
			return "int256"
		}
		return "uint256"
	}
	if strings.HasPrefix(t, "literal_string ") {
		t = "string"
	}
	t = dataLocationSuffix.ReplaceAllString(t, "")
	isStruct := strings.HasPrefix(t, "struct ")
	t = userTypePrefix.ReplaceAllString(t, "")
	if dataLocation && (t == "string" || t == "bytes" || strings.HasSuffix(t, "]") || isStruct) {
		t += " memory"
	}
	return t
}

// Splits s at commas that are not nested in parentheses or brackets, or
// quoted.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start, quoted := 0, 0, false
	for i, r := range s {
		if quoted {
			if r == '"' {
				quoted = false
			}
			continue
		}
		switch r {
		case '"':
			quoted = true
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
