package evaltest

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"src.solrepl.sh/pkg/eval/evaldefs"
)

// This file implements a tiny subset of Solidity, just enough to exercise the
// evaluator: integer, bool and string locals, arithmetic and comparison,
// assignment, delete, and the msg, block and tx contexts. It reports
// diagnostics with the wording of solc 0.8.

// Environment values seen by the fake programs.
var (
	Sender   = common.HexToAddress("0x0000000000000000000000000000000000000011")
	Coinbase = common.HexToAddress("0x0000000000000000000000000000000000000022")
	CallData = []byte{0xf8, 0xa8, 0xfd, 0x6d}
)

var envMembers = map[string]value{
	"msg.data":         {"bytes calldata", CallData},
	"msg.sender":       {"address", Sender},
	"msg.sig":          {"bytes4", [4]byte{0xf8, 0xa8, 0xfd, 0x6d}},
	"msg.value":        {"uint256", big.NewInt(0)},
	"gasleft()":        {"uint256", big.NewInt(2978000)},
	"block.coinbase":   {"address", Coinbase},
	"block.difficulty": {"uint256", big.NewInt(1)},
	"block.gaslimit":   {"uint256", big.NewInt(30000000)},
	"block.number":     {"uint256", big.NewInt(7)},
	"block.timestamp":  {"uint256", big.NewInt(1700000000)},
	"tx.gasprice":      {"uint256", big.NewInt(20000000000)},
	"tx.origin":        {"address", Sender},
}

type value struct {
	typ string
	v   any
}

type variable struct {
	value
	line, col int
	read      bool
}

type program struct {
	returnTypes []string
	body        []sourceLine
	ret         sourceLine
}

type sourceLine struct {
	text string
	line int
	col  int
}

var returnsPattern = regexp.MustCompile(`returns \((.*)\) \{$`)

func parseProgram(src string) (*program, error) {
	p := &program{}
	inBody := false
	for i, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		col := len(line) - len(strings.TrimLeft(line, " ")) + 1
		switch {
		case strings.HasPrefix(trimmed, "function "):
			m := returnsPattern.FindStringSubmatch(trimmed)
			if m == nil {
				return nil, fmt.Errorf("no returns clause")
			}
			for _, t := range strings.Split(m[1], ", ") {
				p.returnTypes = append(p.returnTypes, canonicalType(t))
			}
			inBody = true
		case inBody && strings.HasPrefix(trimmed, "return "):
			p.ret = sourceLine{strings.TrimSuffix(strings.TrimPrefix(trimmed, "return "), ";"), i + 1, col + len("return ")}
			return p, nil
		case inBody:
			p.body = append(p.body, sourceLine{trimmed, i + 1, col})
		}
	}
	return nil, fmt.Errorf("no return statement")
}

func canonicalType(t string) string {
	t = strings.TrimSuffix(strings.TrimSpace(t), " memory")
	t = strings.TrimSuffix(t, " calldata")
	switch t {
	case "uint":
		return "uint256"
	case "int":
		return "int256"
	}
	return t
}

type diagnostic struct {
	kind, msg string
	line, col int
}

func (d diagnostic) String() string {
	return fmt.Sprintf("%s: %s\n --> %s:%d:%d:", d.kind, d.msg, evaldefs.SourceName, d.line, d.col)
}

type machine struct {
	vars  map[string]*variable
	order []string
	diags []diagnostic
}

// Runs a program, returning its diagnostics, and its return values if there
// are no errors.
func run(src string) ([]string, []any) {
	p, err := parseProgram(src)
	if err != nil {
		return []string{"ParserError: " + err.Error()}, nil
	}
	m := &machine{vars: map[string]*variable{}}
	failed := false
	for _, line := range p.body {
		col := line.col
		for _, stmt := range strings.Split(line.text, ";") {
			if strings.TrimSpace(stmt) != "" && !m.exec(strings.TrimSpace(stmt), line.line, col) {
				failed = true
				break
			}
			col += len(stmt) + 1
		}
		if failed {
			break
		}
	}
	var rets []any
	if !failed {
		rets, failed = m.ret(p)
	}
	for _, name := range m.order {
		if v := m.vars[name]; !v.read {
			m.diags = append(m.diags, diagnostic{"Warning", "Unused local variable.", v.line, v.col})
		}
	}
	diags := make([]string, len(m.diags))
	for i, d := range m.diags {
		diags[i] = d.String()
	}
	if failed {
		return diags, nil
	}
	return diags, rets
}

func (m *machine) fail(kind, msg string, line, col int) bool {
	m.diags = append(m.diags, diagnostic{kind, msg, line, col})
	return false
}

var builtins = map[string]struct{}{"now": {}, "gasleft": {}, "blockhash": {}}

var typeNames = map[string]bool{
	"uint": true, "uint256": true, "uint8": true, "int": true, "int256": true,
	"bool": true, "string": true,
}

func (m *machine) exec(stmt string, line, col int) bool {
	toks, ok := tokenize(stmt)
	if !ok {
		return m.fail("ParserError", "Expected primary expression.", line, col)
	}
	switch {
	case toks[0] == "delete":
		if len(toks) != 2 {
			return m.fail("ParserError", "Expected ';' but got identifier", line, col)
		}
		v, ok := m.vars[toks[1]]
		if !ok {
			return m.fail("DeclarationError", "Undeclared identifier.", line, col)
		}
		v.v = zero(v.typ)
		return true
	case typeNames[toks[0]]:
		typ := canonicalType(toks[0])
		rest := toks[1:]
		if len(rest) > 0 && rest[0] == "memory" {
			rest = rest[1:]
		}
		if len(rest) == 0 || !isIdent(rest[0]) {
			return m.fail("ParserError", "Expected identifier.", line, col)
		}
		name := rest[0]
		if _, exists := m.vars[name]; exists {
			return m.fail("DeclarationError", "Identifier already declared.", line, col)
		}
		val := value{typ, zero(typ)}
		if len(rest) > 1 {
			if rest[1] != "=" {
				return m.fail("ParserError", "Expected ';' but got '"+rest[1]+"'", line, col)
			}
			init, ok := m.expr(rest[2:], line, col)
			if !ok {
				return false
			}
			if !convertible(init.typ, typ) {
				return m.fail("TypeError", fmt.Sprintf("Type %s is not implicitly convertible to expected type %s.", init.typ, typ), line, col)
			}
			val.v = init.v
		}
		if _, builtin := builtins[name]; builtin {
			m.diags = append(m.diags, diagnostic{"Warning", "This declaration shadows a builtin symbol.", line, col})
		}
		m.vars[name] = &variable{value: val, line: line, col: col}
		m.order = append(m.order, name)
		return true
	case len(toks) > 2 && (toks[1] == "=" || toks[1] == "+=" || toks[1] == "-="):
		v, ok := m.vars[toks[0]]
		if !ok {
			return m.fail("DeclarationError", "Undeclared identifier.", line, col)
		}
		rhs, ok := m.expr(toks[2:], line, col)
		if !ok {
			return false
		}
		if !convertible(rhs.typ, v.typ) {
			return m.fail("TypeError", fmt.Sprintf("Type %s is not implicitly convertible to expected type %s.", rhs.typ, v.typ), line, col)
		}
		switch toks[1] {
		case "=":
			v.v = rhs.v
		case "+=":
			v.v = new(big.Int).Add(v.v.(*big.Int), rhs.v.(*big.Int))
		case "-=":
			v.v = new(big.Int).Sub(v.v.(*big.Int), rhs.v.(*big.Int))
		}
		return true
	default:
		_, ok := m.expr(toks, line, col)
		return ok
	}
}

func (m *machine) ret(p *program) ([]any, bool) {
	toks, ok := tokenize(p.ret.text)
	if !ok {
		m.fail("ParserError", "Expected primary expression.", p.ret.line, p.ret.col)
		return nil, true
	}
	var vals []value
	if len(toks) > 0 && toks[0] == "(" && toks[len(toks)-1] == ")" && hasTopLevelComma(toks[1:len(toks)-1]) {
		for _, part := range splitComma(toks[1 : len(toks)-1]) {
			v, ok := m.expr(part, p.ret.line, p.ret.col)
			if !ok {
				return nil, true
			}
			vals = append(vals, v)
		}
	} else {
		v, ok := m.expr(toks, p.ret.line, p.ret.col)
		if !ok {
			return nil, true
		}
		vals = []value{v}
	}
	if len(vals) != len(p.returnTypes) {
		m.fail("TypeError", "Different number of arguments in return statement than in returns declaration.", p.ret.line, p.ret.col)
		return nil, true
	}
	rets := make([]any, len(vals))
	for i, v := range vals {
		if !convertible(v.typ, p.returnTypes[i]) {
			if len(vals) == 1 {
				m.fail("TypeError", fmt.Sprintf("Return argument type %s is not implicitly convertible to expected type (type of first return variable) %s.", v.typ, p.returnTypes[i]), p.ret.line, p.ret.col)
			} else {
				m.fail("TypeError", fmt.Sprintf("Return argument type %s is not implicitly convertible to expected type %s.", v.typ, p.returnTypes[i]), p.ret.line, p.ret.col)
			}
			return nil, true
		}
		rets[i] = v.v
	}
	return rets, false
}

func zero(typ string) any {
	switch typ {
	case "bool":
		return false
	case "string":
		return ""
	default:
		return big.NewInt(0)
	}
}

func convertible(from, to string) bool {
	from, to = canonicalType(from), canonicalType(to)
	if from == to {
		return true
	}
	if strings.HasPrefix(from, "int_const ") {
		neg := strings.HasPrefix(from, "int_const -")
		return strings.HasPrefix(to, "int") || (strings.HasPrefix(to, "uint") && !neg)
	}
	if strings.HasPrefix(from, "literal_string ") {
		return to == "string"
	}
	return false
}

func isInt(typ string) bool {
	return strings.HasPrefix(typ, "uint") || strings.HasPrefix(typ, "int")
}

var tokenPattern = regexp.MustCompile(`^\s*(\d+|[A-Za-z_][A-Za-z0-9_]*|"[^"]*"|==|!=|<=|>=|\+=|-=|[-+*<>=(),.])`)

func tokenize(s string) ([]string, bool) {
	var toks []string
	for strings.TrimSpace(s) != "" {
		m := tokenPattern.FindStringSubmatch(s)
		if m == nil {
			return nil, false
		}
		toks = append(toks, m[1])
		s = s[len(m[0]):]
	}
	return toks, len(toks) > 0
}

func isIdent(tok string) bool {
	return tok != "" && (tok[0] == '_' || tok[0] >= 'A' && tok[0] <= 'Z' || tok[0] >= 'a' && tok[0] <= 'z')
}

func hasTopLevelComma(toks []string) bool {
	return len(splitComma(toks)) > 1
}

func splitComma(toks []string) [][]string {
	var parts [][]string
	depth, start := 0, 0
	for i, tok := range toks {
		switch tok {
		case "(":
			depth++
		case ")":
			depth--
		case ",":
			if depth == 0 {
				parts = append(parts, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, toks[start:])
}

// Expression evaluation by precedence climbing over a token slice.

type exprParser struct {
	m         *machine
	toks      []string
	pos       int
	line, col int
	err       bool
}

func (m *machine) expr(toks []string, line, col int) (value, bool) {
	p := &exprParser{m: m, toks: toks, line: line, col: col}
	v := p.comparison()
	if !p.err && p.pos < len(p.toks) {
		p.fail("ParserError", "Expected ';' but got '"+p.toks[p.pos]+"'")
	}
	return v, !p.err
}

func (p *exprParser) fail(kind, msg string) value {
	if !p.err {
		p.m.fail(kind, msg, p.line, p.col)
		p.err = true
	}
	return value{}
}

func (p *exprParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *exprParser) next() string {
	tok := p.peek()
	p.pos++
	return tok
}

func (p *exprParser) comparison() value {
	lhs := p.additive()
	switch op := p.peek(); op {
	case "==", "!=", "<", ">", "<=", ">=":
		p.next()
		rhs := p.additive()
		if p.err {
			return value{}
		}
		if !isInt(lhs.typ) || !isInt(rhs.typ) {
			if op == "==" && lhs.typ == "bool" && rhs.typ == "bool" {
				return value{"bool", lhs.v == rhs.v}
			}
			return p.fail("TypeError", fmt.Sprintf("Operator %s not compatible with types %s and %s", op, lhs.typ, rhs.typ))
		}
		c := lhs.v.(*big.Int).Cmp(rhs.v.(*big.Int))
		result := map[string]bool{"==": c == 0, "!=": c != 0, "<": c < 0, ">": c > 0, "<=": c <= 0, ">=": c >= 0}[op]
		return value{"bool", result}
	}
	return lhs
}

func (p *exprParser) additive() value {
	lhs := p.multiplicative()
	for !p.err && (p.peek() == "+" || p.peek() == "-") {
		op := p.next()
		rhs := p.multiplicative()
		lhs = p.arith(op, lhs, rhs)
	}
	return lhs
}

func (p *exprParser) multiplicative() value {
	lhs := p.primary()
	for !p.err && p.peek() == "*" {
		p.next()
		rhs := p.primary()
		lhs = p.arith("*", lhs, rhs)
	}
	return lhs
}

func (p *exprParser) arith(op string, lhs, rhs value) value {
	if p.err {
		return value{}
	}
	if !isInt(lhs.typ) || !isInt(rhs.typ) {
		return p.fail("TypeError", fmt.Sprintf("Operator %s not compatible with types %s and %s", op, lhs.typ, rhs.typ))
	}
	a, b := lhs.v.(*big.Int), rhs.v.(*big.Int)
	var r *big.Int
	switch op {
	case "+":
		r = new(big.Int).Add(a, b)
	case "-":
		r = new(big.Int).Sub(a, b)
	case "*":
		r = new(big.Int).Mul(a, b)
	}
	lconst, rconst := strings.HasPrefix(lhs.typ, "int_const"), strings.HasPrefix(rhs.typ, "int_const")
	switch {
	case lconst && rconst:
		return value{"int_const " + r.String(), r}
	case lconst:
		return value{rhs.typ, r}
	default:
		return value{lhs.typ, r}
	}
}

func (p *exprParser) primary() value {
	tok := p.next()
	switch {
	case tok == "":
		return p.fail("ParserError", "Expected primary expression.")
	case tok[0] >= '0' && tok[0] <= '9':
		n, _ := new(big.Int).SetString(tok, 10)
		return value{"int_const " + tok, n}
	case tok == "true" || tok == "false":
		return value{"bool", tok == "true"}
	case tok[0] == '"':
		return value{"literal_string " + tok, strings.Trim(tok, `"`)}
	case tok == "(":
		v := p.comparison()
		if p.next() != ")" {
			return p.fail("ParserError", "Expected ')'")
		}
		return v
	case isIdent(tok):
		if p.peek() == "." {
			p.next()
			member := tok + "." + p.next()
			if v, ok := envMembers[member]; ok {
				return v
			}
			return p.fail("TypeError", "Member not found or not visible after argument-dependent lookup in "+tok+".")
		}
		if p.peek() == "(" && tok == "gasleft" {
			p.next()
			if p.next() != ")" {
				return p.fail("ParserError", "Expected ')'")
			}
			return envMembers["gasleft()"]
		}
		if tok == "msg" || tok == "block" || tok == "tx" {
			return value{"magic " + tok, nil}
		}
		v, ok := p.m.vars[tok]
		if !ok {
			return p.fail("DeclarationError", "Undeclared identifier.")
		}
		v.read = true
		if v.typ == "string" {
			return value{"string memory", v.v}
		}
		return v.value
	}
	return p.fail("ParserError", "Expected primary expression.")
}
