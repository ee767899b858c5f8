package eval

import "strings"

// Terminator is the statement terminator of the wrapped language.
const Terminator = ";"

// Statement is a single submission, normalized to end with exactly one
// Terminator. It may contain several statements of the wrapped language.
type Statement string

// Body returns the statement without its trailing Terminator.
func (s Statement) Body() string {
	return strings.TrimSuffix(string(s), Terminator)
}

// Normalize trims whitespace from raw input and makes sure that it ends with
// exactly one Terminator. It returns false if the input is blank.
func Normalize(raw string) (Statement, bool) {
	s := strings.TrimSpace(raw)
	for strings.HasSuffix(s, Terminator) {
		s = strings.TrimSpace(strings.TrimSuffix(s, Terminator))
	}
	if s == "" {
		return "", false
	}
	return Statement(s + Terminator), true
}
