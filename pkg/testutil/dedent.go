package testutil

import (
	"strings"
)

// Dedent removes any common leading whitespace from every line in text. An
// initial newline is removed. Lines that consist only of whitespace are
// emptied and do not take part in computing the common margin.
//
// This can be used to make multiline (usually raw) strings to line up with the
// left edge of the display, while still presenting them in the source code in
// indented form.
func Dedent(text string) string {
	text = strings.TrimPrefix(text, "\n")
	lines := strings.Split(text, "\n")

	margin, first := "", true
	for i, line := range lines {
		if strings.TrimLeft(line, " \t") == "" {
			lines[i] = ""
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			margin, first = indent, false
			continue
		}
		for !strings.HasPrefix(indent, margin) {
			margin = margin[:len(margin)-1]
		}
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, margin)
	}
	return strings.Join(lines, "\n")
}
