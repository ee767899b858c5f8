package diag

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Variables controlling the style of culprit lines.
var (
	culpritLineBegin = "\033[1;4m"
	culpritLineEnd   = "\033[m"
)

// Listing is a piece of source code that is shown with line numbers, with
// some lines optionally marked as culprits.
type Listing struct {
	Name   string
	Source string
	// Culprits contains 1-based line numbers.
	Culprits map[int]bool
}

// NewListing creates a Listing, marking every line referenced by a location
// of the form "name:line:col" in any of the messages.
func NewListing(name, source string, messages []string) *Listing {
	l := &Listing{Name: name, Source: source, Culprits: map[int]bool{}}
	for _, line := range LinesReferenced(name, messages) {
		l.Culprits[line] = true
	}
	return l
}

// Show shows the source, one line per output line, each prefixed by its line
// number. The indent is added before every line except the first.
func (l *Listing) Show(indent string) string {
	lines := strings.Split(strings.TrimSuffix(l.Source, "\n"), "\n")
	width := len(strconv.Itoa(len(lines)))
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteString("\n" + indent)
		}
		n := i + 1
		if l.Culprits[n] {
			fmt.Fprintf(&sb, "%*d  %s%s%s", width, n, culpritLineBegin, line, culpritLineEnd)
		} else {
			fmt.Fprintf(&sb, "%*d  %s", width, n, line)
		}
	}
	return sb.String()
}

// LinesReferenced returns the 1-based line numbers referenced by "name:line"
// or "name:line:col" locations in messages, in order of appearance and
// without duplicates.
func LinesReferenced(name string, messages []string) []int {
	re := regexp.MustCompile(regexp.QuoteMeta(name) + `:(\d+)(?::\d+)?`)
	seen := map[int]bool{}
	var lines []int
	for _, msg := range messages {
		for _, m := range re.FindAllStringSubmatch(msg, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil || seen[n] {
				continue
			}
			seen[n] = true
			lines = append(lines, n)
		}
	}
	return lines
}
