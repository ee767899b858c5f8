package diag

import (
	"fmt"
	"io"
)

// Styles used by Complain and Warn. They can be changed for testing.
var (
	complainStart = "\033[31;1m"
	warnStart     = "\033[33m"
	styleEnd      = "\033[m"
)

// ShowError shows an error. It uses the Show method if the error
// implements Shower, and uses Complain to print the error message otherwise.
func ShowError(w io.Writer, err error) {
	if shower, ok := err.(Shower); ok {
		fmt.Fprintln(w, shower.Show(""))
	} else {
		Complain(w, err.Error())
	}
}

// Complain prints a message to w in bold and red, adding a trailing newline.
func Complain(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s%s%s\n", complainStart, msg, styleEnd)
}

// Complainf is like Complain, but accepts a format string and arguments.
func Complainf(w io.Writer, format string, args ...any) {
	Complain(w, fmt.Sprintf(format, args...))
}

// Warn prints a message to w in yellow, adding a trailing newline.
func Warn(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s%s%s\n", warnStart, msg, styleEnd)
}
