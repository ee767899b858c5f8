// Package evaltest provides fakes of the compiler and the deployment bridge,
// and a framework for testing sessions of statements against them.
//
// Test cases are constructed using the That function, followed by a method
// call that specifies the outcome of the last statement:
//
//	Test(t,
//	    That("uint a = 10", "a").Returns(big.NewInt(10)),
//	    That("a").Fails(ErrorOfType(&eval.ProbeError{})))
package evaltest

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"src.solrepl.sh/pkg/eval"
	"src.solrepl.sh/pkg/tt"
)

// Case is a test case that can be used in Test.
type Case struct {
	inputs  []string
	want    eval.Value
	matcher tt.Matcher
	history []eval.Statement
}

// That returns a new Case that evaluates each of the inputs in a fresh
// session. All but the last input must evaluate successfully.
func That(inputs ...string) Case {
	return Case{inputs: inputs}
}

// Returns returns an altered Case that requires the last input to evaluate to
// the given value.
func (c Case) Returns(v eval.Value) Case {
	c.want = v
	return c
}

// ReturnsNothing returns an altered Case that requires the last input to
// evaluate to nil without an error.
func (c Case) ReturnsNothing() Case {
	c.want = nil
	return c
}

// Fails returns an altered Case that requires the last input to fail with an
// error matched by the given matcher, like tt.ErrorOfType.
func (c Case) Fails(m tt.Matcher) Case {
	c.matcher = m
	return c
}

// LeavesHistory returns an altered Case that requires the history to consist
// of the given statements after evaluating all inputs.
func (c Case) LeavesHistory(stmts ...eval.Statement) Case {
	c.history = stmts
	if c.history == nil {
		c.history = []eval.Statement{}
	}
	return c
}

// Test runs test cases, each in a new session created with NewSession.
func Test(t *testing.T, cases ...Case) {
	t.Helper()
	for _, c := range cases {
		t.Run(strings.Join(c.inputs, " | "), func(t *testing.T) {
			t.Helper()
			s, _, _ := NewSession()
			ctx := context.Background()
			var v eval.Value
			var err error
			for i, input := range c.inputs {
				v, err = s.Evaluate(ctx, input)
				if err != nil && i < len(c.inputs)-1 {
					t.Fatalf("Evaluate(%q) returns error: %v", input, err)
				}
			}
			if c.matcher != nil {
				if !c.matcher.Match(err) {
					t.Errorf("got error %v, want one matching %v", err, c.matcher)
				}
			} else {
				if err != nil {
					t.Errorf("got error %v, want nil", err)
				}
				if !cmp.Equal(v, c.want, tt.CmpOptions...) {
					t.Errorf("got value (-want +got):\n%s", cmp.Diff(c.want, v, tt.CmpOptions...))
				}
			}
			if c.history != nil {
				if diff := cmp.Diff(c.history, s.History(), cmpopts.EquateEmpty()); diff != "" {
					t.Errorf("history (-want +got):\n%s", diff)
				}
			}
		})
	}
}
