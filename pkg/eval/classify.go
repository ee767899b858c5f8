package eval

import "regexp"

// Kind is the kind of a statement.
type Kind int

// Possible values of Kind.
const (
	// Expression statements produce an observable value.
	Expression Kind = iota
	// Effectful statements are declarations, assignments and deletions.
	// Evaluating them produces no value.
	Effectful
)

func (k Kind) String() string {
	switch k {
	case Expression:
		return "expression"
	case Effectful:
		return "effectful"
	default:
		return "unknown"
	}
}

// Classifier decides the Kind of a statement.
type Classifier interface {
	Classify(s Statement) Kind
}

// SurfaceClassifier classifies statements by their surface syntax, without
// parsing them.
//
// A statement is Effectful if it contains an "=" that is not part of "==",
// "!=", "<=" or ">=" (this covers declarations with initializers, plain and
// compound assignments, as well as the "=>" of mapping types), or if it starts
// with the "delete" keyword. Everything else is an Expression.
//
// This is best effort. Statements that produce a value and assign at the same
// time, such as "(a = 1) + 1", are classified as Effectful; a shift assignment
// like "a >>= 1" is classified as an Expression.
type SurfaceClassifier struct{}

var (
	assignmentPattern = regexp.MustCompile(`(^|[^=!<>])=($|[^=])`)
	deletionPattern   = regexp.MustCompile(`^delete\b`)
)

// Classify implements Classifier.
func (SurfaceClassifier) Classify(s Statement) Kind {
	body := s.Body()
	if assignmentPattern.MatchString(body) || deletionPattern.MatchString(body) {
		return Effectful
	}
	return Expression
}
