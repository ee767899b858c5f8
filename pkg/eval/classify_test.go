package eval

import (
	"testing"

	. "src.solrepl.sh/pkg/tt"
)

func TestSurfaceClassifier(t *testing.T) {
	classify := func(s string) Kind { return SurfaceClassifier{}.Classify(Statement(s)) }
	Test(t, Fn("Classify", classify), Table{
		Args("uint a = 10;").Rets(Effectful),
		Args("a = 11;").Rets(Effectful),
		Args("a += 1;").Rets(Effectful),
		Args("a -= 1;").Rets(Effectful),
		Args("mapping(uint => bool) storage m = x;").Rets(Effectful),
		Args("delete a;").Rets(Effectful),
		Args("uint a = 10; a = 11;").Rets(Effectful),

		Args("a;").Rets(Expression),
		Args("a + b;").Rets(Expression),
		Args("a == b;").Rets(Expression),
		Args("a != b;").Rets(Expression),
		Args("a <= b;").Rets(Expression),
		Args("a >= b;").Rets(Expression),
		Args("deleted;").Rets(Expression),
		Args("msg;").Rets(Expression),
		// Known limitation.
		Args("a >>= 1;").Rets(Expression),
	})
}

func TestKindString(t *testing.T) {
	Test(t, Fn("String", Kind.String), Table{
		Args(Expression).Rets("expression"),
		Args(Effectful).Rets("effectful"),
		Args(Kind(42)).Rets("unknown"),
	})
}
