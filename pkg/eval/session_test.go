package eval_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"src.solrepl.sh/pkg/eval"
	"src.solrepl.sh/pkg/eval/evaldefs"
	. "src.solrepl.sh/pkg/eval/evaltest"
	"src.solrepl.sh/pkg/testutil"
	"src.solrepl.sh/pkg/tt"
)

var (
	probeError   = tt.ErrorOfType(&eval.ProbeError{})
	compileError = tt.ErrorOfType(&eval.CompileError{})
)

func TestSession_Effectful(t *testing.T) {
	Test(t,
		That("uint a = 10").ReturnsNothing().LeavesHistory("uint a = 10;"),
		That("uint a = 10;").ReturnsNothing().LeavesHistory("uint a = 10;"),
		That("uint a = 10", "a = 11").ReturnsNothing().
			LeavesHistory("uint a = 10;", "a = 11;"),
		That("uint a = 10", "delete a").ReturnsNothing(),
		That("string memory s = \"hi\"").ReturnsNothing(),
	)
}

func TestSession_Expressions(t *testing.T) {
	Test(t,
		That("uint a = 10", "a").Returns(big.NewInt(10)).
			LeavesHistory("uint a = 10;", "a;"),
		That("uint a = 10", "uint b = 20", "a + b").Returns(big.NewInt(30)),
		That("uint a = 10", "uint b = 20", "  a + b ;  ").Returns(big.NewInt(30)),
		That("1 + 2").Returns(big.NewInt(3)),
		That("uint a = 10", "a > 5").Returns(true),
		That("true").Returns(true),
		That(`"hello"`).Returns("hello"),
		That(`string memory s = "hi"`, "s").Returns("hi"),
		That("uint a = 10; a = 11;", "a").Returns(big.NewInt(11)),
		That("uint a = 10", "a += 5", "a").Returns(big.NewInt(15)),
		That("uint a = 10", "delete a", "a").Returns(big.NewInt(0)),
		That("msg.sender").Returns(Sender),
		That("block.number").Returns(big.NewInt(7)),
		That("gasleft()").Returns(big.NewInt(2978000)),
	)
}

func TestSession_Namespaces(t *testing.T) {
	Test(t,
		That("msg").Returns(eval.Record{
			Keys: []string{"data", "gas", "sender", "sig", "value"},
			Values: []any{CallData, big.NewInt(2978000), Sender,
				[4]byte{0xf8, 0xa8, 0xfd, 0x6d}, big.NewInt(0)},
		}).LeavesHistory("msg;"),
		That("tx").Returns(eval.Record{
			Keys:   []string{"gasprice", "origin"},
			Values: []any{big.NewInt(20000000000), Sender},
		}),
		That("block;").Returns(eval.Record{
			Keys: []string{"coinbase", "difficulty", "gaslimit", "number", "timestamp"},
			Values: []any{Coinbase, big.NewInt(1), big.NewInt(30000000),
				big.NewInt(7), big.NewInt(1700000000)},
		}),
		// The name of a namespace stays usable in later statements.
		That("msg", "uint a = 1", "a").Returns(big.NewInt(1)),
	)
}

func TestSession_Errors(t *testing.T) {
	Test(t,
		That("a").Fails(probeError).LeavesHistory(),
		That("uint a = ").Fails(probeError).LeavesHistory(),
		That("uint a = 1", "uint a = 2").Fails(probeError).
			LeavesHistory("uint a = 1;"),
		That("uint a = true").Fails(probeError),
		That("true + 1").Fails(probeError),
	)
}

func TestSession_BlankInput(t *testing.T) {
	s, compiler, _ := NewSession()
	for _, input := range []string{"", "   ", "\t\n", ";"} {
		v, err := s.Evaluate(context.Background(), input)
		if v != nil || err != nil {
			t.Errorf("Evaluate(%q) -> %v, %v, want nil, nil", input, v, err)
		}
	}
	if n := len(compiler.Sources()); n != 0 {
		t.Errorf("compiled %d times for blank input", n)
	}
	if h := s.History(); len(h) != 0 {
		t.Errorf("history %v, want empty", h)
	}
}

func TestSession_ErrorIsolation(t *testing.T) {
	s, compiler, _ := NewSession()
	ctx := context.Background()
	mustEvaluate(t, s, "uint a = 10")
	if _, err := s.Evaluate(ctx, "uint b = c"); !probeError.Match(err) {
		t.Fatalf("got error %v, want ProbeError", err)
	}
	v := mustEvaluate(t, s, "a")
	if !cmp.Equal(v, eval.Value(big.NewInt(10)), tt.CmpOptions...) {
		t.Errorf("got %v, want 10", v)
	}
	last := compiler.Sources()[len(compiler.Sources())-1]
	if strings.Contains(last, "uint b = c") {
		t.Errorf("failed statement leaked into a later unit:\n%s", last)
	}
}

func TestSession_TwoPassProbe(t *testing.T) {
	s, compiler, chain := NewSession()
	mustEvaluate(t, s, "uint a = 10")
	mustEvaluate(t, s, "a")

	sources := compiler.Sources()
	if len(sources) != 3 {
		t.Fatalf("got %d compilations, want 3", len(sources))
	}
	if !strings.Contains(sources[1], "returns (bool)") {
		t.Errorf("first pass doesn't declare bool:\n%s", sources[1])
	}
	want := testutil.Dedent(`
		pragma solidity ^0.8.0;
		contract ReplContainer {
		  function Main() public payable returns (uint256) {
		    uint a = 10;
		    return a;
		  }
		}
		`)
	if sources[2] != want {
		t.Errorf("second pass is:\n%s\nwant:\n%s", sources[2], want)
	}
	// Effectful statements are never deployed.
	if n := chain.Deployed(); n != 1 {
		t.Errorf("deployed %d contracts, want 1", n)
	}
}

func TestSession_PragmaDefaultsToDialect(t *testing.T) {
	for _, dialect := range []*eval.Dialect{eval.Solc04, eval.Solc08} {
		t.Run(dialect.Name, func(t *testing.T) {
			compiler := &Compiler{}
			s := eval.NewSession(eval.Config{
				Compiler: compiler, Bridge: &Chain{}, Dialect: dialect})
			mustEvaluate(t, s, "1 + 2")

			sources := compiler.Sources()
			last := sources[len(sources)-1]
			if !strings.HasPrefix(last, "pragma solidity "+dialect.Pragma+";\n") {
				t.Errorf("unit doesn't start with pragma %s:\n%s", dialect.Pragma, last)
			}
			if !strings.Contains(last, "function Main() "+dialect.Modifiers+" returns (uint256)") {
				t.Errorf("unit doesn't declare Main with %q:\n%s", dialect.Modifiers, last)
			}
		})
	}
}

func TestSession_ExplicitPragma(t *testing.T) {
	compiler := &Compiler{}
	s := eval.NewSession(eval.Config{
		Compiler: compiler, Bridge: &Chain{}, Dialect: eval.Solc04, Pragma: "0.4.26"})
	mustEvaluate(t, s, "true")
	for _, src := range compiler.Sources() {
		if !strings.HasPrefix(src, "pragma solidity 0.4.26;\n") {
			t.Errorf("explicit pragma not used:\n%s", src)
		}
	}
}

func TestSession_Reset(t *testing.T) {
	s, _, _ := NewSession()
	mustEvaluate(t, s, "uint a = 10")
	s.Reset()
	s.Reset()
	if h := s.History(); len(h) != 0 {
		t.Errorf("history after Reset is %v", h)
	}
	if _, err := s.Evaluate(context.Background(), "a"); !probeError.Match(err) {
		t.Errorf("got error %v, want ProbeError", err)
	}
}

func TestSession_DeploymentError(t *testing.T) {
	for _, op := range []string{"deploy", "invoke"} {
		t.Run(op, func(t *testing.T) {
			compiler, chain := &Compiler{}, &Chain{}
			cause := errors.New("node is down")
			if op == "deploy" {
				chain.DeployErr = cause
			} else {
				chain.InvokeErr = cause
			}
			s := eval.NewSession(eval.Config{Compiler: compiler, Bridge: chain})
			mustEvaluate(t, s, "uint a = 10")

			_, err := s.Evaluate(context.Background(), "a")
			var derr *eval.DeploymentError
			if !errors.As(err, &derr) || derr.Op != op || !errors.Is(err, cause) {
				t.Errorf("got error %v, want DeploymentError of %s", err, op)
			}
			if diff := cmp.Diff([]eval.Statement{"uint a = 10;"}, s.History()); diff != "" {
				t.Errorf("history (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSession_CompilerFailure(t *testing.T) {
	cause := errors.New("solc: not found")
	compiler := &Compiler{Fail: func(string) error { return cause }}
	s := eval.NewSession(eval.Config{Compiler: compiler, Bridge: &Chain{}})
	if _, err := s.Evaluate(context.Background(), "uint a = 1"); !errors.Is(err, cause) {
		t.Errorf("got error %v, want %v", err, cause)
	}
}

func TestSession_SecondPassFailure(t *testing.T) {
	// A compiler that accepts the first pass but rejects the corrected unit.
	s := eval.NewSession(eval.Config{
		Compiler: secondPassRejecter{&Compiler{}},
		Bridge:   &Chain{},
	})
	mustEvaluate(t, s, "uint a = 10")
	if _, err := s.Evaluate(context.Background(), "a"); !compileError.Match(err) {
		t.Errorf("got error %v, want CompileError", err)
	}
}

func TestSession_Warnings(t *testing.T) {
	var mu sync.Mutex
	var got []string
	s := eval.NewSession(eval.Config{
		Compiler: &Compiler{}, Bridge: &Chain{},
		Warnings: func(ws []string) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, ws...)
		},
	})
	mustEvaluate(t, s, "uint a = 10")
	if len(got) != 0 {
		t.Errorf("unused variable warning reported: %v", got)
	}
	mustEvaluate(t, s, "uint now = 1")
	if len(got) != 1 || !strings.HasPrefix(got[0], "Warning: This declaration shadows a builtin symbol.") {
		t.Errorf("got warnings %q", got)
	}
}

func TestSession_Busy(t *testing.T) {
	block := make(chan struct{})
	compiler := &Compiler{Block: block}
	s := eval.NewSession(eval.Config{Compiler: compiler, Bridge: &Chain{}})

	done := make(chan error)
	go func() {
		_, err := s.Evaluate(context.Background(), "uint a = 1")
		done <- err
	}()
	// Wait for the first evaluation to reach the compiler.
	for deadline := time.Now().Add(testutil.Scaled(time.Second)); len(compiler.Sources()) == 0; {
		if time.Now().After(deadline) {
			t.Fatal("compiler not called")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := s.Evaluate(context.Background(), "uint b = 2"); err != eval.ErrBusy {
		t.Errorf("got error %v, want ErrBusy", err)
	}
	close(block)
	if err := <-done; err != nil {
		t.Errorf("first evaluation failed: %v", err)
	}
	if diff := cmp.Diff([]eval.Statement{"uint a = 1;"}, s.History()); diff != "" {
		t.Errorf("history (-want +got):\n%s", diff)
	}
}

func TestSession_Cancellation(t *testing.T) {
	compiler := &Compiler{Block: make(chan struct{})}
	s := eval.NewSession(eval.Config{Compiler: compiler, Bridge: &Chain{}})
	ctx, cancel := context.WithTimeout(context.Background(), testutil.Scaled(10*time.Millisecond))
	defer cancel()
	if _, err := s.Evaluate(ctx, "uint a = 1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got error %v, want deadline exceeded", err)
	}
	if h := s.History(); len(h) != 0 {
		t.Errorf("history %v, want empty", h)
	}
}

func TestSession_IndependentSessions(t *testing.T) {
	s1, _, _ := NewSession()
	s2, _, _ := NewSession()
	mustEvaluate(t, s1, "uint a = 1")
	if _, err := s2.Evaluate(context.Background(), "a"); !probeError.Match(err) {
		t.Errorf("got error %v, want ProbeError", err)
	}
}

func TestSession_Restore(t *testing.T) {
	s, _, _ := NewSession()
	mustEvaluate(t, s, "uint x = 1")
	err := s.Restore(context.Background(), []eval.Statement{"uint a = 10;", "uint b = a + 1;"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]eval.Statement{"uint a = 10;", "uint b = a + 1;"}, s.History()); diff != "" {
		t.Errorf("history (-want +got):\n%s", diff)
	}
	v := mustEvaluate(t, s, "b")
	if !cmp.Equal(v, eval.Value(big.NewInt(11)), tt.CmpOptions...) {
		t.Errorf("got %v, want 11", v)
	}

	err = s.Restore(context.Background(), []eval.Statement{"uint a = 1;", "c;"})
	if err == nil || !strings.HasPrefix(err.Error(), "statement 2 (c;): ") || !probeError.Match(errors.Unwrap(err)) {
		t.Errorf("got error %v", err)
	}
	if diff := cmp.Diff([]eval.Statement{"uint a = 1;"}, s.History()); diff != "" {
		t.Errorf("history (-want +got):\n%s", diff)
	}
}

type secondPassRejecter struct{ evaldefs.Compiler }

func (c secondPassRejecter) Compile(ctx context.Context, source string) (*evaldefs.CompileOutput, error) {
	if strings.Contains(source, "returns (bool)") {
		return c.Compiler.Compile(ctx, source)
	}
	return &evaldefs.CompileOutput{
		Diagnostics: []string{"TypeError: Type is not callable\n --> repl.sol:4:12:"},
	}, nil
}

func mustEvaluate(t *testing.T, s *eval.Session, input string) eval.Value {
	t.Helper()
	v, err := s.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("Evaluate(%q) -> error %v", input, err)
	}
	return v
}
