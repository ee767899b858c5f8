package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sourcegraph/jsonrpc2"
	"src.solrepl.sh/pkg/config"
	"src.solrepl.sh/pkg/eval"
	"src.solrepl.sh/pkg/eval/evaltest"
	"src.solrepl.sh/pkg/prog"
	. "src.solrepl.sh/pkg/prog/progtest"
	"src.solrepl.sh/pkg/testutil"
)

type fixture struct {
	client   *jsonrpc2.Conn
	compiler *evaltest.Compiler
}

func setup(t *testing.T) *fixture {
	t.Helper()
	compiler := &evaltest.Compiler{}
	var s *server
	session := eval.NewSession(eval.Config{
		Compiler: compiler,
		Bridge:   &evaltest.Chain{},
		Warnings: func(ws []string) { s.warn(ws) },
	})
	s = newServer(session, config.Default())

	ctx, cancel := context.WithCancel(context.Background())
	serverEnd, clientEnd := net.Pipe()
	serverConn := serve(ctx, serverEnd, s)
	client := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(clientEnd, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(func(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) (any, error) {
			return nil, nil
		}))
	t.Cleanup(func() {
		client.Close()
		serverConn.Close()
		cancel()
	})
	return &fixture{client, compiler}
}

func (f *fixture) evaluate(t *testing.T, input string) (EvaluateResult, error) {
	t.Helper()
	var result EvaluateResult
	err := f.client.Call(context.Background(), "solrepl.evaluate", EvaluateParams{input}, &result)
	return result, err
}

func TestEvaluate(t *testing.T) {
	f := setup(t)
	if _, err := f.evaluate(t, "uint a = 10"); err != nil {
		t.Fatal(err)
	}
	result, err := f.evaluate(t, "a + 1")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(EvaluateResult{Value: "11", Repr: "11"}, result); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	result, err = f.evaluate(t, "uint a = 1; a = 2")
	if err == nil {
		t.Fatalf("want error, got %v", result)
	}

	result, err = f.evaluate(t, "tx")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"gasprice": "20000000000", "origin": "0x0000000000000000000000000000000000000011"}
	if diff := cmp.Diff(want, result.Value); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestEvaluate_Warnings(t *testing.T) {
	f := setup(t)
	result, err := f.evaluate(t, "uint now = 1")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Warnings) != 1 || result.Value != nil || result.Repr != "" {
		t.Errorf("got %+v", result)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	f := setup(t)
	_, err := f.evaluate(t, "a")
	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != CodeProbe {
		t.Fatalf("got error %v, want one with code %d", err, CodeProbe)
	}
	var data ErrorData
	if err := json.Unmarshal(*rpcErr.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Diagnostics) != 1 || data.Source == "" {
		t.Errorf("got error data %+v", data)
	}

	err = f.client.Call(context.Background(), "solrepl.evaluate", []int{1}, nil)
	if !errors.As(err, &rpcErr) || rpcErr.Code != jsonrpc2.CodeInvalidParams {
		t.Errorf("got error %v, want invalid params", err)
	}
	err = f.client.Call(context.Background(), "solrepl.frobnicate", nil, nil)
	if !errors.As(err, &rpcErr) || rpcErr.Code != jsonrpc2.CodeMethodNotFound {
		t.Errorf("got error %v, want method not found", err)
	}
}

func TestHistoryResetRestore(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.evaluate(t, "uint a = 10")
	f.evaluate(t, "a")

	var history []string
	if err := f.client.Call(ctx, "solrepl.history", nil, &history); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"uint a = 10;", "a;"}, history); diff != "" {
		t.Errorf("history (-want +got):\n%s", diff)
	}

	if err := f.client.Call(ctx, "solrepl.reset", nil, nil); err != nil {
		t.Fatal(err)
	}
	f.client.Call(ctx, "solrepl.history", nil, &history)
	if len(history) != 0 {
		t.Errorf("history after reset is %v", history)
	}

	err := f.client.Call(ctx, "solrepl.restore", RestoreParams{[]string{"uint b = 2;"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	result, err := f.evaluate(t, "b")
	if err != nil || result.Repr != "2" {
		t.Errorf("got %v, %v after restore", result, err)
	}
}

func TestEvaluate_Busy(t *testing.T) {
	f := setup(t)
	block := make(chan struct{})
	f.compiler.Block = block

	done := make(chan error, 1)
	go func() {
		_, err := f.evaluate(t, "uint a = 1")
		done <- err
	}()
	for len(f.compiler.Sources()) == 0 {
		time.Sleep(time.Millisecond)
	}
	_, err := f.evaluate(t, "uint b = 1")
	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != CodeBusy {
		t.Errorf("got error %v, want one with code %d", err, CodeBusy)
	}
	close(block)
	if err := <-done; err != nil {
		t.Errorf("first evaluation failed: %v", err)
	}
}

func TestProgram_NotSuitable(t *testing.T) {
	err := Program{}.Run([3]*os.File{}, &prog.Flags{}, nil)
	if err != prog.ErrNotSuitable {
		t.Errorf("got error %v, want ErrNotSuitable", err)
	}
}

func TestProgram_BadUsage(t *testing.T) {
	testutil.TempHome(t)
	Test(t, Program{},
		ThatSolrepl("-serve", "x").ExitsWith(2).WritesStderrContaining("arguments are not allowed"))
}
