// Package server serves an evaluation session over JSON-RPC 2.0 on stdio,
// using the same framing as the language server protocol.
//
// Methods:
//
//   - solrepl.evaluate {"input": string} -> {"value": any, "repr": string}
//   - solrepl.reset -> null
//   - solrepl.history -> [string]
//   - solrepl.restore {"statements": [string]} -> null
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/sourcegraph/jsonrpc2"
	"src.solrepl.sh/pkg/config"
	"src.solrepl.sh/pkg/errutil"
	"src.solrepl.sh/pkg/eval"
	"src.solrepl.sh/pkg/logutil"
	"src.solrepl.sh/pkg/prog"
	"src.solrepl.sh/pkg/shell"
)

var logger = logutil.GetLogger("[server] ")

// Program is the JSON-RPC server subprogram.
type Program struct {
	// Defaults to shell.InitSession.
	NewSession shell.SessionFunc
}

func (p Program) Run(fds [3]*os.File, f *prog.Flags, args []string) error {
	if !f.Serve {
		return prog.ErrNotSuitable
	}
	if len(args) > 0 {
		return prog.BadUsage("arguments are not allowed with -serve")
	}
	cfg, err := config.FromFlags(f)
	if err != nil {
		return err
	}
	newSession := p.NewSession
	if newSession == nil {
		newSession = shell.InitSession
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warnings are kept until the evaluation that produced them returns.
	var s *server
	session, cleanup, err := newSession(ctx, cfg, func(ws []string) { s.warn(ws) })
	if err != nil {
		return err
	}
	defer cleanup()
	s = newServer(session, cfg)

	conn := serve(ctx, transport{fds[0], fds[1]}, s)
	<-conn.DisconnectNotify()
	return nil
}

// Requests are handled concurrently, so that a client can observe the session
// rejecting concurrent evaluations.
func serve(ctx context.Context, rwc io.ReadWriteCloser, s *server) *jsonrpc2.Conn {
	return jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.AsyncHandler(s.handler()))
}

type transport struct{ in, out *os.File }

func (c transport) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c transport) Write(p []byte) (int, error) { return c.out.Write(p) }

func (c transport) Close() error {
	return errutil.Multi(c.in.Close(), c.out.Close())
}

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

// Error codes of evaluation failures.
const (
	CodeCompile int64 = -32000 - iota
	CodeProbe
	CodeDeployment
	CodeBusy
	CodeEvaluation
)

// ErrorData is the data of an evaluation error.
type ErrorData struct {
	Diagnostics []string `json:"diagnostics,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// EvaluateParams are the params of solrepl.evaluate.
type EvaluateParams struct {
	Input string `json:"input"`
}

// EvaluateResult is the result of solrepl.evaluate.
type EvaluateResult struct {
	Value    any      `json:"value"`
	Repr     string   `json:"repr"`
	Warnings []string `json:"warnings,omitempty"`
}

// RestoreParams are the params of solrepl.restore.
type RestoreParams struct {
	Statements []string `json:"statements"`
}

type method func(context.Context, json.RawMessage) (any, error)

func (s *server) handler() jsonrpc2.Handler {
	methods := map[string]method{
		"solrepl.evaluate": s.evaluate,
		"solrepl.reset":    s.reset,
		"solrepl.history":  s.history,
		"solrepl.restore":  s.restore,
	}
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			return nil, errMethodNotFound
		}
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		return fn(ctx, params)
	})
}

func (s *server) evaluate(ctx context.Context, rawParams json.RawMessage) (any, error) {
	var params EvaluateParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	v, err := s.session.Evaluate(ctx, params.Input)
	if errors.Is(err, eval.ErrBusy) {
		return nil, evalError(err)
	}
	warnings := s.takeWarnings()
	if err != nil {
		logger.Printf("evaluate %q: %v", params.Input, err)
		return nil, evalError(err)
	}
	return EvaluateResult{Value: eval.JSONValue(v), Repr: eval.Repr(v), Warnings: warnings}, nil
}

func (s *server) reset(context.Context, json.RawMessage) (any, error) {
	s.session.Reset()
	return nil, nil
}

func (s *server) history(context.Context, json.RawMessage) (any, error) {
	history := s.session.History()
	stmts := make([]string, len(history))
	for i, stmt := range history {
		stmts[i] = string(stmt)
	}
	return stmts, nil
}

func (s *server) restore(ctx context.Context, rawParams json.RawMessage) (any, error) {
	var params RestoreParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	stmts := make([]eval.Statement, len(params.Statements))
	for i, stmt := range params.Statements {
		stmts[i] = eval.Statement(stmt)
	}
	if err := s.session.Restore(ctx, stmts); err != nil {
		return nil, evalError(err)
	}
	s.takeWarnings()
	return nil, nil
}

// Converts an evaluation error to a JSON-RPC error.
func evalError(err error) *jsonrpc2.Error {
	rpcErr := &jsonrpc2.Error{Code: CodeEvaluation, Message: err.Error()}
	var (
		compileErr *eval.CompileError
		probeErr   *eval.ProbeError
		deployErr  *eval.DeploymentError
	)
	switch {
	case errors.As(err, &compileErr):
		rpcErr.Code = CodeCompile
		rpcErr.SetError(ErrorData{Diagnostics: compileErr.Diagnostics, Source: compileErr.Source})
	case errors.As(err, &probeErr):
		rpcErr.Code = CodeProbe
		rpcErr.SetError(ErrorData{Diagnostics: probeErr.Diagnostics, Source: probeErr.Source})
	case errors.As(err, &deployErr):
		rpcErr.Code = CodeDeployment
	case errors.Is(err, eval.ErrBusy):
		rpcErr.Code = CodeBusy
	}
	return rpcErr
}
