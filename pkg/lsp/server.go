package lsp

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
	"src.solrepl.sh/pkg/eval"
	"src.solrepl.sh/pkg/eval/evaldefs"
	"src.solrepl.sh/pkg/logutil"
)

var logger = logutil.GetLogger("[lsp] ")

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

type server struct {
	compiler evaldefs.Compiler
	dialect  *eval.Dialect
	pragma   string

	mu       sync.Mutex
	content  map[lsp.DocumentURI]string
	analyses map[lsp.DocumentURI]*analysis
}

func newServer(compiler evaldefs.Compiler, dialect *eval.Dialect, pragma string) *server {
	if dialect == nil {
		dialect = eval.Solc08
	}
	if pragma == "" {
		pragma = dialect.Pragma
	}
	return &server{
		compiler: compiler, dialect: dialect, pragma: pragma,
		content:  make(map[lsp.DocumentURI]string),
		analyses: make(map[lsp.DocumentURI]*analysis),
	}
}

func handler(s *server) jsonrpc2.Handler {
	return routingHandler(map[string]method{
		"initialize":              s.initialize,
		"textDocument/didOpen":    s.didOpen,
		"textDocument/didChange":  s.didChange,
		"textDocument/didClose":   s.didClose,
		"textDocument/hover":      s.hover,
		"textDocument/completion": s.completion,

		// Required by the protocol.
		"initialized": noop,
		"shutdown":    noop,
		// Sent by clients even when the server doesn't advertise support.
		"workspace/didChangeWatchedFiles": noop,
	})
}

type method func(context.Context, jsonrpc2.JSONRPC2, json.RawMessage) (any, error)

func noop(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return nil, nil
}

func routingHandler(methods map[string]method) jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			return nil, errMethodNotFound
		}
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		return fn(ctx, conn, params)
	})
}

// Handler implementations. These are all called synchronously.

func (s *server) initialize(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return &lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
				Options: &lsp.TextDocumentSyncOptions{
					OpenClose: true,
					Change:    lsp.TDSKFull,
				},
			},
			HoverProvider:      true,
			CompletionProvider: &lsp.CompletionOptions{TriggerCharacters: []string{"."}},
		},
	}, nil
}

func (s *server) didOpen(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidOpenTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	s.update(ctx, conn, params.TextDocument.URI, params.TextDocument.Text)
	return nil, nil
}

func (s *server) didChange(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidChangeTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil || len(params.ContentChanges) == 0 {
		return nil, errInvalidParams
	}
	// ContentChanges includes full text since the server is only advertised to
	// support that; see the initialize method.
	s.update(ctx, conn, params.TextDocument.URI, params.ContentChanges[0].Text)
	return nil, nil
}

func (s *server) didClose(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidCloseTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.content, params.TextDocument.URI)
	delete(s.analyses, params.TextDocument.URI)
	return nil, nil
}

// Records new content, and publishes diagnostics in the background.
func (s *server) update(ctx context.Context, conn jsonrpc2.JSONRPC2, uri lsp.DocumentURI, content string) {
	s.mu.Lock()
	s.content[uri] = content
	s.mu.Unlock()
	go func() {
		a := s.analysisOf(ctx, uri, content)
		if a == nil {
			return
		}
		err := conn.Notify(ctx, "textDocument/publishDiagnostics",
			lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: a.diagnostics})
		if err != nil {
			logger.Println("publish diagnostics:", err)
		}
	}()
}

// Returns the analysis of content, reusing the last one if it is up to date.
// It returns nil if the content of the document has changed in the meantime.
func (s *server) analysisOf(ctx context.Context, uri lsp.DocumentURI, content string) *analysis {
	s.mu.Lock()
	if a := s.analyses[uri]; a != nil && a.content == content {
		s.mu.Unlock()
		return a
	}
	s.mu.Unlock()

	a := s.analyze(ctx, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.content[uri] != content {
		return nil
	}
	s.analyses[uri] = a
	return a
}

func (s *server) hover(ctx context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.TextDocumentPositionParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	uri := params.TextDocument.URI
	s.mu.Lock()
	content := s.content[uri]
	s.mu.Unlock()

	a := s.analysisOf(ctx, uri, content)
	if a == nil {
		return lsp.Hover{}, nil
	}
	typ, ok := a.types[params.Position.Line]
	if !ok {
		return lsp.Hover{}, nil
	}
	line := strings.Split(content, "\n")[params.Position.Line]
	r := lineRange(params.Position.Line, line)
	return lsp.Hover{
		Contents: []lsp.MarkedString{{Language: "solidity", Value: typ}},
		Range:    &r,
	}, nil
}

func (s *server) completion(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.CompletionParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	s.mu.Lock()
	content := s.content[params.TextDocument.URI]
	s.mu.Unlock()

	lines := strings.Split(content, "\n")
	if params.Position.Line >= len(lines) {
		return []lsp.CompletionItem{}, nil
	}
	line := lines[params.Position.Line]
	before := line[:utf16Offset(line, params.Position.Character)]
	return completeMembers(before), nil
}

// Completes members of pseudo-namespaces after "ns.", and the names of
// pseudo-namespaces otherwise.
func completeMembers(before string) []lsp.CompletionItem {
	items := []lsp.CompletionItem{}
	for _, ns := range eval.DefaultNamespaces {
		if strings.HasSuffix(before, ns.Name+".") {
			for _, m := range ns.Members {
				items = append(items, lsp.CompletionItem{
					Label: m.Name, Kind: lsp.CIKField, Detail: m.Type})
			}
			return items
		}
	}
	for _, ns := range eval.DefaultNamespaces {
		items = append(items, lsp.CompletionItem{
			Label: ns.Name, Kind: lsp.CIKModule, Detail: ns.ReturnType()})
	}
	return items
}
