package server

import (
	"context"
	"sync"
	"time"

	"src.solrepl.sh/pkg/config"
	"src.solrepl.sh/pkg/eval"
)

type server struct {
	session *eval.Session
	timeout time.Duration

	warningsMu sync.Mutex
	warnings   []string
}

func newServer(session *eval.Session, cfg config.Config) *server {
	return &server{session: session, timeout: cfg.Timeout}
}

func (s *server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

func (s *server) warn(ws []string) {
	s.warningsMu.Lock()
	defer s.warningsMu.Unlock()
	s.warnings = append(s.warnings, ws...)
}

// Only one evaluation runs at a time, so the warnings belong to the
// evaluation that has just finished.
func (s *server) takeWarnings() []string {
	s.warningsMu.Lock()
	defer s.warningsMu.Unlock()
	ws := s.warnings
	s.warnings = nil
	return ws
}
