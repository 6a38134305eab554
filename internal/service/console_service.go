package service

import (
	"context"
	"sync"

	"github.com/vanshika/patienttrace/backend/internal/gsql"
)

// Console is the subset of the GSQL console client the HTTP layer uses.
type Console interface {
	Catalog(ctx context.Context) (gsql.Catalog, error)
	Session() gsql.Session
}

// ConsoleService serialises access to a single console session, which
// tracks cookie state between calls and must not be used concurrently.
type ConsoleService struct {
	mu      sync.Mutex
	console Console
}

// NewConsoleService wraps console.
func NewConsoleService(console Console) *ConsoleService {
	return &ConsoleService{console: console}
}

// Catalog lists the schema objects visible to the session.
func (s *ConsoleService) Catalog(ctx context.Context) (gsql.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.console.Catalog(ctx)
}

// LoggedIn reports whether the console holds a session token.
func (s *ConsoleService) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.console.Session().Token != ""
}
