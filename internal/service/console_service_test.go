package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/patienttrace/backend/internal/gsql"
)

type stubConsole struct {
	active  atomic.Int32
	overlap atomic.Bool
	calls   atomic.Int32
}

func (s *stubConsole) Catalog(context.Context) (gsql.Catalog, error) {
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.active.Add(-1)
	s.calls.Add(1)
	time.Sleep(time.Millisecond)
	return gsql.Catalog{Vertices: []string{"Patient"}}, nil
}

func (s *stubConsole) Session() gsql.Session {
	return gsql.Session{Token: "JSESSIONID=abc"}
}

func TestConsoleService_SerialisesCalls(t *testing.T) {
	console := &stubConsole{}
	svc := NewConsoleService(console)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cat, err := svc.Catalog(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, []string{"Patient"}, cat.Vertices)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(8), console.calls.Load())
	assert.False(t, console.overlap.Load())
}

func TestConsoleService_LoggedIn(t *testing.T) {
	assert.True(t, NewConsoleService(&stubConsole{}).LoggedIn())
}
