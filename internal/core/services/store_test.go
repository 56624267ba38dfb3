package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/probelab/researchd/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id string, createdAt time.Time) domain.Session {
	return domain.Session{
		ID:        domain.SessionID(id),
		Question:  "q",
		Status:    domain.StatusStarted,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestSessionStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	session := newSession("s-1", time.Now())
	require.NoError(t, store.Create(ctx, session))
	assert.Error(t, store.Create(ctx, session), "duplicate ids must be rejected")

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Question, got.Question)

	require.NoError(t, store.Update(ctx, session.ID, func(s *domain.Session) {
		s.Status = domain.StatusRunning
		s.Progress = 10
	}))
	got, err = store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, got.Status)
	assert.Equal(t, 10, got.Progress)

	require.NoError(t, store.Delete(ctx, session.ID))
	_, err = store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, session.ID), domain.ErrSessionNotFound)
	assert.ErrorIs(t, store.Update(ctx, session.ID, func(*domain.Session) {}), domain.ErrSessionNotFound)
}

func TestSessionStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	require.NoError(t, store.Create(ctx, newSession("s-copy", time.Now())))

	got, err := store.Get(ctx, "s-copy")
	require.NoError(t, err)
	got.Status = domain.StatusError

	fresh, err := store.Get(ctx, "s-copy")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStarted, fresh.Status, "mutating a returned record must not touch the store")
}

func TestSessionStore_ListOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	base := time.Now()
	require.NoError(t, store.Create(ctx, newSession("s-b", base.Add(time.Second))))
	require.NoError(t, store.Create(ctx, newSession("s-a", base)))
	require.NoError(t, store.Create(ctx, newSession("s-c", base.Add(2*time.Second))))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, domain.SessionID("s-a"), sessions[0].ID)
	assert.Equal(t, domain.SessionID("s-b"), sessions[1].ID)
	assert.Equal(t, domain.SessionID("s-c"), sessions[2].ID)
	assert.Equal(t, 3, store.Count(ctx))
}

func TestSessionStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	require.NoError(t, store.Create(ctx, newSession("s-conc", time.Now())))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Update(ctx, "s-conc", func(s *domain.Session) {
				s.OutputLog += fmt.Sprintf("line %d\n", n)
			})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.Get(ctx, "s-conc")
			_, _ = store.List(ctx)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "s-conc")
	require.NoError(t, err)
	assert.Equal(t, 50, countLines(got.OutputLog))
}

func countLines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
