package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/lehigh-university-libraries/bookfinder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completed(_ models.CycleSnapshot, ok bool) bool { return ok }

func TestBeginAndComplete(t *testing.T) {
	s := New()

	ctx, c := s.Begin(context.Background(), "sess-1")
	require.NoError(t, ctx.Err())
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "sess-1", c.Session)

	done, ok := s.Complete(c, models.CycleSnapshot{Status: "success", Query: "dune"})
	require.True(t, ok)
	assert.Equal(t, c.ID, done.CycleID)
	assert.Equal(t, "sess-1", done.SessionID)

	snap, found := s.Get("sess-1")
	require.True(t, found)
	assert.Equal(t, c.ID, snap.CycleID)
	assert.Equal(t, "dune", snap.Query)
	assert.False(t, snap.StartedAt.IsZero())
	assert.False(t, snap.CompletedAt.IsZero())
	assert.ErrorIs(t, ctx.Err(), context.Canceled, "context is released after completion")
}

func TestBeginSupersedesPreviousCycle(t *testing.T) {
	s := New()

	oldCtx, old := s.Begin(context.Background(), "sess")
	newCtx, cur := s.Begin(context.Background(), "sess")

	assert.ErrorIs(t, oldCtx.Err(), context.Canceled)
	assert.NoError(t, newCtx.Err())
	assert.False(t, s.Current(old))
	assert.True(t, s.Current(cur))

	assert.False(t, completed(s.Complete(old, models.CycleSnapshot{Query: "stale"})))
	_, found := s.Get("sess")
	assert.False(t, found, "superseded result must not be published")

	assert.True(t, completed(s.Complete(cur, models.CycleSnapshot{Query: "fresh"})))
	snap, found := s.Get("sess")
	require.True(t, found)
	assert.Equal(t, "fresh", snap.Query)
}

func TestLateCompletionDoesNotOverwrite(t *testing.T) {
	s := New()

	_, first := s.Begin(context.Background(), "sess")
	_, second := s.Begin(context.Background(), "sess")
	require.True(t, completed(s.Complete(second, models.CycleSnapshot{Query: "second"})))
	require.False(t, completed(s.Complete(first, models.CycleSnapshot{Query: "first"})))

	snap, _ := s.Get("sess")
	assert.Equal(t, "second", snap.Query)
}

func TestSessionsAreIndependent(t *testing.T) {
	s := New()

	ctxA, a := s.Begin(context.Background(), "a")
	_, b := s.Begin(context.Background(), "b")

	assert.NoError(t, ctxA.Err())
	assert.True(t, completed(s.Complete(a, models.CycleSnapshot{Query: "a"})))
	assert.True(t, completed(s.Complete(b, models.CycleSnapshot{Query: "b"})))
	assert.ElementsMatch(t, []string{"a", "b"}, s.Sessions())
}

func TestBeginWithoutSessionID(t *testing.T) {
	s := New()

	_, a := s.Begin(context.Background(), "")
	_, b := s.Begin(context.Background(), "")

	assert.NotEmpty(t, a.Session)
	assert.NotEqual(t, a.Session, b.Session)
	assert.True(t, s.Current(a))

	done, ok := s.Complete(a, models.CycleSnapshot{Query: "dune"})
	require.True(t, ok)
	assert.Equal(t, a.Session, done.SessionID)
	assert.Equal(t, a.ID, done.CycleID)
	assert.False(t, done.CompletedAt.IsZero())
	assert.True(t, completed(s.Complete(b, models.CycleSnapshot{Query: "hobbit"})))

	_, found := s.Get(a.Session)
	assert.False(t, found, "unnamed sessions keep no result")
	assert.Empty(t, s.Sessions())
}

func TestParentCancellation(t *testing.T) {
	s := New()
	parent, cancel := context.WithCancel(context.Background())

	ctx, _ := s.Begin(parent, "sess")
	cancel()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestDeleteCancelsRunningCycle(t *testing.T) {
	s := New()
	ctx, c := s.Begin(context.Background(), "sess")

	s.Delete("sess")

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, completed(s.Complete(c, models.CycleSnapshot{})))
	assert.Empty(t, s.Sessions())
}

func TestConcurrentCyclesPublishOnlyLatest(t *testing.T) {
	s := New()
	const n = 50

	cycles := make([]*Cycle, n)
	for i := range cycles {
		_, cycles[i] = s.Begin(context.Background(), "sess")
	}

	var wg sync.WaitGroup
	published := make([]bool, n)
	for i := range cycles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, published[i] = s.Complete(cycles[i], models.CycleSnapshot{Query: cycles[i].ID})
		}(i)
	}
	wg.Wait()

	for i := 0; i < n-1; i++ {
		assert.False(t, published[i])
	}
	assert.True(t, published[n-1])
	snap, _ := s.Get("sess")
	assert.Equal(t, cycles[n-1].ID, snap.Query)
}
