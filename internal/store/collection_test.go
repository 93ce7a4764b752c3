package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type member struct {
	ID     string
	Name   string
	Email  string
	Active bool
}

func memberKey(m member) string { return m.ID }

func memberMatch(m member, query string) bool {
	return strings.Contains(strings.ToLower(m.Name), query) ||
		strings.Contains(strings.ToLower(m.Email), query)
}

func newTestCollection(ttl time.Duration) *Collection[member] {
	return New(memberKey, memberMatch, ttl)
}

func staticLoader(items []member, calls *int) Loader[member] {
	return func(context.Context) ([]member, error) {
		*calls++
		return append([]member(nil), items...), nil
	}
}

func TestFetchReplacesCollection(t *testing.T) {
	t.Parallel()

	c := newTestCollection(5 * time.Minute)
	calls := 0
	items := []member{{ID: "1", Name: "Ana"}, {ID: "2", Name: "Bruno"}}

	require.NoError(t, c.Fetch(context.Background(), staticLoader(items, &calls)))
	require.Equal(t, items, c.Items())
	require.Equal(t, items, c.Filtered())
	require.Empty(t, c.Err())
}

func TestFetchFailureKeepsStaleItems(t *testing.T) {
	t.Parallel()

	c := newTestCollection(5 * time.Minute)
	calls := 0
	items := []member{{ID: "1", Name: "Ana"}}
	require.NoError(t, c.Fetch(context.Background(), staticLoader(items, &calls)))

	err := c.Fetch(context.Background(), func(context.Context) ([]member, error) {
		return nil, errors.New("network down")
	})
	require.Error(t, err)
	require.Equal(t, "network down", c.Err())
	require.Equal(t, items, c.Items(), "previous collection must stay available")
}

func TestFetchIfNeededHonorsStalenessWindow(t *testing.T) {
	t.Parallel()

	c := newTestCollection(5 * time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	calls := 0
	loader := staticLoader([]member{{ID: "1"}}, &calls)

	// First ever invocation always fetches.
	require.NoError(t, c.FetchIfNeeded(context.Background(), loader))
	require.Equal(t, 1, calls)

	// Within the window no call is issued.
	now = now.Add(4 * time.Minute)
	require.NoError(t, c.FetchIfNeeded(context.Background(), loader))
	require.Equal(t, 1, calls)

	// Once the threshold elapses it fetches again.
	now = now.Add(2 * time.Minute)
	require.NoError(t, c.FetchIfNeeded(context.Background(), loader))
	require.Equal(t, 2, calls)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	t.Parallel()

	c := newTestCollection(5 * time.Minute)
	calls := 0
	loader := staticLoader([]member{{ID: "1"}}, &calls)

	require.NoError(t, c.FetchIfNeeded(context.Background(), loader))
	c.Invalidate()
	require.NoError(t, c.FetchIfNeeded(context.Background(), loader))
	require.Equal(t, 2, calls)
}

func TestSearchQueryFiltersWithoutRefetch(t *testing.T) {
	t.Parallel()

	c := newTestCollection(5 * time.Minute)
	calls := 0
	items := []member{
		{ID: "1", Name: "Ana", Email: "ana@gym.test"},
		{ID: "2", Name: "Bruno", Email: "bruno@gym.test"},
		{ID: "3", Name: "ANABEL", Email: "anabel@gym.test"},
	}
	require.NoError(t, c.Fetch(context.Background(), staticLoader(items, &calls)))

	c.SetSearchQuery("ana")
	filtered := c.Filtered()
	require.Len(t, filtered, 2)
	require.Equal(t, "1", filtered[0].ID)
	require.Equal(t, "3", filtered[1].ID)
	require.Equal(t, 1, calls, "filtering must not refetch")

	// Clearing the query restores the full collection in the same order.
	c.SetSearchQuery("")
	require.Equal(t, items, c.Filtered())
}

func TestReconcileUpsertsByKey(t *testing.T) {
	t.Parallel()

	c := newTestCollection(5 * time.Minute)
	calls := 0
	require.NoError(t, c.Fetch(context.Background(), staticLoader([]member{{ID: "1", Name: "Ana"}}, &calls)))

	c.Reconcile(member{ID: "1", Name: "Ana Maria"})
	require.Equal(t, "Ana Maria", c.Items()[0].Name)

	c.Reconcile(member{ID: "9", Name: "Noa"})
	require.Len(t, c.Items(), 2)
}

func TestOptimisticRollbackRestoresSnapshot(t *testing.T) {
	t.Parallel()

	c := newTestCollection(5 * time.Minute)
	calls := 0
	before := []member{
		{ID: "1", Name: "Ana", Active: true},
		{ID: "2", Name: "Bruno", Active: false},
	}
	require.NoError(t, c.Fetch(context.Background(), staticLoader(before, &calls)))

	flip := func(m member) member {
		m.Active = !m.Active
		return m
	}

	t.Run("tentative state is visible before the commit resolves", func(t *testing.T) {
		committed := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error, 1)

		go func() {
			done <- c.Optimistic(context.Background(), "1", flip, func(context.Context) (member, error) {
				close(committed)
				<-release
				return member{ID: "1", Name: "Ana", Active: false}, nil
			})
		}()

		<-committed
		require.False(t, c.Items()[0].Active, "flip must apply before the backend confirms")
		close(release)
		require.NoError(t, <-done)
		require.False(t, c.Items()[0].Active)
	})

	t.Run("failure restores the pre-toggle snapshot verbatim", func(t *testing.T) {
		snapshot := c.Items()

		err := c.Optimistic(context.Background(), "2", flip, func(context.Context) (member, error) {
			return member{}, errors.New("backend rejected")
		})
		require.Error(t, err)
		require.Equal(t, snapshot, c.Items())
		require.Equal(t, "backend rejected", c.Err())
	})

	t.Run("record absent from cache commits pessimistically", func(t *testing.T) {
		err := c.Optimistic(context.Background(), "404", flip, func(context.Context) (member, error) {
			return member{ID: "404", Name: "Late", Active: true}, nil
		})
		require.NoError(t, err)
		require.Len(t, c.Items(), 3)
	})
}

func TestRacingFetchesLastResponseWins(t *testing.T) {
	t.Parallel()

	c := newTestCollection(time.Minute)

	gateFirst := make(chan struct{})
	gateSecond := make(chan struct{})
	doneFirst := make(chan error, 1)
	doneSecond := make(chan error, 1)

	go func() {
		doneFirst <- c.Fetch(context.Background(), func(context.Context) ([]member, error) {
			<-gateFirst
			return []member{{ID: "1", Name: "Ana"}}, nil
		})
	}()
	go func() {
		doneSecond <- c.Fetch(context.Background(), func(context.Context) ([]member, error) {
			<-gateSecond
			return []member{{ID: "1", Name: "Ana"}, {ID: "2", Name: "Bruno"}}, nil
		})
	}()

	// Both fetches are in flight. Resolve them one at a time; whichever
	// response lands later owns the final state, regardless of start order.
	close(gateFirst)
	require.NoError(t, <-doneFirst)
	require.Len(t, c.Items(), 1)

	close(gateSecond)
	require.NoError(t, <-doneSecond)
	require.Len(t, c.Items(), 2)
	require.Equal(t, "Bruno", c.Items()[1].Name)
}
