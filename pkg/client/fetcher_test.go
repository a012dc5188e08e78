package client

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
)

func TestFetcherCachesPerQueryKey(t *testing.T) {
	calls := 0
	fetcher := NewFetcher(func(_ context.Context, q ListQuery) (*PageResult[string], error) {
		calls++
		return &PageResult[string]{CurrentPage: q.Page}, nil
	})

	q := ListQuery{Page: 1, PerPage: 10}
	_, err := fetcher.Fetch(context.Background(), q)
	require.NoError(t, err)
	_, err = fetcher.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = fetcher.Fetch(context.Background(), q.WithPage(2))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFetcherKeepPreviousDataWhileLoading(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	fetcher := NewFetcher(func(_ context.Context, q ListQuery) (*PageResult[string], error) {
		if q.Page == 2 {
			close(started)
			<-release
		}
		return &PageResult[string]{CurrentPage: q.Page}, nil
	})

	first, err := fetcher.Fetch(context.Background(), ListQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = fetcher.Fetch(context.Background(), ListQuery{Page: 2, PerPage: 10})
	}()

	// The second fetch is in flight; the first page stays visible.
	<-started
	snap := fetcher.Snapshot()
	assert.True(t, snap.Loading)
	assert.Equal(t, first, snap.Data)

	close(release)
	<-done
	snap = fetcher.Snapshot()
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Data)
	assert.Equal(t, 2, snap.Data.CurrentPage)
}

func TestFetcherOlderIssueNeverOverwritesNewer(t *testing.T) {
	release := map[int]chan struct{}{
		1: make(chan struct{}),
		2: make(chan struct{}),
	}
	started := make(chan int, 2)
	fetcher := NewFetcher(func(_ context.Context, q ListQuery) (*PageResult[string], error) {
		started <- q.Page
		<-release[q.Page]
		return &PageResult[string]{CurrentPage: q.Page, LastPage: 2}, nil
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = fetcher.Fetch(context.Background(), ListQuery{Page: 2, PerPage: 10})
	}()
	<-started
	go func() {
		defer wg.Done()
		_, _ = fetcher.Fetch(context.Background(), ListQuery{Page: 1, PerPage: 10})
	}()
	<-started

	// The later-issued fetch (page 1) resolves first; the earlier one (page 2)
	// resolves after and must be discarded.
	close(release[1])
	close(release[2])
	wg.Wait()

	snap := fetcher.Snapshot()
	require.NotNil(t, snap.Data)
	assert.Equal(t, 1, snap.Data.CurrentPage)
}

func TestFetcherCacheHitSupersedesOlderInFlightFetch(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	fetcher := NewFetcher(func(_ context.Context, q ListQuery) (*PageResult[string], error) {
		if q.Page == 2 {
			close(started)
			<-release
		}
		return &PageResult[string]{CurrentPage: q.Page}, nil
	})

	// Warm the page-1 cache.
	_, err := fetcher.Fetch(context.Background(), ListQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = fetcher.Fetch(context.Background(), ListQuery{Page: 2, PerPage: 10})
	}()
	<-started

	// Navigate back to page 1 while page 2 is still loading: served from
	// cache, and newer by issuance than the in-flight miss.
	back, err := fetcher.Fetch(context.Background(), ListQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, back.CurrentPage)

	close(release)
	<-done

	// The stale page-2 result arrives last but must not flip the snapshot.
	snap := fetcher.Snapshot()
	require.NotNil(t, snap.Data)
	assert.Equal(t, 1, snap.Data.CurrentPage)
}

func TestFetcherErrorKeepsLastGoodPage(t *testing.T) {
	fetcher := NewFetcher(func(_ context.Context, q ListQuery) (*PageResult[string], error) {
		if q.Page == 2 {
			return nil, appErrors.ErrNetwork
		}
		return &PageResult[string]{CurrentPage: q.Page}, nil
	})

	first, err := fetcher.Fetch(context.Background(), ListQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), ListQuery{Page: 2, PerPage: 10})
	require.Error(t, err)

	snap := fetcher.Snapshot()
	assert.Equal(t, first, snap.Data)
	assert.Error(t, snap.Err)
}

func TestFetcherInvalidateForcesRefetch(t *testing.T) {
	calls := 0
	fetcher := NewFetcher(func(_ context.Context, q ListQuery) (*PageResult[string], error) {
		calls++
		return &PageResult[string]{CurrentPage: q.Page, Total: calls}, nil
	})

	q := ListQuery{Page: 1, PerPage: 10}
	_, err := fetcher.Fetch(context.Background(), q)
	require.NoError(t, err)
	fetcher.Invalidate("")
	result, err := fetcher.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, result.Total)
}

func TestFetcherInvalidateDropsInFlightResults(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	fetcher := NewFetcher(func(_ context.Context, q ListQuery) (*PageResult[string], error) {
		if q.Page == 2 {
			close(started)
			<-release
		}
		return &PageResult[string]{CurrentPage: q.Page}, nil
	})

	first, err := fetcher.Fetch(context.Background(), ListQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = fetcher.Fetch(context.Background(), ListQuery{Page: 2, PerPage: 10})
	}()
	<-started
	fetcher.Invalidate("")
	close(release)
	<-done

	// The page-2 result was issued before the invalidation epoch and must not
	// become the visible state.
	snap := fetcher.Snapshot()
	assert.Equal(t, first, snap.Data)
}
