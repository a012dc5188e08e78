package client

import (
	"context"
	"strings"
	"sync"
)

// PageResult is one page of a paginated listing as reported by the server.
// CurrentPage is whatever the server clamped to; it is never adjusted here.
type PageResult[T any] struct {
	Items       []T
	CurrentPage int
	LastPage    int
	PerPage     int
	Total       int
}

// FetchFunc loads one page for a query.
type FetchFunc[T any] func(ctx context.Context, q ListQuery) (*PageResult[T], error)

// State is the renderable snapshot of a Fetcher. Data holds the last good
// page even while a fetch for a different query is in flight.
type State[T any] struct {
	Data    *PageResult[T]
	Loading bool
	Err     error
}

// Fetcher caches the most recent result per distinct query key and orders
// concurrent fetches by issuance: the result of an older issue never
// overwrites state produced by a newer one, regardless of arrival order.
// Errors are surfaced as values; there is no automatic retry.
type Fetcher[T any] struct {
	fetch FetchFunc[T]

	mu       sync.Mutex
	cache    map[string]*PageResult[T]
	data     *PageResult[T]
	err      error
	issued   uint64
	applied  uint64
	epoch    uint64
	inflight int
}

// NewFetcher constructs a Fetcher around a page loader.
func NewFetcher[T any](fetch FetchFunc[T]) *Fetcher[T] {
	return &Fetcher[T]{fetch: fetch, cache: make(map[string]*PageResult[T])}
}

// Fetch resolves the query, serving the cached page when one is fresh. The
// returned result always belongs to the caller; the shared snapshot only
// advances when this issue is still the newest one at completion.
func (f *Fetcher[T]) Fetch(ctx context.Context, q ListQuery) (*PageResult[T], error) {
	q = q.Normalize()
	key := q.Key()

	f.mu.Lock()
	if cached, ok := f.cache[key]; ok {
		// A cache hit is still an issue: it must supersede older in-flight
		// fetches, or a slow miss could overwrite this page on arrival.
		f.issued++
		f.applied = f.issued
		f.data = cached
		f.err = nil
		f.mu.Unlock()
		return cached, nil
	}
	f.issued++
	issue := f.issued
	epoch := f.epoch
	f.inflight++
	f.mu.Unlock()

	result, err := f.fetch(ctx, q)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--
	if err != nil {
		// Keep-previous-data: the last good page stays visible.
		if issue > f.applied && epoch == f.epoch {
			f.applied = issue
			f.err = err
		}
		return nil, err
	}
	if issue > f.applied && epoch == f.epoch {
		f.applied = issue
		f.cache[key] = result
		f.data = result
		f.err = nil
	}
	return result, nil
}

// Snapshot returns the current renderable state.
func (f *Fetcher[T]) Snapshot() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State[T]{Data: f.data, Loading: f.inflight > 0, Err: f.err}
}

// Loading reports whether any fetch is in flight.
func (f *Fetcher[T]) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inflight > 0
}

// Invalidate drops every cached page whose key starts with prefix and marks
// an invalidation epoch: in-flight results issued before this call are
// discarded when they arrive. An empty prefix clears the whole family.
func (f *Fetcher[T]) Invalidate(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.epoch++
	for key := range f.cache {
		if strings.HasPrefix(key, prefix) {
			delete(f.cache, key)
		}
	}
}
