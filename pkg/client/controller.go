package client

import (
	"context"
	"sync"
	"time"
)

// Observer receives the query value synchronously after every committed
// change.
type Observer func(q ListQuery)

// ListControllerConfig carries construction-time settings. Nothing is read
// from ambient state.
type ListControllerConfig struct {
	InitialQuery ListQuery
	SearchDelay  time.Duration
}

// ListController owns the query value for one list view and wires page,
// filter, search, and row-action events into the fetcher and mutation
// executor.
type ListController[T any] struct {
	fetcher   *Fetcher[T]
	mutations *MutationExecutor
	debounce  *SearchDebouncer

	mu        sync.Mutex
	query     ListQuery
	observers []Observer
}

// NewListController composes a list view controller.
func NewListController[T any](fetcher *Fetcher[T], mutations *MutationExecutor, cfg ListControllerConfig) *ListController[T] {
	ctrl := &ListController[T]{
		fetcher:   fetcher,
		mutations: mutations,
		query:     cfg.InitialQuery.Normalize(),
	}
	ctrl.debounce = NewSearchDebouncer(cfg.SearchDelay, ctrl.commitSearch)
	return ctrl
}

// Subscribe registers an observer notified on every query change.
func (c *ListController[T]) Subscribe(fn Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Query returns the current query value.
func (c *ListController[T]) Query() ListQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Load fetches the page for the current query.
func (c *ListController[T]) Load(ctx context.Context) (*PageResult[T], error) {
	return c.fetcher.Fetch(ctx, c.Query())
}

// Snapshot exposes the fetcher's renderable state.
func (c *ListController[T]) Snapshot() State[T] {
	return c.fetcher.Snapshot()
}

// OnPageChange moves to another page. Selecting the current page, a page
// below 1, or any page while a load is in flight is a no-op.
func (c *ListController[T]) OnPageChange(page int) {
	if page < 1 || c.fetcher.Loading() {
		return
	}
	c.mu.Lock()
	if page == c.query.Page {
		c.mu.Unlock()
		return
	}
	c.query = c.query.WithPage(page)
	query, observers := c.query, c.observers
	c.mu.Unlock()
	notify(query, observers)
}

// OnFilterChange sets a named filter and returns to the first page. Unknown
// keys are ignored. A nil value clears the filter.
func (c *ListController[T]) OnFilterChange(key string, value *string) {
	c.mu.Lock()
	q := c.query
	switch key {
	case "category":
		q.Category = value
	case "approved":
		if value == nil {
			q.Approved = nil
		} else {
			v := *value == "true"
			q.Approved = &v
		}
	default:
		c.mu.Unlock()
		return
	}
	q.Page = 1
	c.query = q
	query, observers := c.query, c.observers
	c.mu.Unlock()
	notify(query, observers)
}

// OnSearchInput registers a keystroke. The search text only commits once the
// debounce timer expires.
func (c *ListController[T]) OnSearchInput(text string) {
	c.debounce.Type(text)
}

// OnRowAction executes a confirmed row mutation.
func (c *ListController[T]) OnRowAction(ctx context.Context, id string, action Action) (*MutationResult, error) {
	return c.mutations.Execute(ctx, &MutationRequest{TargetID: id, Action: action})
}

func (c *ListController[T]) commitSearch(text string) {
	c.mu.Lock()
	c.query = c.query.WithSearch(text)
	query, observers := c.query, c.observers
	c.mu.Unlock()
	notify(query, observers)
}

func notify(q ListQuery, observers []Observer) {
	for _, fn := range observers {
		fn(q)
	}
}
