package client

import (
	"context"
	"sync/atomic"

	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
)

// Action identifies the state change a row action requests.
type Action string

const (
	ActionToggleApproval Action = "TOGGLE_APPROVAL"
	ActionApprove        Action = "APPROVE"
	ActionReject         Action = "REJECT"
	ActionDelete         Action = "DELETE"
)

// MutationRequest is created on user intent, confirmed externally, and
// executed at most once. It is never retried automatically.
type MutationRequest struct {
	TargetID string
	Action   Action
	Note     string

	executed atomic.Bool
}

// MutationResult reports the server-confirmed outcome.
type MutationResult struct {
	Message  string `json:"message"`
	NewState bool   `json:"new_state"`
}

// MutationFunc performs the state-changing call.
type MutationFunc func(ctx context.Context, req *MutationRequest) (*MutationResult, error)

type invalidator interface {
	Invalidate(prefix string)
}

// MutationExecutor runs confirmed mutations. On success it invalidates the
// related query family so the list re-fetches; on failure no local state
// changes at all.
type MutationExecutor struct {
	exec   MutationFunc
	cache  invalidator
	family string
}

// NewMutationExecutor constructs an executor tied to one query family.
func NewMutationExecutor(exec MutationFunc, cache invalidator, family string) *MutationExecutor {
	return &MutationExecutor{exec: exec, cache: cache, family: family}
}

// Execute runs the request once. A second call with the same request is
// rejected without reaching the server.
func (e *MutationExecutor) Execute(ctx context.Context, req *MutationRequest) (*MutationResult, error) {
	if req == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nil mutation request")
	}
	if !req.executed.CompareAndSwap(false, true) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "mutation already executed")
	}
	result, err := e.exec(ctx, req)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Invalidate(e.family)
	}
	return result, nil
}
