package gateway

import (
	"casal/src-server/model"
	"context"
	"errors"
	"fmt"
)

// Variant selects which year view a fetch returns: every occurrence, or
// one representative per periodic group.
type Variant string

const (
	VariantAll    Variant = "all"
	VariantLatest Variant = "latest"
)

// ErrNotFound is returned by id-based fetches when the backend has no
// matching event. Callers treat it as an empty result, not a failure.
var ErrNotFound = errors.New("gateway: event not found")

// NetworkError wraps transport-level and 5xx failures. The store keeps
// its prior state when it sees one.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError is a create/update the backend rejected. No reload is
// triggered; the caller keeps its form state.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("gateway: rejected: %s", e.Reason)
}

// Gateway is the remote event backend the store synchronizes against.
type Gateway interface {
	FetchByYear(ctx context.Context, year int, variant Variant) ([]model.Event, error)
	FetchByID(ctx context.Context, id int64) (model.Event, error)
	Create(ctx context.Context, ev model.Event) (model.Event, error)
	Update(ctx context.Context, id int64, ev model.Event) (model.Event, error)
	Delete(ctx context.Context, id int64) error
	DeleteGroupExcept(ctx context.Context, groupID string, keepID int64) error
}

// DedupLatest keeps one occurrence per periodic group: the one with the
// greatest start date. Events without a group id pass through. Input
// order (start date ascending) is preserved.
func DedupLatest(events []model.Event) []model.Event {
	keep := make(map[string]int64, len(events))
	for _, ev := range events {
		if ev.PeriodicGroupID == "" {
			continue
		}
		if _, ok := keep[ev.PeriodicGroupID]; !ok {
			keep[ev.PeriodicGroupID] = ev.ID
			continue
		}
		keep[ev.PeriodicGroupID] = ev.ID // later entries have the greater start date
	}

	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.PeriodicGroupID != "" && keep[ev.PeriodicGroupID] != ev.ID {
			continue
		}
		out = append(out, ev)
	}
	return out
}
