package deeplink

import (
	"casal/src-server/calendar"
	"casal/src-server/gateway"
	"casal/src-server/model"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// OpenKind says what a consumed deep-link intent wants rendered.
type OpenKind int

const (
	OpenNone OpenKind = iota
	OpenShow          // one event, direct detail view
	OpenList          // several events on one day, multi-event list
)

// Open is the modal-open effect a consumed intent produces.
type Open struct {
	Kind   OpenKind
	Events []model.Event
}

// Resolver turns inbound navigation (an entity id, an explicit date)
// into a displayed year/month plus a pending modal-open intent. The
// intent is only consumed once the bundle for the resolved year has
// loaded and a grid exists, so a modal never opens against data that
// has not arrived yet. Inputs may arrive in any order; an id always
// wins over a date.
type Resolver struct {
	fetchEvent func(context.Context, int64) (model.Event, error)
	loadYear   func(ctx context.Context, year int, onLoaded func())

	mu          sync.Mutex
	year        int
	month       time.Month
	loadedYear  int
	pendingID   int64
	pendingDate string
}

func New(
	fetchEvent func(context.Context, int64) (model.Event, error),
	loadYear func(ctx context.Context, year int, onLoaded func()),
) *Resolver {
	now := time.Now()
	return &Resolver{
		fetchEvent: fetchEvent,
		loadYear:   loadYear,
		year:       now.Year(),
		month:      now.Month(),
	}
}

// Target is the year/month the calendar should display.
func (r *Resolver) Target() (int, time.Month) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.year, r.month
}

// NotifyBundleLoaded records that the bundle for a year has committed.
// Wire it to the store's filter observable.
func (r *Resolver) NotifyBundleLoaded(year int) {
	r.mu.Lock()
	r.loadedYear = year
	r.mu.Unlock()
}

// ResolveID handles an entity-id route parameter: fetch the entity,
// derive its year, reload that year when it differs from the loaded
// one, and hold a pending show intent. Any date intent is dropped; the
// id takes precedence. A dead id is a stale link and is ignored.
func (r *Resolver) ResolveID(ctx context.Context, id int64) error {
	ev, err := r.fetchEvent(ctx, id)
	switch {
	case errors.Is(err, gateway.ErrNotFound):
		slog.Debug("deep link points at a dead event, ignoring", "id", id)
		return nil
	case err != nil:
		return fmt.Errorf("(*Resolver).ResolveID: %w", err)
	}

	year := ev.Year()
	if year == 0 {
		return fmt.Errorf("(*Resolver).ResolveID: event %d has no usable start date", id)
	}

	r.mu.Lock()
	r.pendingDate = ""
	r.pendingID = id
	r.year = year
	r.month = ev.Start().Month()
	needsLoad := r.loadedYear != year
	r.mu.Unlock()

	if needsLoad {
		r.loadYear(ctx, year, func() {
			r.NotifyBundleLoaded(year)
		})
	}
	return nil
}

// ResolveMultiDate handles the multiDate query parameter. Malformed
// dates are ignored; an already-pending id keeps precedence.
func (r *Resolver) ResolveMultiDate(ctx context.Context, dateStr string) {
	parsed, err := time.Parse(model.DateLayout, dateStr)
	if err != nil {
		slog.Debug("deep link date is malformed, ignoring", "date", dateStr)
		return
	}

	r.mu.Lock()
	if r.pendingID != 0 {
		r.mu.Unlock()
		return
	}
	r.pendingDate = dateStr
	r.year = parsed.Year()
	r.month = parsed.Month()
	year := r.year
	needsLoad := r.loadedYear != year
	r.mu.Unlock()

	if needsLoad {
		r.loadYear(ctx, year, func() {
			r.NotifyBundleLoaded(year)
		})
	}
}

// Consume inspects a freshly built grid and settles any pending intent
// against it. It returns the modal-open effect, or an OpenNone when the
// intent is still waiting for data or turned out stale. A stale intent
// (no matching cell, no matching event) is dropped silently.
func (r *Resolver) Consume(cells []calendar.Cell) Open {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loadedYear != r.year {
		return Open{Kind: OpenNone}
	}

	if r.pendingID != 0 {
		id := r.pendingID
		r.pendingID = 0
		for _, cell := range cells {
			for _, ev := range cell.Events {
				if ev.ID == id {
					return Open{Kind: OpenShow, Events: []model.Event{ev}}
				}
			}
		}
		slog.Debug("deep link event not in loaded grid, dropping", "id", id)
		return Open{Kind: OpenNone}
	}

	if r.pendingDate != "" {
		date := r.pendingDate
		r.pendingDate = ""
		cell, ok := calendar.FindCell(cells, date)
		switch {
		case !ok || len(cell.Events) == 0:
			slog.Debug("deep link date has no events, dropping", "date", date)
			return Open{Kind: OpenNone}
		case len(cell.Events) == 1:
			return Open{Kind: OpenShow, Events: cell.Events}
		default:
			return Open{Kind: OpenList, Events: cell.Events}
		}
	}

	return Open{Kind: OpenNone}
}

// Advance moves the displayed month forward, rolling the year over.
func (r *Resolver) Advance() (int, time.Month) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.year, r.month = calendar.NextMonth(r.year, r.month)
	return r.year, r.month
}

// Retreat moves the displayed month back, rolling the year over.
func (r *Resolver) Retreat() (int, time.Month) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.year, r.month = calendar.PrevMonth(r.year, r.month)
	return r.year, r.month
}
