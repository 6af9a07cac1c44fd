package store

import (
	"casal/src-server/gateway"
	"casal/src-server/model"
	"casal/src-server/utils"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Reporter receives every gateway failure exactly once and owns the
// user-facing messaging; the store's only obligation is to call it and
// leave its prior state untouched.
type Reporter interface {
	Report(what string, err error)
}

// SlogReporter is the default Reporter, logging through slog.
type SlogReporter struct{}

func (SlogReporter) Report(what string, err error) {
	slog.Error(what, "error", err)
}

// Store owns the canonical in-memory event collections and keeps them
// consistent with the remote backend. All writes go through the
// operations below; consumers read snapshots or subscribe to the
// observable slots.
type Store struct {
	gw       gateway.Gateway
	gate     *LoadingGate
	reporter Reporter

	mu      sync.Mutex
	all     []model.Event // full-year view, nil until first load
	latest  []model.Event // deduplicated view, nil until first load
	visible []model.Event
	filter  ViewFilter

	visibleVal  *Value[[]model.Event]
	selectedVal *Value[*model.Event]
	filterVal   *Value[ViewFilter]
}

func New(gw gateway.Gateway, gate *LoadingGate, reporter Reporter) *Store {
	if reporter == nil {
		reporter = SlogReporter{}
	}
	s := &Store{
		gw:          gw,
		gate:        gate,
		reporter:    reporter,
		filter:      FilterNone{},
		visibleVal:  NewValue[[]model.Event](),
		selectedVal: NewValue[*model.Event](),
		filterVal:   NewValue[ViewFilter](),
	}
	s.filterVal.Set(FilterNone{})
	return s
}

func (s *Store) Gate() *LoadingGate {
	return s.gate
}

// VisibleValue is the observable list the calendar renders from.
func (s *Store) VisibleValue() *Value[[]model.Event] {
	return s.visibleVal
}

func (s *Store) SelectedValue() *Value[*model.Event] {
	return s.selectedVal
}

func (s *Store) FilterValue() *Value[ViewFilter] {
	return s.filterVal
}

func (s *Store) Visible() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.visible)
}

func (s *Store) All() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.all)
}

func (s *Store) Latest() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.latest)
}

func (s *Store) Selected() *model.Event {
	selected, _ := s.selectedVal.Get()
	return selected
}

func (s *Store) CurrentFilter() ViewFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func snapshot(events []model.Event) []model.Event {
	if events == nil {
		return nil
	}
	out := make([]model.Event, len(events))
	copy(out, events)
	return out
}

func (s *Store) setVisible(events []model.Event) {
	s.mu.Lock()
	s.visible = events
	s.mu.Unlock()
	s.visibleVal.Set(snapshot(events))
}

// LoadYearBundle fetches the all and latest views for a year in one
// logical operation. The two fetches run concurrently; if either fails
// the whole bundle fails and the prior state stays on screen.
func (s *Store) LoadYearBundle(ctx context.Context, year int) error {
	_, err := Gated(s.gate, ctx, func(ctx context.Context) (struct{}, error) {
		var (
			wg        sync.WaitGroup
			allEvents, latestEvents []model.Event
			allErr, latestErr       error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			allEvents, allErr = s.gw.FetchByYear(ctx, year, gateway.VariantAll)
		}()
		go func() {
			defer wg.Done()
			latestEvents, latestErr = s.gw.FetchByYear(ctx, year, gateway.VariantLatest)
		}()
		wg.Wait()

		if err := errors.Join(allErr, latestErr); err != nil {
			s.reporter.Report("can't load year bundle", err)
			return struct{}{}, err
		}
		if ctx.Err() != nil {
			return struct{}{}, ctx.Err()
		}

		s.mu.Lock()
		s.all = allEvents
		s.latest = latestEvents
		s.filter = FilterBundle{Year: year}
		s.mu.Unlock()
		s.filterVal.Set(FilterBundle{Year: year})
		s.setVisible(latestEvents)
		return struct{}{}, nil
	})
	return err
}

// LoadYearBundleAsync is the fire-and-forget shape of LoadYearBundle:
// the load runs on its own goroutine and onLoaded fires only once the
// bundle has actually committed. Failures are already reported inside
// LoadYearBundle.
func (s *Store) LoadYearBundleAsync(ctx context.Context, year int, onLoaded func()) {
	s.gate.Run(ctx, func(ctx context.Context) error {
		return s.LoadYearBundle(ctx, year)
	}, onLoaded)
}

// LoadEventsByYear fetches a single variant and updates only the slot
// it targets, leaving the other slot for incremental loads.
func (s *Store) LoadEventsByYear(ctx context.Context, year int, variant gateway.Variant) error {
	_, err := Gated(s.gate, ctx, func(ctx context.Context) (struct{}, error) {
		events, err := s.gw.FetchByYear(ctx, year, variant)
		if err != nil {
			s.reporter.Report("can't load events by year", err)
			return struct{}{}, err
		}
		if ctx.Err() != nil {
			return struct{}{}, ctx.Err()
		}

		s.mu.Lock()
		switch variant {
		case gateway.VariantAll:
			s.all = events
		case gateway.VariantLatest:
			s.latest = events
		}
		s.filter = FilterByYear{Year: year, Variant: variant}
		s.mu.Unlock()
		s.filterVal.Set(FilterByYear{Year: year, Variant: variant})
		s.setVisible(events)
		return struct{}{}, nil
	})
	return err
}

// LoadEventByID fetches one event into the selected slot. A missing id
// clears the slot without being treated as fatal.
func (s *Store) LoadEventByID(ctx context.Context, id int64) error {
	_, err := Gated(s.gate, ctx, func(ctx context.Context) (struct{}, error) {
		ev, err := s.gw.FetchByID(ctx, id)
		switch {
		case errors.Is(err, gateway.ErrNotFound):
			slog.Debug("event not found", "id", id)
			if ctx.Err() == nil {
				s.selectedVal.Set(nil)
			}
			return struct{}{}, nil
		case err != nil:
			s.reporter.Report("can't load event", err)
			return struct{}{}, err
		}
		if ctx.Err() != nil {
			return struct{}{}, ctx.Err()
		}
		s.selectedVal.Set(&ev)
		return struct{}{}, nil
	})
	return err
}

func (s *Store) ClearSelected() {
	s.selectedVal.Set(nil)
}

// ApplyFilterWord runs the client-side title search. An empty keyword
// (after normalization) always restores the unfiltered base list of the
// current filter, no matter how many searches came before.
func (s *Store) ApplyFilterWord(keyword string) {
	normalized := utils.NormalizeSearch(keyword)

	s.mu.Lock()
	base := s.searchBaseLocked()
	s.mu.Unlock()

	if normalized == "" {
		s.setVisible(base)
		return
	}

	matched := make([]model.Event, 0, len(base))
	for _, ev := range base {
		if strings.Contains(utils.NormalizeSearch(ev.Title), normalized) {
			matched = append(matched, ev)
		}
	}
	s.setVisible(matched)
}

// searchBaseLocked picks the list a search filters over: the full-year
// list only for an explicit all-variant year view, the deduplicated
// list otherwise, falling back to whatever is visible when the latest
// slot was never loaded.
func (s *Store) searchBaseLocked() []model.Event {
	switch f := s.filter.(type) {
	case FilterByYear:
		if f.Variant == gateway.VariantAll {
			return snapshot(s.all)
		}
	case FilterBundle, FilterNone:
	}
	if s.latest != nil {
		return snapshot(s.latest)
	}
	return snapshot(s.visible)
}

// SaveEventSmart creates or updates an event, collapses its periodic
// group when the save turned recurrence off, and re-derives the visible
// list from the filter current at reload time.
func (s *Store) SaveEventSmart(ctx context.Context, ev model.Event, isEdit bool) (model.Event, error) {
	ev.Title = utils.CleanupString(ev.Title)

	return Gated(s.gate, ctx, func(ctx context.Context) (model.Event, error) {
		var saved model.Event
		var err error
		switch isEdit {
		case true:
			saved, err = s.gw.Update(ctx, ev.ID, ev)
		case false:
			saved, err = s.gw.Create(ctx, ev)
		}
		if err != nil {
			s.reporter.Report("can't save event", err)
			return model.Event{}, err
		}

		// sibling deletion needs the resulting id, so it can only run
		// once the save has settled, and it must settle before the
		// reload so the reload sees the post-deletion state
		if shouldCollapseGroup(ev.IsPeriodic, ev.PeriodicGroupID, saved.ID) {
			if err := s.gw.DeleteGroupExcept(ctx, ev.PeriodicGroupID, saved.ID); err != nil {
				s.reporter.Report("can't collapse periodic group", err)
				return saved, err
			}
		}

		if err := s.reloadCurrentFilter(ctx); err != nil {
			return saved, err
		}
		return saved, nil
	})
}

// CreatePeriodicGroup expands a base event through a recurrence rule
// into a fresh periodic group and stores every occurrence.
func (s *Store) CreatePeriodicGroup(ctx context.Context, base model.Event, rruleStr string) ([]model.Event, error) {
	base.Title = utils.CleanupString(base.Title)

	occurrences, err := ExpandPeriodic(base, rruleStr)
	if err != nil {
		s.reporter.Report("can't expand periodic group", err)
		return nil, err
	}

	return Gated(s.gate, ctx, func(ctx context.Context) ([]model.Event, error) {
		saved := make([]model.Event, 0, len(occurrences))
		for _, occurrence := range occurrences {
			created, err := s.gw.Create(ctx, occurrence)
			if err != nil {
				s.reporter.Report("can't create periodic occurrence", err)
				return nil, err
			}
			saved = append(saved, created)
		}
		if err := s.reloadCurrentFilter(ctx); err != nil {
			return saved, err
		}
		return saved, nil
	})
}

func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	_, err := Gated(s.gate, ctx, func(ctx context.Context) (struct{}, error) {
		if err := s.gw.Delete(ctx, id); err != nil {
			s.reporter.Report("can't delete event", err)
			return struct{}{}, err
		}
		return struct{}{}, s.reloadCurrentFilter(ctx)
	})
	return err
}

// DeleteGroupExcept removes every sibling of a periodic group but the
// kept event. Used standalone and by SaveEventSmart.
func (s *Store) DeleteGroupExcept(ctx context.Context, groupID string, keepID int64) error {
	if err := s.gw.DeleteGroupExcept(ctx, groupID, keepID); err != nil {
		s.reporter.Report("can't delete periodic group", err)
		return err
	}
	return nil
}

// ReloadCurrentFilter re-runs the load for whatever filter is current
// at the moment of the call. A filter change racing an in-flight save
// therefore resolves last-filter-wins.
func (s *Store) ReloadCurrentFilter(ctx context.Context) error {
	return s.reloadCurrentFilter(ctx)
}

func (s *Store) reloadCurrentFilter(ctx context.Context) error {
	s.mu.Lock()
	filter := s.filter
	s.mu.Unlock()

	switch f := filter.(type) {
	case FilterBundle:
		return s.LoadYearBundle(ctx, f.Year)
	case FilterByYear:
		return s.LoadEventsByYear(ctx, f.Year, f.Variant)
	case FilterNone:
		return nil
	default:
		return fmt.Errorf("(*Store).reloadCurrentFilter: unknown filter %T", filter)
	}
}

// Reset clears every slot, used when navigating away from the agenda.
func (s *Store) Reset() {
	s.mu.Lock()
	s.all = nil
	s.latest = nil
	s.visible = nil
	s.filter = FilterNone{}
	s.mu.Unlock()
	s.filterVal.Set(FilterNone{})
	s.visibleVal.Set(nil)
	s.selectedVal.Set(nil)
}
