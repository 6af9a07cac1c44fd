package gateway_test

import (
	"casal/src-server/gateway"
	"casal/src-server/model"
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *gateway.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every new connection would get its own empty in-memory database
	sqldb.SetMaxOpenConns(1)
	t.Cleanup(func() { sqldb.Close() })

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	if err := model.CreateSchema(bunDB); err != nil {
		t.Fatal(err)
	}

	return gateway.NewDB(bunDB, nil)
}

func mustCreate(t *testing.T, gw *gateway.DB, ev model.Event) model.Event {
	t.Helper()
	created, err := gw.Create(context.Background(), ev)
	if err != nil {
		t.Fatal(err)
	}
	return created
}

func singleDay(title, day string) model.Event {
	return model.Event{Title: title, StartDate: day, EndDate: day}
}

func groupedDay(title, day, groupID string) model.Event {
	ev := singleDay(title, day)
	ev.PeriodicGroupID = groupID
	ev.IsPeriodic = true
	return ev
}

func TestDBCreateAndFetch(t *testing.T) {
	gw := newTestDB(t)

	created := mustCreate(t, gw, singleDay("Asamblea", "2024-02-01"))
	if created.ID == 0 {
		t.Fatal("create did not assign an id")
	}
	mustCreate(t, gw, singleDay("Otro año", "2023-02-01"))

	fetched, err := gw.FetchByID(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Title != "Asamblea" || fetched.StartDate != "2024-02-01" {
		t.Error("fetched event does not match", fetched)
	}

	// year filtering works on the date strings
	events, err := gw.FetchByYear(context.Background(), 2024, gateway.VariantAll)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].ID != created.ID {
		t.Error("year filter leaked another year", events)
	}

	// case: missing id
	if _, err := gw.FetchByID(context.Background(), 999); !errors.Is(err, gateway.ErrNotFound) {
		t.Error("expected ErrNotFound", err)
	}

	// case: invalid event is rejected before touching the database
	var validationErr *gateway.ValidationError
	if _, err := gw.Create(context.Background(), model.Event{Title: "Sin fechas"}); !errors.As(err, &validationErr) {
		t.Error("expected a validation error", err)
	}
}

func TestDBFetchByYearVariants(t *testing.T) {
	gw := newTestDB(t)

	mustCreate(t, gw, groupedDay("Taller", "2024-03-05", "g1"))
	mustCreate(t, gw, groupedDay("Taller", "2024-04-05", "g1"))
	latest := mustCreate(t, gw, groupedDay("Taller", "2024-05-05", "g1"))
	standalone := mustCreate(t, gw, singleDay("Asamblea", "2024-02-01"))

	all, err := gw.FetchByYear(context.Background(), 2024, gateway.VariantAll)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatal("all variant should return every occurrence", len(all))
	}
	// ordered by start date ascending
	for i := 1; i < len(all); i++ {
		if all[i-1].StartDate > all[i].StartDate {
			t.Error("events out of order", all[i-1].StartDate, all[i].StartDate)
		}
	}

	deduped, err := gw.FetchByYear(context.Background(), 2024, gateway.VariantLatest)
	if err != nil {
		t.Fatal(err)
	}
	if len(deduped) != 2 {
		t.Fatal("latest variant should collapse the group", len(deduped))
	}
	if deduped[0].ID != standalone.ID || deduped[1].ID != latest.ID {
		t.Error("latest variant kept the wrong occurrence", deduped)
	}
}

func TestDBUpdate(t *testing.T) {
	gw := newTestDB(t)
	created := mustCreate(t, gw, singleDay("Asamblea", "2024-02-01"))

	created.Title = "Asamblea extraordinaria"
	updated, err := gw.Update(context.Background(), created.ID, created)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Asamblea extraordinaria" {
		t.Error("update did not persist", updated)
	}

	fetched, err := gw.FetchByID(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Title != "Asamblea extraordinaria" {
		t.Error("update not visible on refetch", fetched)
	}

	// case: updating a missing row
	if _, err := gw.Update(context.Background(), 999, created); !errors.Is(err, gateway.ErrNotFound) {
		t.Error("expected ErrNotFound", err)
	}
}

func TestDBDelete(t *testing.T) {
	gw := newTestDB(t)
	created := mustCreate(t, gw, singleDay("Asamblea", "2024-02-01"))

	if err := gw.Delete(context.Background(), created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.FetchByID(context.Background(), created.ID); !errors.Is(err, gateway.ErrNotFound) {
		t.Error("deleted event still fetchable", err)
	}
}

func TestDBDeleteGroupExcept(t *testing.T) {
	gw := newTestDB(t)

	first := mustCreate(t, gw, groupedDay("Taller", "2024-03-05", "g1"))
	kept := mustCreate(t, gw, groupedDay("Taller", "2024-04-05", "g1"))
	mustCreate(t, gw, groupedDay("Taller", "2024-05-05", "g1"))
	other := mustCreate(t, gw, groupedDay("Coro", "2024-03-05", "g2"))

	if err := gw.DeleteGroupExcept(context.Background(), "g1", kept.ID); err != nil {
		t.Fatal(err)
	}

	events, err := gw.FetchByYear(context.Background(), 2024, gateway.VariantAll)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatal("unexpected survivors", len(events))
	}
	for _, ev := range events {
		if ev.ID != kept.ID && ev.ID != other.ID {
			t.Error("wrong event survived", ev)
		}
		if ev.ID == first.ID {
			t.Error("sibling survived the collapse", ev)
		}
	}

	// a blank group id must never match every group-less event
	if err := gw.DeleteGroupExcept(context.Background(), "", kept.ID); err == nil {
		t.Error("blank group id accepted")
	}
}
