package gateway

import (
	"casal/src-server/model"
	"casal/src-server/utils"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// DB serves the gateway contract straight from the local sqlite
// database. It is the backend for standalone deployments and for tests;
// the dashboard deployments talk to the remote backend through HTTP
// instead.
type DB struct {
	bunDB       *bun.DB
	metricChans *utils.MetricChans
}

var _ Gateway = (*DB)(nil)

func NewDB(bunDB *bun.DB, metricChans *utils.MetricChans) *DB {
	return &DB{
		bunDB:       bunDB,
		metricChans: metricChans,
	}
}

func (g *DB) FetchByYear(ctx context.Context, year int, variant Variant) ([]model.Event, error) {
	started := time.Now()

	eventModels := make([]model.Event, 0)
	if err := g.bunDB.
		NewSelect().
		Model(&eventModels).
		Where("start_date >= ?", fmt.Sprintf("%04d-01-01", year)).
		Where("start_date <= ?", fmt.Sprintf("%04d-12-31", year)).
		Order("start_date ASC").
		Order("id ASC").
		Scan(ctx); err != nil {
		return nil, &NetworkError{Op: "fetch by year", Err: err}
	}
	g.metricChans.Read(time.Since(started))

	switch variant {
	case VariantLatest:
		return DedupLatest(eventModels), nil
	default:
		return eventModels, nil
	}
}

func (g *DB) FetchByID(ctx context.Context, id int64) (model.Event, error) {
	started := time.Now()

	eventModel := new(model.Event)
	if err := g.bunDB.
		NewSelect().
		Model(eventModel).
		Where("id = ?", id).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrNotFound
		}
		return model.Event{}, &NetworkError{Op: "fetch by id", Err: err}
	}
	g.metricChans.Read(time.Since(started))

	return *eventModel, nil
}

func (g *DB) Create(ctx context.Context, ev model.Event) (model.Event, error) {
	if err := ev.Validate(); err != nil {
		return model.Event{}, &ValidationError{Reason: err.Error()}
	}
	started := time.Now()

	ev.ID = 0
	if _, err := g.bunDB.
		NewInsert().
		Model(&ev).
		Exec(ctx); err != nil {
		return model.Event{}, &NetworkError{Op: "create", Err: err}
	}
	g.metricChans.Write(time.Since(started))

	return ev, nil
}

func (g *DB) Update(ctx context.Context, id int64, ev model.Event) (model.Event, error) {
	if err := ev.Validate(); err != nil {
		return model.Event{}, &ValidationError{Reason: err.Error()}
	}
	started := time.Now()

	exists, err := g.bunDB.
		NewSelect().
		Model((*model.Event)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	switch {
	case err != nil:
		return model.Event{}, &NetworkError{Op: "update", Err: err}
	case !exists:
		return model.Event{}, ErrNotFound
	}

	ev.ID = id
	if _, err := g.bunDB.
		NewUpdate().
		Model(&ev).
		WherePK().
		Exec(ctx); err != nil {
		return model.Event{}, &NetworkError{Op: "update", Err: err}
	}
	g.metricChans.Write(time.Since(started))

	return ev, nil
}

func (g *DB) Delete(ctx context.Context, id int64) error {
	started := time.Now()

	if _, err := g.bunDB.
		NewDelete().
		Model((*model.Event)(nil)).
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return &NetworkError{Op: "delete", Err: err}
	}
	g.metricChans.Write(time.Since(started))

	return nil
}

func (g *DB) DeleteGroupExcept(ctx context.Context, groupID string, keepID int64) error {
	if groupID == "" {
		return fmt.Errorf("(*DB).DeleteGroupExcept: group id is blank")
	}
	started := time.Now()

	if _, err := g.bunDB.
		NewDelete().
		Model((*model.Event)(nil)).
		Where("periodic_group_id = ?", groupID).
		Where("id != ?", keepID).
		Exec(ctx); err != nil {
		return &NetworkError{Op: "delete group", Err: err}
	}
	g.metricChans.Write(time.Since(started))

	return nil
}
