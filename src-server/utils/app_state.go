package utils

import (
	"database/sql"
	"log/slog"
	"os"
	"sync"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type AppState struct {
	Config      *Config
	RawDB       *sql.DB
	BunDB       *bun.DB
	When        *when.Parser
	MetricChans *MetricChans

	AppCloseSignalChan chan os.Signal

	mu                    sync.Mutex
	gracefulShutdownChans []chan struct{}
}

func NewAppState() *AppState {
	as := &AppState{
		AppCloseSignalChan: make(chan os.Signal, 1),
		MetricChans:        NewMetricChans(),
	}

	// date parser for the catalog's natural-language search
	as.When = when.New(nil)
	as.When.Add(en.All...)
	as.When.Add(common.All...)

	// env
	as.Config = NewConfig()

	// database; only the local backend mode opens one, the dashboard
	// deployments reach the remote backend over HTTP instead
	if as.Config.GetBackendURL() == "" {
		var err error
		as.RawDB, err = sql.Open(sqliteshim.ShimName, as.Config.GetSqlitePath()+"?mode=rwc")
		if err != nil {
			slog.Error("cannot open sqlite database", "error", err)
			os.Exit(1)
		}
		as.RawDB.SetMaxIdleConns(8)

		as.BunDB = bun.NewDB(as.RawDB, sqlitedialect.New())
		as.BunDB.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}

	return as
}

// CreateGracefulShutdownChan hands out a channel that closes when the
// app is shutting down, so long-lived goroutines can clean up.
func (as *AppState) CreateGracefulShutdownChan() *chan struct{} {
	ch := make(chan struct{})
	as.mu.Lock()
	as.gracefulShutdownChans = append(as.gracefulShutdownChans, ch)
	as.mu.Unlock()
	return &ch
}

func (as *AppState) GracefulShutdown() {
	as.mu.Lock()
	chans := as.gracefulShutdownChans
	as.gracefulShutdownChans = nil
	as.mu.Unlock()

	for _, ch := range chans {
		close(ch)
	}

	if as.RawDB != nil {
		if err := as.RawDB.Close(); err != nil {
			slog.Warn("can't close database", "error", err)
		}
	}
}
