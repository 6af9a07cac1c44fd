package main

import (
	"casal/src-server/deeplink"
	"casal/src-server/gateway"
	"casal/src-server/metric"
	"casal/src-server/model"
	"casal/src-server/navstack"
	"casal/src-server/route"
	"casal/src-server/scheduler"
	"casal/src-server/store"
	"casal/src-server/utils"
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Info(err.Error())
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC1123Z,
		}),
	))
}

func main() {
	as := utils.NewAppState()

	// the gateway is either the remote dashboard backend or, without a
	// BACKEND_URL, the local sqlite database
	var gw gateway.Gateway
	if as.BunDB != nil {
		if err := model.CreateSchema(as.BunDB); err != nil {
			slog.Error("can't create database schema", "error", err)
			os.Exit(1)
		}
		gw = gateway.NewDB(as.BunDB, as.MetricChans)
	} else {
		gw = gateway.NewHTTP(as.Config.GetBackendURL(), nil)
	}

	gate := store.NewLoadingGate(as.Config.GetMinSpinner())
	st := store.New(gw, gate, nil)
	ns := navstack.New()

	rs := deeplink.New(
		gw.FetchByID,
		func(ctx context.Context, year int, onLoaded func()) {
			st.LoadYearBundleAsync(ctx, year, onLoaded)
		},
	)
	// any bundle load, not just resolver-triggered ones, settles
	// pending deep-link intents
	st.FilterValue().Subscribe(func(f store.ViewFilter) {
		if bundle, ok := f.(store.FilterBundle); ok {
			rs.NotifyBundleLoaded(bundle.Year)
		}
	})

	go metric.Init(as)
	go scheduler.Announce(as, gw)

	// http server
	go func() {
		muxer := http.NewServeMux()
		muxer.Handle("GET /metrics", promhttp.Handler())
		route.Agenda(muxer, as, st, rs, ns)
		if err := http.ListenAndServe(":"+as.Config.GetPort(), muxer); err != nil {
			slog.Error("cannot start HTTP server", "error", err)
			as.AppCloseSignalChan <- syscall.SIGTERM
		}
	}()

	slog.Info("app is now running, press Ctrl+C to exit")

	signal.Notify(as.AppCloseSignalChan, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-as.AppCloseSignalChan
	gate.Close()
	as.GracefulShutdown()

	slog.Info("Gracefully shutting down...")
}
