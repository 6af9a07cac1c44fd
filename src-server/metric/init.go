package metric

import (
	"casal/src-server/model"
	"casal/src-server/utils"
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func gatewayRead(as *utils.AppState, clearTickerInterval *time.Duration) {
	gatewayRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "casal_gateway_read_microsec",
		Help: "The latency of an event gateway read in microseconds",
	})
	good := true
	if err := prometheus.Register(gatewayRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register casal_gateway_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("casal_gateway_read_microsec metric registered")
		gatewayRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(gatewayRead) {
				case true:
					slog.Debug("casal_gateway_read_microsec metric unregistered")
				case false:
					slog.Warn("casal_gateway_read_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.GatewayRead:
				gatewayRead.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				gatewayRead.Set(0)
			}
		}
	}()
}

func gatewayWrite(as *utils.AppState, clearTickerInterval *time.Duration) {
	gatewayWrite := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "casal_gateway_write_microsec",
		Help: "The latency of an event gateway write in microseconds",
	})
	good := true
	if err := prometheus.Register(gatewayWrite); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register casal_gateway_write_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("casal_gateway_write_microsec metric registered")
		gatewayWrite.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(gatewayWrite) {
				case true:
					slog.Debug("casal_gateway_write_microsec metric unregistered")
				case false:
					slog.Warn("casal_gateway_write_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.GatewayWrite:
				gatewayWrite.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				gatewayWrite.Set(0)
			}
		}
	}()
}

func discordAnnounce(as *utils.AppState, clearTickerInterval *time.Duration) {
	discordAnnounce := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "casal_discord_announce_microsec",
		Help: "The latency of a Discord announcement send in microseconds",
	})
	good := true
	if err := prometheus.Register(discordAnnounce); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register casal_discord_announce_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("casal_discord_announce_microsec metric registered")
		discordAnnounce.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(discordAnnounce) {
				case true:
					slog.Debug("casal_discord_announce_microsec metric unregistered")
				case false:
					slog.Warn("casal_discord_announce_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.DiscordAnnounce:
				discordAnnounce.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				discordAnnounce.Set(0)
			}
		}
	}()
}

func databaseEmptyRead(as *utils.AppState, tickerInterval *time.Duration) {
	databaseEmptyRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "casal_database_empty_read_microsec",
		Help: "The latency of an empty database read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseEmptyRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register casal_database_empty_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("casal_database_empty_read_microsec metric registered")
		databaseEmptyRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(*tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseEmptyRead) {
				case true:
					slog.Debug("casal_database_empty_read_microsec metric unregistered")
				case false:
					slog.Warn("casal_database_empty_read_microsec metric not registered")
				}
				return
			case <-ticker.C:
				started := time.Now()
				if _, err := as.BunDB.NewSelect().
					Model((*model.Event)(nil)).
					Where("id = ?", -1).
					Count(context.Background()); err != nil {
					slog.Error("can't probe database latency", "error", err)
					continue
				}
				databaseEmptyRead.Set(float64(time.Since(started).Microseconds()))
			}
		}
	}()
}

func Init(as *utils.AppState) {
	tickerInterval := as.Config.GetMetricCollectionInterval()
	clearTickerInterval := as.Config.GetMetricCollectionInterval() * 2

	gatewayRead(as, &clearTickerInterval)
	gatewayWrite(as, &clearTickerInterval)
	discordAnnounce(as, &clearTickerInterval)
	if as.BunDB != nil {
		databaseEmptyRead(as, &tickerInterval)
	}
}
