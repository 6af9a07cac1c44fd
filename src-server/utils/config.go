package utils

import (
	"log/slog"
	"os"
	"time"
)

type Config struct {
	port string

	backendURL string
	sqlitePath string

	minSpinner               time.Duration
	metricCollectionInterval time.Duration

	location *time.Location

	discordAppToken  string
	discordChannelID string
}

func NewConfig() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),

		backendURL: func() string {
			backendURL := os.Getenv("BACKEND_URL")
			if backendURL == "" {
				slog.Warn("BACKEND_URL is not set, using the local sqlite backend")
			}
			slog.Debug("env", "BACKEND_URL", backendURL)
			return backendURL
		}(),
		sqlitePath: func() string {
			sqlitePath := os.Getenv("SQLITE_PATH")
			if sqlitePath == "" {
				sqlitePath = "./agenda.db"
			}
			slog.Debug("env", "SQLITE_PATH", sqlitePath)
			return sqlitePath
		}(),

		minSpinner: func() time.Duration {
			minSpinner := os.Getenv("MIN_SPINNER")
			if minSpinner == "" {
				minSpinner = "300ms"
			}
			duration, err := time.ParseDuration(minSpinner)
			if err != nil {
				slog.Error("invalid MIN_SPINNER", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "MIN_SPINNER", minSpinner, "duration", duration)
			return duration
		}(),
		metricCollectionInterval: func() time.Duration {
			interval := os.Getenv("METRIC_COLLECTION_INTERVAL")
			if interval == "" {
				interval = "15s"
			}
			duration, err := time.ParseDuration(interval)
			if err != nil {
				slog.Error("invalid METRIC_COLLECTION_INTERVAL", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "METRIC_COLLECTION_INTERVAL", interval, "duration", duration)
			return duration
		}(),

		location: func() *time.Location {
			timezoneStr := os.Getenv("TIMEZONE")
			var loc *time.Location
			var err error
			switch timezoneStr {
			case "":
				slog.Warn("TIMEZONE is not set, using local timezone", "timezone", time.Local)
				loc = time.Local
			case "UTC":
				loc = time.UTC
			default:
				loc, err = time.LoadLocation(timezoneStr)
				if err != nil {
					slog.Error("invalid timezone", "timezone", timezoneStr, "error", err)
					os.Exit(1)
				}
			}
			slog.Debug("env", "TIMEZONE", timezoneStr)
			return loc
		}(),

		discordAppToken: func() string {
			discordAppToken := os.Getenv("DISCORD_APP_TOKEN")
			if discordAppToken == "" {
				slog.Warn("DISCORD_APP_TOKEN is not set, agenda announcements disabled")
				return ""
			}
			slog.Debug("env", "DISCORD_APP_TOKEN", discordAppToken[0:3]+"...")
			return discordAppToken
		}(),
		discordChannelID: func() string {
			discordChannelID := os.Getenv("DISCORD_CHANNEL_ID")
			if discordChannelID == "" && os.Getenv("DISCORD_APP_TOKEN") != "" {
				slog.Error("DISCORD_CHANNEL_ID is not set but DISCORD_APP_TOKEN is")
				os.Exit(1)
			}
			slog.Debug("env", "DISCORD_CHANNEL_ID", discordChannelID)
			return discordChannelID
		}(),
	}
}

// Get PORT env, default to 8080
func (c *Config) GetPort() string {
	return c.port
}

// Get BACKEND_URL env; blank selects the local sqlite backend
func (c *Config) GetBackendURL() string {
	return c.backendURL
}

// Get SQLITE_PATH env, default to ./agenda.db
func (c *Config) GetSqlitePath() string {
	return c.sqlitePath
}

// Get MIN_SPINNER env, the minimum visible busy duration
func (c *Config) GetMinSpinner() time.Duration {
	return c.minSpinner
}

// Get METRIC_COLLECTION_INTERVAL env
func (c *Config) GetMetricCollectionInterval() time.Duration {
	return c.metricCollectionInterval
}

// Get TIMEZONE env
func (c *Config) GetLocation() *time.Location {
	return c.location
}

// Get DISCORD_APP_TOKEN env, blank when announcements are disabled
func (c *Config) GetDiscordAppToken() string {
	return c.discordAppToken
}

// Get DISCORD_CHANNEL_ID env
func (c *Config) GetDiscordChannelID() string {
	return c.discordChannelID
}
