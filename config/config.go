// Package config loads server configuration from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-earnings/earnings"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            int           `env:"PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
		WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
		CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	} `envPrefix:"SERVER_"`
	Database struct {
		// Driver is "sqlite3" or "postgres".
		Driver string `env:"DRIVER" envDefault:"sqlite3"`
		// DSN is a file path for sqlite3 and a connection URL for postgres.
		DSN string `env:"DSN" envDefault:"./data/shifts.db"`
	} `envPrefix:"DATABASE_"`
	Tracker struct {
		TickInterval     time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
		Timezone         string        `env:"TIMEZONE" envDefault:"Local"`
		ReminderEnabled  bool          `env:"REMINDER_ENABLED" envDefault:"true"`
		ReminderAfter    time.Duration `env:"REMINDER_AFTER" envDefault:"8h"`
		ReminderInterval time.Duration `env:"REMINDER_INTERVAL" envDefault:"1m"`
	} `envPrefix:"TRACKER_"`
	Goals struct {
		Daily   decimal.Decimal `env:"DAILY" envDefault:"200"`
		Weekly  decimal.Decimal `env:"WEEKLY" envDefault:"1000"`
		Monthly decimal.Decimal `env:"MONTHLY" envDefault:"4000"`

		// DigestSchedule is a cron spec for the goal digest; empty disables it.
		DigestSchedule string `env:"DIGEST_SCHEDULE"`
	} `envPrefix:"GOALS_"`
	Redis struct {
		// Addr enables the Redis inbox when set, e.g. "localhost:6379".
		Addr      string        `env:"ADDR"`
		Password  string        `env:"PASSWORD"`
		DB        int           `env:"DB" envDefault:"0"`
		RecentTTL time.Duration `env:"RECENT_TTL" envDefault:"168h"`
	} `envPrefix:"REDIS_"`
	RabbitMQ struct {
		// URL enables the AMQP notifier when set.
		URL            string        `env:"URL"`
		Queue          string        `env:"QUEUE" envDefault:"shift-earnings.notifications"`
		PublishTimeout time.Duration `env:"PUBLISH_TIMEOUT" envDefault:"10s"`
	} `envPrefix:"RABBITMQ_"`
	Log struct {
		Level  string `env:"LEVEL" envDefault:"info"`
		Format string `env:"FORMAT" envDefault:"text"`
	} `envPrefix:"LOG_"`
	Catalog struct {
		AchievementsFile string `env:"ACHIEVEMENTS_FILE"`
		TemplatesFile    string `env:"TEMPLATES_FILE"`
	} `envPrefix:"CATALOG_"`
}

// Load reads .env (if present) and then the environment. Variables already
// set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			// first error keeps the log readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("DATABASE_DRIVER: unsupported driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT: out of range %d", c.Server.Port)
	}
	if c.Tracker.TickInterval <= 0 {
		return fmt.Errorf("TRACKER_TICK_INTERVAL: must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TRACKER_TIMEZONE: %w", err)
	}
	if err := c.EarningsGoals().Validate(); err != nil {
		return fmt.Errorf("GOALS: %w", err)
	}
	if c.Goals.DigestSchedule != "" {
		if _, err := cron.ParseStandard(c.Goals.DigestSchedule); err != nil {
			return fmt.Errorf("GOALS_DIGEST_SCHEDULE: %w", err)
		}
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// Location is the tracker's local timezone, used for shift classification.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Tracker.Timezone)
}

func (c *Config) EarningsGoals() earnings.Goals {
	return earnings.Goals{Daily: c.Goals.Daily, Weekly: c.Goals.Weekly, Monthly: c.Goals.Monthly}
}

// NewLogger builds the process logger: JSON when LOG_FORMAT=json, text
// otherwise.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}
