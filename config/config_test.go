package config_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-earnings/config"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, time.Second, cfg.Tracker.TickInterval)
	assert.Equal(t, 8*time.Hour, cfg.Tracker.ReminderAfter)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Empty(t, cfg.Redis.Addr)

	goals := cfg.EarningsGoals()
	assert.True(t, decimal.NewFromInt(200).Equal(goals.Daily))
	assert.True(t, decimal.NewFromInt(4000).Equal(goals.Monthly))
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_CORS_ORIGINS", "http://localhost:3000,https://app.example.com")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "postgres://localhost/shifts?sslmode=disable")
	t.Setenv("TRACKER_TIMEZONE", "Europe/Paris")
	t.Setenv("TRACKER_REMINDER_AFTER", "10h30m")
	t.Setenv("GOALS_WEEKLY", "1250.50")
	t.Setenv("GOALS_DIGEST_SCHEDULE", "55 23 * * *")

	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Len(t, cfg.Server.CORSOrigins, 2)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 10*time.Hour+30*time.Minute, cfg.Tracker.ReminderAfter)
	assert.True(t, decimal.RequireFromString("1250.5").Equal(cfg.Goals.Weekly))
	assert.Equal(t, "55 23 * * *", cfg.Goals.DigestSchedule)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DATABASE_DRIVER", "mysql"},
		{"SERVER_PORT", "70000"},
		{"SERVER_PORT", "eighty"},
		{"TRACKER_TIMEZONE", "Mars/Olympus"},
		{"GOALS_DAILY", "-5"},
		{"LOG_LEVEL", "chatty"},
		{"GOALS_DIGEST_SCHEDULE", "every tuesday"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.Parse()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger_Format(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "warn")
	cfg, err := config.Parse()
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "component", "test")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"component":"test"`)
}
