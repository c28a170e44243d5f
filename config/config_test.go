package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-orders/models"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "RELAY_INTERVAL", "RELAY_MAX_ATTEMPTS", "NOTIFY_EXCHANGE"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "invoices_fanout", cfg.NotifyExchange)
	assert.Equal(t, 500*time.Millisecond, cfg.RelayInterval)
	assert.Equal(t, 10, cfg.RelayMaxAttempts)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RELAY_INTERVAL", "2s")
	t.Setenv("RELAY_MAX_ATTEMPTS", "nope")
	t.Setenv("RATE_LIMIT_RPS", "5.5")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.RelayInterval)
	assert.Equal(t, 10, cfg.RelayMaxAttempts)
	assert.Equal(t, 5.5, cfg.RateLimitRPS)
}

func TestInitDBSqliteAndMigrate(t *testing.T) {
	db, err := InitDB(&Config{DBDriver: "sqlite", DBDSN: "file:config_test?mode=memory&cache=shared"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	assert.True(t, db.Migrator().HasTable(&models.Order{}))
	assert.True(t, db.Migrator().HasTable(&models.OutboxEvent{}))
}

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	_, err := InitDB(&Config{DBDriver: "oracle"})
	assert.Error(t, err)
}
