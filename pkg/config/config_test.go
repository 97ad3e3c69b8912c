package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.True(t, cfg.Storage.Migrate)
	assert.Equal(t, int32(3), cfg.Inventory.BulkScale)
	assert.Equal(t, 5*time.Second, cfg.Inventory.LockTimeout)
	assert.Equal(t, "3", cfg.Inventory.ExcessMultiple.String())
	assert.True(t, cfg.Inventory.DiscrepancyTolerance.IsZero())
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, int32(10), cfg.DB.MaxConns)
	assert.Equal(t, time.Hour, cfg.DB.MaxConnLifetime)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("INVENTORY_BULK_SCALE", "2")
	t.Setenv("INVENTORY_LOCK_TIMEOUT_MS", "250")
	t.Setenv("INVENTORY_DISCREPANCY_TOLERANCE", "0.5")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, int32(2), cfg.Inventory.BulkScale)
	assert.Equal(t, 250*time.Millisecond, cfg.Inventory.LockTimeout)
	assert.Equal(t, "0.5", cfg.Inventory.DiscrepancyTolerance.String())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_Invalido(t *testing.T) {
	cases := map[string][2]string{
		"driver":     {"STORAGE_DRIVER", "mongo"},
		"multiplo":   {"INVENTORY_EXCESS_MULTIPLE", "1"},
		"tolerancia": {"INVENTORY_DISCREPANCY_TOLERANCE", "-1"},
		"decimal":    {"INVENTORY_EXCESS_MULTIPLE", "abc"},
		"timeout":    {"INVENTORY_LOCK_TIMEOUT_MS", "0"},
		"escala0":    {"INVENTORY_BULK_SCALE", "0"},
		"escala7":    {"INVENTORY_BULK_SCALE", "7"},
		"conexiones": {"DB_MAX_CONNS", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_EscalaMaxima(t *testing.T) {
	t.Setenv("INVENTORY_BULK_SCALE", "6")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int32(6), cfg.Inventory.BulkScale)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "inv", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/inv?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
