package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "postgres", cfg.App.Storage)
	assert.Equal(t, "MOVING_AVERAGE", cfg.Inventory.ValuationMethod)
	assert.Equal(t, "OUTBOUND", cfg.Inventory.DeliveryDirection)
	assert.Equal(t, 5*time.Second, cfg.Inventory.TxTimeout)
	assert.Equal(t, 2*time.Second, cfg.Inventory.LockTimeout)
	assert.True(t, cfg.DB.Migrate)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_DRIVER", "Memory")
	v.Set("VALUATION_METHOD", "fifo")
	v.Set("ORDER_DELIVERY_DIRECTION", "inbound")
	v.Set("TX_TIMEOUT", "1s")
	v.Set("LOCK_TIMEOUT", "3s")
	v.Set("DB_PORT", "6543")
	v.Set("REDIS_ADDR", "localhost:6379")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.App.Storage)
	assert.Equal(t, "FIFO", cfg.Inventory.ValuationMethod)
	assert.Equal(t, "INBOUND", cfg.Inventory.DeliveryDirection)
	assert.Equal(t, time.Second, cfg.Inventory.TxTimeout)
	assert.Equal(t, time.Second, cfg.Inventory.LockTimeout, "lock timeout acotado por el tx timeout")
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.True(t, cfg.Redis.Enabled())
}

func TestFromViper_ValoresInvalidos(t *testing.T) {
	for key, val := range map[string]string{
		"STORAGE_DRIVER":           "mongo",
		"VALUATION_METHOD":         "LIFO",
		"ORDER_DELIVERY_DIRECTION": "SIDEWAYS",
	} {
		v := viper.New()
		v.Set(key, val)
		_, err := fromViper(v)
		assert.Error(t, err, key)
	}
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("APP_NAME", "stock-test")
	t.Setenv("VALUATION_METHOD", "LOT")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "stock-test", cfg.App.Name)
	assert.Equal(t, "LOT", cfg.Inventory.ValuationMethod)
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss/word", DBName: "stock", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss%2Fword@db:5432/stock?sslmode=disable", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
