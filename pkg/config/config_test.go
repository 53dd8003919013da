package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-engine/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "stock-engine", cfg.App.Name)
	assert.Equal(t, config.StoreDriverPostgres, cfg.Engine.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.Engine.LockTimeout)
	assert.Equal(t, 30*time.Second, cfg.Redis.StockTTL)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.False(t, cfg.DB.AutoMigrate)
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("ENGINE_LOCK_TIMEOUT", "250ms")
	t.Setenv("REDIS_STOCK_TTL", "1500")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_AUTO_MIGRATE", "true")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StoreDriverMemory, cfg.Engine.StoreDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.LockTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Redis.StockTTL, "un entero se interpreta en milisegundos")
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.DB.AutoMigrate)
}

func TestLoad_Invalidos(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("STORE_DRIVER", "sqlite")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ENGINE_LOCK_TIMEOUT", "pronto")
	_, err = config.Load()
	assert.Error(t, err)

	t.Setenv("ENGINE_LOCK_TIMEOUT", "0s")
	_, err = config.Load()
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "stock", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/stock?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
