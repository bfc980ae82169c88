package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Should apply defaults", func(t *testing.T) {
		unsetEnv(t, "DATABASE_URL", "PORT", "ENVIRONMENT", "DB_MAX_CONNS", "HTTP_READ_TIMEOUT")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "sqlite:///petstore.db", cfg.DB.URL)
		assert.Equal(t, ":8080", cfg.HTTP.Addr())
		assert.Equal(t, "development", cfg.App.Environment)
		assert.Equal(t, int32(10), cfg.DB.MaxConns)
		assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout.Duration())
	})

	t.Run("Should read overrides from env", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/petstore")
		t.Setenv("PORT", "9090")
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("HTTP_WRITE_TIMEOUT", "30")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "postgres://u:p@db:5432/petstore", cfg.DB.URL)
		assert.Equal(t, ":9090", cfg.HTTP.Addr())
		assert.Equal(t, "production", cfg.App.Environment)
		assert.Equal(t, 30*time.Second, cfg.HTTP.WriteTimeout.Duration())
	})

	t.Run("Should reject non positive pool size", func(t *testing.T) {
		unsetEnv(t, "DATABASE_URL")
		t.Setenv("DB_MAX_CONNS", "0")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration(`"2m"`)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d)

	_, err = parseDuration("soon")
	assert.Error(t, err)

	_, err = parseDuration("  ")
	assert.Error(t, err)
}

// unsetEnv borra las vars y las restaura al terminar el test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}
