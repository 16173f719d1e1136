package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := FromLookup(lookupFrom(map[string]string{
			"MONGO_URL": "mongodb://localhost:27017",
		}))
		require.NoError(t, err)

		assert.Equal(t, "8002", cfg.Port)
		assert.Equal(t, ":8002", cfg.Addr())
		assert.Equal(t, DriverMongo, cfg.StoreDriver)
		assert.Equal(t, "seaweed_swimmer_2", cfg.DBName)
		assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
		assert.Equal(t, 5.0, cfg.RateLimitRPS)
		assert.Equal(t, 30, cfg.RateLimitBurst)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.False(t, cfg.MetricsAuthEnabled())
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := FromLookup(lookupFrom(map[string]string{
			"PORT":             "9000",
			"STORE_DRIVER":     "Postgres",
			"DATABASE_URL":     "postgres://localhost/seaweed",
			"CORS_ORIGINS":     "https://a.example, https://b.example,",
			"RATE_LIMIT_RPS":   "2.5",
			"RATE_LIMIT_BURST": "10",
			"METRICS_USER":     "prom",
			"METRICS_PASS":     "secret",
		}))
		require.NoError(t, err)

		assert.Equal(t, DriverPostgres, cfg.StoreDriver)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
		assert.Equal(t, 2.5, cfg.RateLimitRPS)
		assert.Equal(t, 10, cfg.RateLimitBurst)
		assert.True(t, cfg.MetricsAuthEnabled())
	})

	t.Run("sqlite needs no url", func(t *testing.T) {
		cfg, err := FromLookup(lookupFrom(map[string]string{"STORE_DRIVER": "sqlite"}))
		require.NoError(t, err)
		assert.Equal(t, "file:seaweed.db", cfg.SQLitePath)
	})

	t.Run("missing url for driver", func(t *testing.T) {
		_, err := FromLookup(lookupFrom(map[string]string{"STORE_DRIVER": "postgres"}))

		var missing ErrMissingValue
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "DATABASE_URL", missing.Key)

		_, err = FromLookup(lookupFrom(map[string]string{}))
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "MONGO_URL", missing.Key)
	})

	invalid := []struct {
		name string
		env  map[string]string
		key  string
	}{
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "redis"}, key: "STORE_DRIVER"},
		{name: "bad rps", env: map[string]string{"STORE_DRIVER": "sqlite", "RATE_LIMIT_RPS": "fast"}, key: "RATE_LIMIT_RPS"},
		{name: "zero rps", env: map[string]string{"STORE_DRIVER": "sqlite", "RATE_LIMIT_RPS": "0"}, key: "RATE_LIMIT_RPS"},
		{name: "bad burst", env: map[string]string{"STORE_DRIVER": "sqlite", "RATE_LIMIT_BURST": "-1"}, key: "RATE_LIMIT_BURST"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLookup(lookupFrom(tt.env))

			var iv ErrInvalidValue
			require.True(t, errors.As(err, &iv))
			assert.Equal(t, tt.key, iv.Key)
		})
	}
}
