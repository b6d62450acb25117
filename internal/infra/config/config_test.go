package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainref "erent/internal/domain/reference"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "APP_ENV", "JWT_SECRET", "KAFKA_BROKERS", "MONGO_URI", "SESSION_TTL", "RETRY_BACKOFF", "LEDGER_DRIVER", "LEDGER_DSN", "S3_ENDPOINT", "S3_PUBLIC_ENDPOINT")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.True(t, cfg.Local())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.MongoURI)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Empty(t, cfg.LedgerDriver)
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t, "APP_ENV", "JWT_SECRET", "KAFKA_BROKERS", "MONGO_DB", "LEDGER_DRIVER", "LEDGER_DSN", "REDIS_DB")
	path := filepath.Join(t.TempDir(), ".env")
	content := "APP_ENV=prod\nJWT_SECRET=s3cret\nKAFKA_BROKERS=k1:9092, k2:9092\nMONGO_DB=rentals\nLEDGER_DSN=postgres://ledger\nREDIS_DB=2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"APP_ENV", "JWT_SECRET", "KAFKA_BROKERS", "MONGO_DB", "LEDGER_DSN", "REDIS_DB"} {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.False(t, cfg.Local())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "rentals", cfg.MongoDB)
	assert.Equal(t, "postgres", cfg.LedgerDriver)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoadErrors(t *testing.T) {
	t.Run("secret required outside dev", func(t *testing.T) {
		clearEnv(t, "JWT_SECRET")
		t.Setenv("APP_ENV", "prod")
		_, err := Load(noEnvFile(t))
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("APP_ENV", "dev")
		t.Setenv("SESSION_TTL", "forever")
		_, err := Load(noEnvFile(t))
		assert.ErrorContains(t, err, "SESSION_TTL")
	})

	t.Run("bad boolean", func(t *testing.T) {
		t.Setenv("APP_ENV", "dev")
		t.Setenv("S3_USE_SSL", "maybe")
		_, err := Load(noEnvFile(t))
		assert.ErrorContains(t, err, "S3_USE_SSL")
	})
}

func TestParseSeed(t *testing.T) {
	entries, err := ParseSeed([]byte(`
cities:
  - {id: sarajevo, name: Sarajevo, country: ba}
countries:
  - {id: ba, name: Bosnia and Herzegovina, code: BA}
amenities:
  - {id: wifi, name: Wi-Fi}
`))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domainref.KindCountry, entries[0].Kind)
	assert.Equal(t, "BA", entries[0].Code)
	assert.Equal(t, domainref.KindCity, entries[1].Kind)
	assert.Equal(t, "ba", entries[1].ParentID)
	assert.Equal(t, domainref.KindAmenity, entries[2].Kind)

	_, err = ParseSeed([]byte("genders:\n  - {name: Male}\n"))
	assert.Error(t, err)
	_, err = ParseSeed([]byte("countries: ["))
	assert.Error(t, err)
}

func TestShippedSeedParses(t *testing.T) {
	entries, err := LoadSeed(filepath.Join("..", "..", "..", "config", "reference.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
