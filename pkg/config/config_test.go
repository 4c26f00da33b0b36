package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a", "b"}, CSV(" a, ,b ,"))
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("STORE_URL", "https://shop.example.com/")

	cfg := Load()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "pgx", cfg.DatabaseDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, "https://shop.example.com", cfg.StoreURL)
	assert.Equal(t, "usd", cfg.Currency)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no database", cfg: Config{AuthJWTSecret: []byte("x"), DatabaseDriver: "pgx"}},
		{name: "no auth key", cfg: Config{DatabaseURL: "postgres://x", DatabaseDriver: "pgx"}},
		{name: "bad driver", cfg: Config{DatabaseURL: "postgres://x", AuthJWTSecret: []byte("x"), DatabaseDriver: "mysql"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Error(t, tt.cfg.Validate())
		})
	}
}
