package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, StoreMemory, cfg.StoreEngine)
	assert.Equal(t, BlobInline, cfg.BlobEngine)
	assert.Equal(t, "/v1/blobs", cfg.BlobBaseURL)
	assert.Equal(t, int64(50<<20), cfg.UploadMaxBytes)
	assert.Equal(t, 12*time.Hour, cfg.AuthTokenTTL)
	assert.Equal(t, "bookmodule:", cfg.RedisPrefix)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("STORE_ENGINE", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_PASSWORD", "p")
	t.Setenv("DB_NAME", "books")
	t.Setenv("AUTH_TOKEN_TTL", "30m")
	t.Setenv("S3_USE_SSL", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.StoreEngine)
	assert.Equal(t, 30*time.Minute, cfg.AuthTokenTTL)
	assert.True(t, cfg.S3UseSSL)
	assert.Equal(t, "postgres://u:p@db:6543/books?sslmode=disable", cfg.GetDSN())
}

func TestLoadFromEnvRejectsBadEngine(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("STORE_ENGINE", "sqlite")

	_, err := LoadFromEnv()
	assert.ErrorContains(t, err, "STORE_ENGINE")
}

func TestLoadFromEnvRequiresSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := LoadFromEnv()
	assert.ErrorContains(t, err, "AUTH_JWT_SECRET")
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := &Config{
		DBPassword:    "db-pass",
		RedisPassword: "redis-pass",
		S3SecretKey:   "s3-key",
		AuthJWTSecret: "jwt-secret",
	}
	s := cfg.String()
	for _, secret := range []string{"db-pass", "redis-pass", "s3-key", "jwt-secret"} {
		assert.NotContains(t, s, secret)
	}
	assert.Contains(t, s, "DBPassword: ********")
	assert.Contains(t, s, "AdminPasscodeHash: (empty)")
}
