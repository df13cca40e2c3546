package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/book-module/internal/config"
	"github.com/EgorLis/book-module/internal/domain"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	log := zerolog.Nop()

	st, err := openStore(ctx, &config.Config{StoreEngine: config.StoreMemory}, nil, log)
	require.NoError(t, err)
	require.NoError(t, st.Ping(ctx))

	_, err = openStore(ctx, &config.Config{StoreEngine: config.StoreRedis}, nil, log)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	_, err = openStore(ctx, &config.Config{StoreEngine: "sqlite"}, nil, log)
	assert.Error(t, err)
}

func TestNewLoggerLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, newLogger("debug").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, newLogger("").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, newLogger("loud").GetLevel())
}
