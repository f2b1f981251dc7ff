package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/timeinventory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.Store)
	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, "NORMAL", cfg.FeedbackMode)
	assert.NotNil(t, cfg.Timezone)
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_MemoryStoreNeedsNoDatabase(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store)
}

func TestLoad_UnknownStore(t *testing.T) {
	t.Setenv("STORE", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE")
}

func TestLoad_Timezone(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("TIMEZONE", "Asia/Tokyo")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone.String())

	t.Setenv("TIMEZONE", "Not/AZone")
	_, err = Load()
	assert.Error(t, err)
}
