package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "onnx", cfg.Model.Backend)
	assert.Equal(t, int64(16<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, 10*time.Minute, cfg.RedisConfig.TTL)
	assert.False(t, cfg.CacheEnable)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "5000")
	t.Setenv("MODEL_BACKEND", "openai")
	t.Setenv("CACHE_ENABLE", "true")
	t.Setenv("REDIS_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "openai", cfg.Model.Backend)
	assert.True(t, cfg.CacheEnable)
	assert.Equal(t, time.Hour, cfg.RedisConfig.TTL)
}

func TestLoadClient(t *testing.T) {
	t.Setenv("PREDICT_ENDPOINT", "http://scan:9000")

	cfg, err := LoadClient()
	require.NoError(t, err)

	assert.Equal(t, "http://scan:9000", cfg.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.ErrorDismiss)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("SERVER_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}
