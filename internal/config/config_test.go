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

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "email_sends", cfg.SendQueueName)
	assert.Equal(t, 5*time.Minute, cfg.WebhookTolerance)
	assert.Equal(t, 100, cfg.SyncPageSize)
	assert.Equal(t, 3, cfg.WorkerMaxRetries)
	assert.Equal(t, float64(500), cfg.VIPSpendThreshold)
}

func TestLoadOverridesAndClamps(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SYNC_PAGE_SIZE", "100000")
	t.Setenv("WORKER_MAX_RETRIES", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 100, cfg.SyncPageSize) // out of range falls back
	assert.Equal(t, 3, cfg.WorkerMaxRetries)
}
