package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SWEEP_INTERVAL", "")
	t.Setenv("SWEEP_WITHIN_DAYS", "")
	t.Setenv("QR_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Sweep.Interval)
	assert.Equal(t, 7, cfg.Sweep.WithinDays)
	assert.Equal(t, "file", cfg.QR.Driver)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SWEEP_INTERVAL", "1h")
	t.Setenv("SWEEP_WITHIN_DAYS", "3")
	t.Setenv("QR_DRIVER", "minio")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Sweep.Interval)
	assert.Equal(t, 3, cfg.Sweep.WithinDays)
	assert.Equal(t, "minio", cfg.QR.Driver)
	assert.True(t, cfg.QR.MinIO.UseSSL)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SWEEP_INTERVAL", "daily")

	_, err := Load()
	require.Error(t, err)
}
