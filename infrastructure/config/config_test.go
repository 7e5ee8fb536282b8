package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.App.PublicBaseURL)
	assert.Equal(t, 12*time.Hour, cfg.App.SessionTTL)
	assert.Equal(t, "receiptstudio.db", cfg.DB.SQLitePath)
	assert.Equal(t, "", cfg.DB.MigrationsDir)
	assert.Equal(t, 2.0, cfg.Render.ImageScale)
	assert.Equal(t, 200, cfg.Render.QRSize)
	assert.Equal(t, 10, cfg.RateLimit.LoginPerMinute)
	assert.Equal(t, 60, cfg.RateLimit.SharePerMinute)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("RECEIPTSTUDIO_ADDR", "127.0.0.1:9999")
	t.Setenv("RECEIPTSTUDIO_PUBLIC_BASE_URL", "https://receipts.example.com/ ")
	t.Setenv("RECEIPTSTUDIO_SESSION_TTL", "30m")
	t.Setenv("RECEIPTSTUDIO_IMAGE_SCALE", "1.5")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.App.Addr)
	assert.Equal(t, "https://receipts.example.com", cfg.App.PublicBaseURL)
	assert.Equal(t, 30*time.Minute, cfg.App.SessionTTL)
	assert.Equal(t, 1.5, cfg.Render.ImageScale)
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	t.Setenv("RECEIPTSTUDIO_QR_SIZE", "0")
	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qr size")

	t.Setenv("RECEIPTSTUDIO_QR_SIZE", "abc")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RECEIPTSTUDIO_QR_SIZE=321\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("RECEIPTSTUDIO_QR_SIZE")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 321, cfg.Render.QRSize)
}

func TestLoadWithoutDotEnv(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = Load()
	assert.NoError(t, err)
}
