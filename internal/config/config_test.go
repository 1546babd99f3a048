package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "GIN_MODE", "DATABASE_URL", "REDIS_URL", "PAYMONGO_WEBHOOK_SECRET",
		"PAYMONGO_LIVE_MODE", "STORE_TIMEOUT_SECONDS", "DELIVERY_TTL_HOURS", "ADMIN_API_KEY",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 24*time.Hour, cfg.DeliveryTTL)
	assert.False(t, cfg.LiveMode)
	assert.False(t, cfg.SignatureCheckEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PAYMONGO_WEBHOOK_SECRET", "  whsec_test ")
	t.Setenv("PAYMONGO_LIVE_MODE", "true")
	t.Setenv("STORE_TIMEOUT_SECONDS", "2")
	t.Setenv("DELIVERY_TTL_HOURS", "not-a-number")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("MEMBERSHIP_CALLBACK_URL", "http://frontdesk.local/hooks/membership")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "whsec_test", cfg.WebhookSecret)
	assert.True(t, cfg.SignatureCheckEnabled())
	assert.True(t, cfg.LiveMode)
	assert.True(t, cfg.IsRelease())
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 24*time.Hour, cfg.DeliveryTTL)
	assert.Equal(t, "http://frontdesk.local/hooks/membership", cfg.CallbackURL)
}

// chdir switches to dir for the rest of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MEMBERSHIP_CALLBACK_SECRET=from-dotenv\n"), 0o600))
	chdir(t, dir)
	require.NoError(t, os.Unsetenv("MEMBERSHIP_CALLBACK_SECRET"))
	t.Cleanup(func() { _ = os.Unsetenv("MEMBERSHIP_CALLBACK_SECRET") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.CallbackSecret)
}

func TestLoadRejectsMalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BAD!KEY=value\n"), 0o600))
	chdir(t, dir)

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
