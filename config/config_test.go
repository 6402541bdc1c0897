package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CSB_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSB_JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CSB_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://clawstreetbets.com", cfg.BaseURL)
	assert.Equal(t, ".", cfg.DatabaseDir)
	assert.Equal(t, 30, cfg.RateLimit.PerMinute)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
}

func TestLoadYAMLThenEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	yaml := `
port: "9090"
jwt_secret: from-yaml
moltbook_api_key: moltbook_123
rate_limit:
  per_minute: 60
  burst: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clawstreetbets.yaml"), []byte(yaml), 0o600))
	t.Setenv("PORT", "7070")
	t.Setenv("CSB_JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port, "environment beats yaml")
	assert.Equal(t, "from-yaml", cfg.JWTSecret)
	assert.Equal(t, "moltbook_123", cfg.MoltbookAPIKey)
	assert.Equal(t, 60, cfg.RateLimit.PerMinute)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
}
