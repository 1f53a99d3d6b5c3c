package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Default()

	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "memory", c.Cache.Backend)
	assert.Equal(t, 60*time.Second, c.CacheTTL())
	assert.Equal(t, 500, c.Cache.MaxEntries)
	assert.Equal(t, 3, c.Analysis.MinConsistency)
	assert.Equal(t, 95.0, c.Signals.Graduation.MinProgress)
	assert.Equal(t, 5000.0, c.Signals.EarlyGem.MinLiquidity)
	assert.Equal(t, 70.0, c.Pipeline.MinSafetyScore)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log:
  level: debug
server:
  port: 9999
cache:
  backend: redis
  ttl_seconds: 120
signals:
  momentum:
    min_vol_mcap_ratio: 0.8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, 9999, c.Server.Port)
	assert.Equal(t, "redis", c.Cache.Backend)
	assert.Equal(t, 120*time.Second, c.CacheTTL())
	assert.Equal(t, 0.8, c.Signals.Momentum.MinVolMcapRatio)

	// Untouched sections keep their defaults.
	assert.Equal(t, "127.0.0.1", c.Server.Host)
	assert.Equal(t, 10.0, c.Signals.Momentum.MinPriceChange1h)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestSecretsComeFromEnv(t *testing.T) {
	t.Setenv("SOURCE_API_KEY", "src-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")
	t.Setenv("ANTHROPIC_API_KEY", "an-key")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "src-key", c.Source.APIKey)
	assert.Equal(t, "oa-key", c.Narrative.OpenAIKey)
	assert.Equal(t, "an-key", c.Narrative.AnthropicKey)
}
