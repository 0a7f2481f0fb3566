package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsPlusEnv(t *testing.T) {
	t.Setenv("XAI_API_KEY", "xai-123")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "xai-123", cfg.API.APIKey)
	assert.Equal(t, "https://api.x.ai/v1", cfg.API.BaseURL)
	assert.Equal(t, "grok-3-mini", cfg.API.Model.Model)
	assert.True(t, cfg.API.Model.Store)
	assert.Equal(t, 15, cfg.Agent.Limits.MaxIterations)
	assert.Equal(t, 500, cfg.Agent.Limits.OutputLimit)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 20, cfg.Server.HistoryLimit)
	assert.Empty(t, cfg.Store.Path)
}

func TestLoad_YAMLThenEnvOverrides(t *testing.T) {
	path := writeFile(t, "tradvisor.yaml", `
api:
  base_url: http://localhost:9999/v1
  request_timeout: 30s
  model:
    model: grok-4
    store: false
agent:
  limits:
    max_iterations: 4
    description_limit: 40
server:
  addr: ":9000"
  allowed_origins: ["https://app.example.com"]
store:
  path: /tmp/file.db
`)
	t.Setenv("XAI_API_KEY", "k")
	t.Setenv("MAX_ITERATIONS", "6")
	t.Setenv("TRADVISOR_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/v1", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.RequestTimeout)
	assert.Equal(t, "grok-4", cfg.API.Model.Model)
	assert.False(t, cfg.API.Model.Store)
	assert.Equal(t, 6, cfg.Agent.Limits.MaxIterations, "env wins over file")
	assert.Equal(t, 40, cfg.Agent.Limits.DescriptionLimit)
	assert.Equal(t, 500, cfg.Agent.Limits.OutputLimit, "unset fields keep defaults")
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "/tmp/file.db", cfg.Store.Path)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	envFile := writeFile(t, ".env", "XAI_API_KEY=from-dotenv\nXAI_MODEL=grok-dotenv\n")
	t.Setenv("XAI_MODEL", "grok-env")
	// Registered so t.Setenv restores it; Load sets it from the file.
	t.Setenv("XAI_API_KEY", "")
	require.NoError(t, os.Unsetenv("XAI_API_KEY"))

	cfg, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.API.APIKey)
	assert.Equal(t, "grok-env", cfg.API.Model.Model)
}

func TestLoad_MissingFilesAreIgnored(t *testing.T) {
	t.Setenv("XAI_API_KEY", "k")
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "nope.yaml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		t.Setenv("XAI_API_KEY", "")
		_, err := Load("", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "XAI_API_KEY")
	})

	t.Run("bad iterations", func(t *testing.T) {
		t.Setenv("XAI_API_KEY", "k")
		t.Setenv("MAX_ITERATIONS", "lots")
		_, err := Load("", "")
		require.Error(t, err)
	})

	t.Run("zero iterations", func(t *testing.T) {
		t.Setenv("XAI_API_KEY", "k")
		t.Setenv("MAX_ITERATIONS", "0")
		_, err := Load("", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_iterations")
	})

	t.Run("bad yaml", func(t *testing.T) {
		t.Setenv("XAI_API_KEY", "k")
		_, err := Load(writeFile(t, "bad.yaml", "api: [unclosed"), "")
		require.Error(t, err)
	})
}
