package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, SourceModeMock, cfg.Source.Mode)
	assert.Equal(t, 5, cfg.Pipeline.MaxSelectedPosts)
	assert.Equal(t, 4, cfg.Pipeline.FilterConcurrency)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postpilot.yaml")

	content := `
llm:
  endpoint: https://llm.internal/v1/chat/completions
  model: custom-model
source:
  mode: browser
  limit: 20
pipeline:
  max_selected_posts: 3
  filter_concurrency: 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://llm.internal/v1/chat/completions", cfg.LLM.Endpoint)
	assert.Equal(t, "custom-model", cfg.LLM.Model)
	assert.Equal(t, SourceModeBrowser, cfg.Source.Mode)
	assert.Equal(t, 20, cfg.Source.Limit)
	assert.Equal(t, 3, cfg.Pipeline.MaxSelectedPosts)
	assert.Equal(t, 8, cfg.Pipeline.FilterConcurrency)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POSTPILOT_LLM_MODEL", "override-model")
	t.Setenv("POSTPILOT_LLM_API_KEY", "secret")
	t.Setenv("POSTPILOT_DATA_PATH", "/tmp/postpilot-data")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "override-model", cfg.LLM.Model)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, "/tmp/postpilot-data", cfg.DataPath)
}

func TestLoadRejectsInvalidSourceMode(t *testing.T) {
	t.Setenv("POSTPILOT_SOURCE_MODE", "carrier-pigeon")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/postpilot.yaml")
	assert.Error(t, err)
}
