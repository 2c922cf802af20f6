// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/advisor-search/internal/secrets"
	"github.com/pdiddy/advisor-search/pkg/types"
)

// clearKeys empties every variable APIKey consults so the host
// environment cannot leak into a test.
func clearKeys(t *testing.T) {
	t.Helper()
	for _, name := range []string{"API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY", "ADVISOR_SEARCH_AI_API_KEY", "ADVISOR_SEARCH_AI_PROVIDER"} {
		t.Setenv(name, "")
	}
}

func newViper(t *testing.T, cfgFile string) *viper.Viper {
	t.Helper()
	v := viper.New()
	Setup(v, cfgFile)
	return v
}

func TestDefaults(t *testing.T) {
	clearKeys(t)
	cfg := Build(newViper(t, ""), secrets.Secrets{})

	assert.Equal(t, types.ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, 3, cfg.AI.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.AI.BaseDelay)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "application/json", cfg.AI.ResponseMIMEType)
	assert.True(t, cfg.AI.WebSearch)
	assert.Equal(t, 5, cfg.Prompt.ResultCount)
	assert.Equal(t, "advisor-search.db", cfg.History.Path)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Server.Record)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.AI.APIKey)
}

func TestConfigFile(t *testing.T) {
	clearKeys(t)
	path := filepath.Join(t.TempDir(), "advisor-search.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ai:
  provider: Anthropic
  model: claude-test
  max_retries: 5
  base_delay: 500ms
  web_search: false
prompt:
  result_count: 8
server:
  record: true
log_level: debug
`), 0o644))

	v := newViper(t, path)
	used, err := ReadFile(v)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg := Build(v, secrets.Secrets{})
	assert.Equal(t, types.ProviderAnthropic, cfg.AI.Provider)
	assert.Equal(t, "claude-test", cfg.AI.Model)
	assert.Equal(t, 5, cfg.AI.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.AI.BaseDelay)
	assert.False(t, cfg.AI.WebSearch)
	assert.Equal(t, 8, cfg.Prompt.ResultCount)
	assert.True(t, cfg.Server.Record)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestReadFileMissing(t *testing.T) {
	v := newViper(t, filepath.Join(t.TempDir(), "nope.yaml"))
	used, err := ReadFile(v)
	require.NoError(t, err)
	assert.Empty(t, used)
}

func TestEnvOverride(t *testing.T) {
	clearKeys(t)
	t.Setenv("ADVISOR_SEARCH_AI_MODEL", "gemini-env")
	t.Setenv("ADVISOR_SEARCH_PROMPT_RESULT_COUNT", "3")

	cfg := Build(newViper(t, ""), secrets.Secrets{})
	assert.Equal(t, "gemini-env", cfg.AI.Model)
	assert.Equal(t, 3, cfg.Prompt.ResultCount)
}

func TestAPIKeyPrecedence(t *testing.T) {
	sec := secrets.Secrets{"gemini-api-key": "from-secrets", "anthropic-api-key": "ant-secrets"}

	tests := []struct {
		name     string
		env      map[string]string
		provider types.Provider
		want     string
	}{
		{"secrets only", nil, types.ProviderGemini, "from-secrets"},
		{"provider variable", map[string]string{"GEMINI_API_KEY": "gem-env"}, types.ProviderGemini, "gem-env"},
		{"other provider variable ignored", map[string]string{"GEMINI_API_KEY": "gem-env"}, types.ProviderAnthropic, "ant-secrets"},
		{"generic variable", map[string]string{"API_KEY": "generic", "GEMINI_API_KEY": "gem-env"}, types.ProviderGemini, "generic"},
		{"prefixed variable wins", map[string]string{"ADVISOR_SEARCH_AI_API_KEY": "prefixed", "API_KEY": "generic"}, types.ProviderGemini, "prefixed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearKeys(t)
			for k, val := range tt.env {
				t.Setenv(k, val)
			}
			v := newViper(t, "")
			assert.Equal(t, tt.want, APIKey(v, tt.provider, sec))
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	clearKeys(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("GEMINI_API_KEY=dotenv-key\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("GEMINI_API_KEY") })
	// t.Setenv above left GEMINI_API_KEY set but empty; godotenv keeps
	// existing variables, so unset it first.
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))

	loaded := LoadEnvFiles(nil, envPath, filepath.Join(dir, "missing.env"))
	assert.Equal(t, []string{envPath}, loaded)

	cfg := Build(newViper(t, ""), secrets.Secrets{})
	assert.Equal(t, "dotenv-key", cfg.AI.APIKey)
}
