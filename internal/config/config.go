// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config assembles types.Config from defaults, an optional YAML
// config file, .env files, environment variables, and the secrets
// directory.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/pdiddy/advisor-search/internal/backoff"
	"github.com/pdiddy/advisor-search/internal/history"
	"github.com/pdiddy/advisor-search/internal/query"
	"github.com/pdiddy/advisor-search/internal/secrets"
	"github.com/pdiddy/advisor-search/internal/transport"
	"github.com/pdiddy/advisor-search/pkg/types"
)

// EnvPrefix prefixes every environment override, e.g. ADVISOR_SEARCH_AI_MODEL.
const EnvPrefix = "ADVISOR_SEARCH"

// Name is the config file base name and the directory under ~/.config.
const Name = "advisor-search"

// EnvFiles are loaded in order when present. Variables already set in the
// process environment are not overridden.
var EnvFiles = []string{".env", ".env.local"}

// Setup registers defaults, config file search paths, and environment
// binding on v. cfgFile, when set, replaces the search paths.
func Setup(v *viper.Viper, cfgFile string) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", string(types.ProviderGemini))
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.max_retries", backoff.DefaultMaxRetries)
	v.SetDefault("ai.base_delay", backoff.DefaultBaseDelay)
	v.SetDefault("ai.timeout", transport.DefaultTimeout)
	v.SetDefault("ai.response_mime_type", transport.DefaultMIMEType)
	v.SetDefault("ai.web_search", true)
	v.SetDefault("prompt.result_count", query.DefaultResultCount)
	v.SetDefault("prompt.template", "")
	v.SetDefault("history.path", history.DefaultPath)
	v.SetDefault("history.max_results", 20)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.record", false)
	v.SetDefault("log_level", "info")
}

// ReadFile reads the config file if one is found. A missing file is not an
// error; the returned path is empty in that case.
func ReadFile(v *viper.Viper) (string, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return v.ConfigFileUsed(), nil
}

// LoadEnvFiles loads the .env files that exist and returns their names.
func LoadEnvFiles(log logrus.FieldLogger, files ...string) []string {
	if len(files) == 0 {
		files = EnvFiles
	}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			if log != nil {
				log.WithError(err).Warnf("failed to load %s", file)
			}
			continue
		}
		loaded = append(loaded, file)
	}
	return loaded
}

// Build reads every key from v into a types.Config and resolves the API key.
func Build(v *viper.Viper, sec secrets.Secrets) types.Config {
	cfg := types.Config{
		AI: types.AIConfig{
			Provider:         types.Provider(strings.ToLower(strings.TrimSpace(v.GetString("ai.provider")))),
			Model:            v.GetString("ai.model"),
			MaxRetries:       v.GetInt("ai.max_retries"),
			BaseDelay:        v.GetDuration("ai.base_delay"),
			Timeout:          v.GetDuration("ai.timeout"),
			ResponseMIMEType: v.GetString("ai.response_mime_type"),
			WebSearch:        v.GetBool("ai.web_search"),
		},
		Prompt: types.PromptConfig{
			ResultCount: v.GetInt("prompt.result_count"),
			Template:    v.GetString("prompt.template"),
		},
		History: types.HistoryConfig{
			Path:       v.GetString("history.path"),
			MaxResults: v.GetInt("history.max_results"),
		},
		Server: types.ServerConfig{
			Addr:   v.GetString("server.addr"),
			Record: v.GetBool("server.record"),
		},
		LogLevel: v.GetString("log_level"),
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = types.ProviderGemini
	}
	cfg.AI.APIKey = APIKey(v, cfg.AI.Provider, sec)
	return cfg
}

// providerEnv names the conventional key variable of each provider.
var providerEnv = map[types.Provider]string{
	types.ProviderGemini:    "GEMINI_API_KEY",
	types.ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// APIKey resolves the key for provider. The first non-empty source wins:
// ai.api_key (config file or ADVISOR_SEARCH_AI_API_KEY), API_KEY, the
// provider's own variable, then the secrets directory.
func APIKey(v *viper.Viper, provider types.Provider, sec secrets.Secrets) string {
	if key := strings.TrimSpace(v.GetString("ai.api_key")); key != "" {
		return key
	}
	if key := strings.TrimSpace(os.Getenv("API_KEY")); key != "" {
		return key
	}
	if name, ok := providerEnv[provider]; ok {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key
		}
	}
	return sec.APIKey(string(provider))
}
