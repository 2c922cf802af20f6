// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Provider identifies the hosted generation API.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

// AIConfig holds settings for the generation endpoint and the retry
// controller that wraps it.
type AIConfig struct {
	// Provider selects the generation API: gemini or anthropic.
	Provider Provider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "gemini-2.0-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the generation API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the total number of attempts per search (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// BaseDelay is the first backoff delay; it doubles per attempt (default 2s).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`

	// Timeout bounds a single network call (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// ResponseMIMEType is the response format hint sent to providers that
	// support one (default "application/json").
	ResponseMIMEType string `json:"response_mime_type" yaml:"response_mime_type"`

	// WebSearch enables the provider's server-side web search tool.
	WebSearch bool `json:"web_search" yaml:"web_search"`
}

// PromptConfig parameterizes the prompt sent for each search.
type PromptConfig struct {
	// ResultCount is how many professors to ask for (default 5).
	ResultCount int `json:"result_count" yaml:"result_count"`

	// Template replaces the built-in prompt template when non-empty.
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
}

// HistoryConfig holds settings for the search history store.
type HistoryConfig struct {
	// Path is the SQLite database file (default "advisor-search.db").
	Path string `json:"path" yaml:"path"`

	// MaxResults is the default number of searches listed (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// Record stores every API search in the history database.
	Record bool `json:"record" yaml:"record"`
}

// Config groups all settings for the application.
type Config struct {
	AI       AIConfig      `json:"ai" yaml:"ai"`
	Prompt   PromptConfig  `json:"prompt" yaml:"prompt"`
	History  HistoryConfig `json:"history" yaml:"history"`
	Server   ServerConfig  `json:"server" yaml:"server"`
	LogLevel string        `json:"log_level" yaml:"log_level"`
}
