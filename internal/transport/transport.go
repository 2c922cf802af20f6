// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transport sends one prompt to a hosted generation API and returns
// the raw text reply. Backends never retry; a failed call is reported as a
// *TransportError carrying the provider's status and code for the retry
// controller to classify.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/advisor-search/pkg/types"
)

// Generator abstracts the generation API so tests can supply a fake.
// Per Strategy pattern: one implementation per provider.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Default settings applied by New when the config leaves them empty.
const (
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
	DefaultTimeout        = 60 * time.Second
	DefaultMIMEType       = "application/json"
)

// TransportError is a network or provider-level failure.
type TransportError struct {
	Provider string
	// Status is the HTTP status or numeric provider code (0 if none).
	Status int
	// Code is the provider's symbolic code, e.g. "RESOURCE_EXHAUSTED".
	Code    string
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	if e.Status != 0 {
		fmt.Fprintf(&b, " returned %d", e.Status)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Quota reports whether the error carries the rate-limit signature: a 429
// status or code, or a message mentioning "quota".
func (e *TransportError) Quota() bool {
	if e.Status == http.StatusTooManyRequests || e.Code == strconv.Itoa(http.StatusTooManyRequests) {
		return true
	}
	return strings.Contains(e.Message, "quota") || (e.Err != nil && strings.Contains(e.Err.Error(), "quota"))
}

// ConfigurationError is a fatal setup problem detected before any network
// call, such as a missing API key.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// ErrMissingAPIKey is returned by Generate when no API key is configured.
var ErrMissingAPIKey = &ConfigurationError{Reason: "API key is not set"}

// New returns the backend for cfg.Provider with defaults applied. An empty
// provider selects Gemini.
func New(cfg types.AIConfig, client *http.Client) (Generator, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	switch cfg.Provider {
	case types.ProviderGemini, "":
		if cfg.Model == "" {
			cfg.Model = DefaultGeminiModel
		}
		return &GeminiBackend{
			APIKey:           cfg.APIKey,
			Model:            cfg.Model,
			ResponseMIMEType: cfg.ResponseMIMEType,
			WebSearch:        cfg.WebSearch,
			Client:           client,
		}, nil
	case types.ProviderAnthropic:
		if cfg.Model == "" {
			cfg.Model = DefaultAnthropicModel
		}
		return &ClaudeBackend{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			WebSearch: cfg.WebSearch,
			Client:    client,
		}, nil
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown provider %q", cfg.Provider)}
	}
}

// wrapCallError converts a failed call into a *TransportError, keeping
// context cancellation visible through errors.Is.
func wrapCallError(provider string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Provider: provider, Err: err}
}
