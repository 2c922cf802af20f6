// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/genai"
)

// geminiBaseURL overrides the Gemini API endpoint. Package-level var for
// test substitution; empty uses the SDK default.
var geminiBaseURL = ""

// GeminiBackend calls the Gemini API through the genai SDK.
type GeminiBackend struct {
	APIKey           string
	Model            string
	ResponseMIMEType string
	WebSearch        bool
	Client           *http.Client

	mu     sync.Mutex
	client *genai.Client
}

// Name returns the backend identifier.
func (g *GeminiBackend) Name() string { return "gemini" }

// Generate sends prompt as a single user turn and returns the reply text,
// which may be empty.
func (g *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if g.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	client, err := g.sdkClient(ctx)
	if err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{}
	if g.ResponseMIMEType != "" {
		cfg.ResponseMIMEType = g.ResponseMIMEType
	}
	if g.WebSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := client.Models.GenerateContent(ctx, g.Model, genai.Text(prompt), cfg)
	if err != nil {
		return "", geminiError(err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}

// sdkClient creates the genai client on first use so a missing key is
// reported by Generate rather than at construction.
func (g *GeminiBackend) sdkClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     g.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.Client,
	}
	if geminiBaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: geminiBaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("creating Gemini client: %v", err)}
	}
	g.client = client
	return client, nil
}

// geminiError maps SDK errors to *TransportError, keeping the numeric code
// and the symbolic status.
func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &TransportError{Provider: "gemini", Status: apiErr.Code, Code: apiErr.Status, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &TransportError{Provider: "gemini", Status: apiErrPtr.Code, Code: apiErrPtr.Status, Message: apiErrPtr.Message, Err: err}
	}
	return wrapCallError("gemini", err)
}
