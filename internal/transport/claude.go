// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const (
	claudeAPIVersion = "2023-06-01"
	claudeMaxTokens  = 4096
	claudeSearchUses = 5
)

// ClaudeBackend calls the Claude Messages API. Claude has no response format
// hint, so the prompt alone asks for JSON.
type ClaudeBackend struct {
	APIKey    string
	Model     string
	WebSearch bool
	Client    *http.Client
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
	Tools     []claudeTool    `json:"tools,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeTool declares a server-side tool such as web search.
type claudeTool struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	MaxUses int    `json:"max_uses,omitempty"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// claudeErrorResponse is the body the API sends with non-2xx statuses.
type claudeErrorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Name returns the backend identifier.
func (c *ClaudeBackend) Name() string { return "anthropic" }

// Generate sends prompt as one user message and returns the concatenated
// text blocks of the reply. Web search interleaves tool blocks with text,
// so every text block is kept.
func (c *ClaudeBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: claudeMaxTokens,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}
	if c.WebSearch {
		reqBody.Tools = []claudeTool{{Type: "web_search_20250305", Name: "web_search", MaxUses: claudeSearchUses}}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", claudeAPIVersion)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", wrapCallError("anthropic", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", claudeStatusError(resp)
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", wrapCallError("anthropic", fmt.Errorf("decoding Claude response: %w", err))
	}

	var b strings.Builder
	for _, block := range cResp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

// claudeStatusError builds a *TransportError from a non-2xx response.
func claudeStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	te := &TransportError{Provider: "anthropic", Status: resp.StatusCode}
	var eResp claudeErrorResponse
	if err := json.Unmarshal(body, &eResp); err == nil && eResp.Error.Message != "" {
		te.Code = eResp.Error.Type
		te.Message = eResp.Error.Message
	} else {
		te.Message = strings.TrimSpace(string(body))
	}
	return te
}
