// Package summarize sends flattened transcript text to the external
// summarization engine.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultPrompt prefixes the transcript text sent to the engine.
const DefaultPrompt = "Summarize the following text concisely:\n\n"

// SummarizeError reports a failed summarization attempt. It is terminal
// for the attempt only; earlier pipeline results stay valid.
type SummarizeError struct {
	Err error
}

func (e *SummarizeError) Error() string {
	return fmt.Sprintf("summarization failed: %v", e.Err)
}

func (e *SummarizeError) Unwrap() error { return e.Err }

// Client talks to an Ollama-style generate endpoint.
type Client struct {
	endpoint string
	model    string
	prompt   string
	http     *http.Client
}

// Config holds client settings.
type Config struct {
	Endpoint string // e.g. "http://localhost:11434"
	Model    string
	Prompt   string // optional, DefaultPrompt when empty
	Timeout  time.Duration
}

// NewClient creates a summarization client.
func NewClient(cfg Config) *Client {
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		prompt:   prompt,
		http:     &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

// Summarize returns a summary of the given text. Empty or whitespace-only
// input short-circuits to an empty result without calling the engine. All
// other failures surface as *SummarizeError; nothing is retried.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		slog.Debug("Empty summarizer input, skipping engine call")
		return "", nil
	}

	slog.Info("Summarizing text", "length", len(text))

	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: c.prompt + text,
		Stream: false,
	})
	if err != nil {
		return "", &SummarizeError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", &SummarizeError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &SummarizeError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &SummarizeError{Err: fmt.Errorf("engine returned %s: %s", resp.Status, strings.TrimSpace(string(body)))}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &SummarizeError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Response == nil {
		return "", &SummarizeError{Err: fmt.Errorf("engine response missing 'response' field")}
	}

	slog.Info("Summarization completed", "length", len(*out.Response))
	return *out.Response, nil
}
