package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSummarize_Success(t *testing.T) {
	var calls int
	var gotReq generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/api/generate" {
			t.Errorf("Path = %q, want /api/generate", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "a short summary"})
	}))
	defer server.Close()

	c := NewClient(Config{Endpoint: server.URL, Model: "test-model"})

	summary, err := c.Summarize(context.Background(), "[S1] Hello\n[S2] Hi")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary != "a short summary" {
		t.Errorf("Summary = %q, want %q", summary, "a short summary")
	}
	if calls != 1 {
		t.Errorf("Expected exactly 1 engine call, got %d", calls)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("Model = %q, want test-model", gotReq.Model)
	}
	if gotReq.Stream {
		t.Error("Stream must be false")
	}
	if !strings.HasPrefix(gotReq.Prompt, DefaultPrompt) || !strings.Contains(gotReq.Prompt, "[S2] Hi") {
		t.Errorf("Prompt should be the default prefix plus the corpus, got %q", gotReq.Prompt)
	}
}

func TestSummarize_EmptyInputShortCircuits(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	c := NewClient(Config{Endpoint: server.URL, Model: "m"})

	for _, input := range []string{"", "   ", "\n\t "} {
		summary, err := c.Summarize(context.Background(), input)
		if err != nil {
			t.Errorf("Summarize(%q) error: %v", input, err)
		}
		if summary != "" {
			t.Errorf("Summarize(%q) = %q, want empty", input, summary)
		}
	}
	if calls != 0 {
		t.Errorf("Engine must not be called for empty input, got %d calls", calls)
	}
}

func TestSummarize_EngineHTTPErrorIsTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(Config{Endpoint: server.URL, Model: "m"})

	_, err := c.Summarize(context.Background(), "text")
	var sumErr *SummarizeError
	if !errors.As(err, &sumErr) {
		t.Fatalf("Expected *SummarizeError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Error should carry the engine status, got: %v", err)
	}
}

func TestSummarize_MissingResponseField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"done": "true"})
	}))
	defer server.Close()

	c := NewClient(Config{Endpoint: server.URL, Model: "m"})

	_, err := c.Summarize(context.Background(), "text")
	var sumErr *SummarizeError
	if !errors.As(err, &sumErr) {
		t.Fatalf("Expected *SummarizeError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "response") {
		t.Errorf("Error should name the missing field, got: %v", err)
	}
}

func TestSummarize_UnreachableEngine(t *testing.T) {
	c := NewClient(Config{Endpoint: "http://127.0.0.1:1", Model: "m"})

	_, err := c.Summarize(context.Background(), "text")
	var sumErr *SummarizeError
	if !errors.As(err, &sumErr) {
		t.Errorf("Expected *SummarizeError, got %T: %v", err, err)
	}
}

func TestNewClient_CustomPrompt(t *testing.T) {
	c := NewClient(Config{Endpoint: "http://x", Model: "m", Prompt: "TLDR:\n"})
	if c.prompt != "TLDR:\n" {
		t.Errorf("prompt = %q, want custom prompt", c.prompt)
	}

	c = NewClient(Config{Endpoint: "http://x", Model: "m"})
	if c.prompt != DefaultPrompt {
		t.Errorf("prompt = %q, want DefaultPrompt", c.prompt)
	}
}
