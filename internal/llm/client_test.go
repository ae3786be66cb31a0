package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/byteatatime/flare-assist/internal/settings"
)

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		provider settings.Provider
		baseURL  string
		apiKey   string
		wantURL  string
		wantAuth string
	}{
		{
			name:     "openrouter",
			provider: settings.ProviderOpenRouter,
			apiKey:   "sk-test",
			wantURL:  "https://openrouter.ai/api/v1/chat/completions",
			wantAuth: "Bearer sk-test",
		},
		{
			name:     "ollama default base",
			provider: settings.ProviderOllama,
			wantURL:  "http://localhost:11434/v1/chat/completions",
		},
		{
			name:     "ollama custom base with trailing slash",
			provider: settings.ProviderOllama,
			baseURL:  "http://10.0.0.5:11434/v1/",
			wantURL:  "http://10.0.0.5:11434/v1/chat/completions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := ResolveEndpoint(tt.provider, tt.baseURL, tt.apiKey)
			if ep.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", ep.URL, tt.wantURL)
			}
			if ep.AuthHeader != tt.wantAuth {
				t.Errorf("AuthHeader = %q, want %q", ep.AuthHeader, tt.wantAuth)
			}
		})
	}
}

func TestIsQualifiedModelID(t *testing.T) {
	tests := []struct {
		model    string
		expected bool
	}{
		{"openai/gpt-4o", true},
		{"llama3:latest", true},
		{"default", false},
		{"", false},
		{"OpenAI_GPT4o", false},
	}

	for _, tt := range tests {
		if got := IsQualifiedModelID(tt.model); got != tt.expected {
			t.Errorf("IsQualifiedModelID(%q) = %v, want %v", tt.model, got, tt.expected)
		}
	}
}

func TestStartStream_SendsAuthAndReturnsGenerationID(t *testing.T) {
	client := NewClientWithHTTP(newTestHTTPClient(func(req *http.Request) (*http.Response, error) {
		if auth := req.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected Authorization header %q", auth)
		}
		var payload ChatRequest
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request payload: %v", err)
		}
		if !payload.Stream {
			t.Error("expected stream=true in request body")
		}

		resp := newTestHTTPResponse(req, http.StatusOK, "data: [DONE]\n")
		resp.Header.Set("x-request-id", "gen-123")
		return resp, nil
	}))

	ep := ResolveEndpoint(settings.ProviderOpenRouter, "", "sk-test")
	stream, err := client.StartStream(context.Background(), ep, &ChatRequest{
		Model:    "openai/gpt-4o",
		Messages: []Message{UserMessage("hi")},
		Stream:   true,
	})
	if err != nil {
		t.Fatalf("StartStream failed: %v", err)
	}
	defer stream.Body.Close()

	if stream.GenerationID != "gen-123" {
		t.Errorf("GenerationID = %q, want gen-123", stream.GenerationID)
	}
}

func TestStartStream_NonSuccessStatusIsTransportError(t *testing.T) {
	client := NewClientWithHTTP(newTestHTTPClient(func(req *http.Request) (*http.Response, error) {
		return newTestHTTPResponse(req, http.StatusPaymentRequired, `{"error":"out of credits"}`), nil
	}))

	ep := ResolveEndpoint(settings.ProviderOpenRouter, "", "sk-test")
	_, err := client.StartStream(context.Background(), ep, &ChatRequest{Model: "m", Stream: true})
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
	if te.Status != http.StatusPaymentRequired {
		t.Errorf("Status = %d, want 402", te.Status)
	}
	if !strings.Contains(te.Body, "out of credits") {
		t.Errorf("Body = %q, want response body context", te.Body)
	}
}

func TestStartStream_ConnectionFailureIsTransportError(t *testing.T) {
	client := NewClientWithHTTP(newTestHTTPClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}))

	ep := ResolveEndpoint(settings.ProviderOllama, "", "")
	_, err := client.StartStream(context.Background(), ep, &ChatRequest{Model: "llama3", Stream: true})
	if !IsTransportError(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestListOllamaModels(t *testing.T) {
	client := NewClientWithHTTP(newTestHTTPClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/models" {
			t.Errorf("unexpected path %q", req.URL.Path)
		}
		body := `{"data":[{"id":"llama3:latest"},{"id":"qwen2.5-coder:7b"}]}`
		return newTestHTTPResponse(req, http.StatusOK, body), nil
	}))

	models, err := client.ListOllamaModels(context.Background(), "http://localhost:11434/v1")
	if err != nil {
		t.Fatalf("ListOllamaModels failed: %v", err)
	}
	if len(models) != 2 || models[0] != "llama3:latest" {
		t.Errorf("unexpected models: %v", models)
	}
}

func TestAssistantMessage_EmptyTextSerializesNullContent(t *testing.T) {
	msg := AssistantMessage("", []ToolCall{{ID: "call_1", Type: "function"}})
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"content":null`) {
		t.Errorf("expected explicit null content, got %s", data)
	}
}
