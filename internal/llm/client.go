package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/byteatatime/flare-assist/internal/logger"
)

// Client issues streaming chat-completion requests against a resolved
// Endpoint. It deliberately carries no overall timeout: a streaming read can
// legitimately stay open for minutes, and cancellation is the caller's job
// through ctx.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client backed by a default HTTP transport.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{}}
}

// NewClientWithHTTP creates a client with a caller-supplied HTTP client,
// used by tests to fake the provider.
func NewClientWithHTTP(hc *http.Client) *Client {
	return &Client{httpClient: hc}
}

// StreamResponse is an open streaming response body plus the provider's
// generation identifier, when one was assigned.
type StreamResponse struct {
	Body         io.ReadCloser
	GenerationID string
}

// StartStream sends req to the endpoint and returns the raw response body
// for frame decoding. Connection failures and non-success statuses return a
// *TransportError.
func (c *Client) StartStream(ctx context.Context, ep Endpoint, req *ChatRequest) (*StreamResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("chat request cannot be nil")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	logger.Debug("llm: sending chat request to %s, model=%s, payload=%d bytes", ep.URL, req.Model, len(payload))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if ep.AuthHeader != "" {
		httpReq.Header.Set("Authorization", ep.AuthHeader)
		httpReq.Header.Set("HTTP-Referer", openRouterReferer)
		httpReq.Header.Set("X-Title", openRouterTitle)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &TransportError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return &StreamResponse{
		Body:         resp.Body,
		GenerationID: resp.Header.Get("x-request-id"),
	}, nil
}

// ListOllamaModels fetches the model IDs a local Ollama server exposes via
// its OpenAI-compatible /models route.
func (c *Client) ListOllamaModels(ctx context.Context, baseURL string) ([]string, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultOllamaBaseURL
	}
	url := strings.TrimRight(base, "/") + "/models"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &TransportError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var listing struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("unexpected response from ollama models API: %w", err)
	}

	ids := make([]string, 0, len(listing.Data))
	for _, m := range listing.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}
