package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/byteatatime/flare-assist/internal/consts"
	"github.com/byteatatime/flare-assist/internal/logger"
)

const generationEndpoint = "https://openrouter.ai/api/v1/generation"

// Recorder fetches per-generation usage stats from OpenRouter and writes
// them to the store. Lookups run detached from the request that produced
// the generation; failures are logged, never surfaced.
type Recorder struct {
	store      *Store
	httpClient *http.Client
	baseURL    string
}

func NewRecorder(store *Store) *Recorder {
	return &Recorder{
		store:      store,
		httpClient: &http.Client{Timeout: consts.Timeout10Seconds},
		baseURL:    generationEndpoint,
	}
}

// NewRecorderWithHTTP is used by tests to point the recorder at a fake
// endpoint.
func NewRecorderWithHTTP(store *Store, client *http.Client, baseURL string) *Recorder {
	return &Recorder{store: store, httpClient: client, baseURL: baseURL}
}

// RecordAsync looks up the generation in the background. The OpenRouter
// generation record is written eventually; a missing or failed lookup
// leaves no row.
func (r *Recorder) RecordAsync(generationID, apiKey string) {
	if generationID == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), consts.Timeout30Seconds)
		defer cancel()
		if err := r.record(ctx, generationID, apiKey); err != nil {
			logger.Warn("usage: failed to record generation %s: %v", generationID, err)
		}
	}()
}

func (r *Recorder) record(ctx context.Context, generationID, apiKey string) error {
	// Generation stats are computed asynchronously on the provider side;
	// a short delay avoids a guaranteed first miss.
	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}

	gen, err := r.fetch(ctx, generationID, apiKey)
	if err != nil {
		return err
	}
	return r.store.SaveGeneration(*gen)
}

func (r *Recorder) fetch(ctx context.Context, generationID, apiKey string) (*GenerationData, error) {
	endpoint := r.baseURL + "?id=" + url.QueryEscape(generationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("generation lookup returned status %d: %s", resp.StatusCode, body)
	}

	var wrapper struct {
		Data GenerationData `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}
	if wrapper.Data.ID == "" {
		wrapper.Data.ID = generationID
	}
	return &wrapper.Data, nil
}
