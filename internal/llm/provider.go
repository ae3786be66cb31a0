package llm

import (
	"strings"

	"github.com/byteatatime/flare-assist/internal/settings"
)

const (
	openRouterChatURL = "https://openrouter.ai/api/v1/chat/completions"
	openRouterReferer = "https://github.com/byteatatime/flare-assist"
	openRouterTitle   = "flare-assist"

	defaultOllamaBaseURL = "http://localhost:11434/v1"

	defaultOpenRouterModel = "mistralai/mistral-7b-instruct:free"
	defaultOllamaModel     = "llama3"
)

// Endpoint is a provider resolved into the concrete values the round loop
// needs: a chat-completions URL and, for hosted providers, an auth header.
type Endpoint struct {
	Provider settings.Provider
	URL      string
	// AuthHeader is the full Authorization header value, empty when the
	// provider needs none (Ollama).
	AuthHeader string
}

// ResolveEndpoint turns a provider selection into an Endpoint. This happens
// once per ask, before the round loop starts.
func ResolveEndpoint(provider settings.Provider, baseURL, apiKey string) Endpoint {
	switch provider {
	case settings.ProviderOllama:
		base := strings.TrimSpace(baseURL)
		if base == "" {
			base = defaultOllamaBaseURL
		}
		return Endpoint{
			Provider: settings.ProviderOllama,
			URL:      strings.TrimRight(base, "/") + "/chat/completions",
		}
	default:
		return Endpoint{
			Provider:   settings.ProviderOpenRouter,
			URL:        openRouterChatURL,
			AuthHeader: "Bearer " + apiKey,
		}
	}
}

// DefaultModel returns the fallback model for a provider when no association
// resolves.
func DefaultModel(provider settings.Provider) string {
	if provider == settings.ProviderOllama {
		return defaultOllamaModel
	}
	return defaultOpenRouterModel
}

// IsQualifiedModelID reports whether the value names a concrete model
// ("openai/gpt-4o", "llama3:latest") rather than an association key to look
// up in settings.
func IsQualifiedModelID(model string) bool {
	if model == "" || model == "default" {
		return false
	}
	return strings.Contains(model, "/") || strings.Contains(model, ":")
}
