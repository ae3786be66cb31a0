package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Provider identifies which chat-completion backend to talk to.
type Provider string

const (
	// ProviderOpenRouter routes requests through the hosted OpenRouter API
	ProviderOpenRouter Provider = "openRouter"
	// ProviderOllama talks to a local Ollama server's OpenAI-compatible API
	ProviderOllama Provider = "ollama"
)

// Settings holds the AI assistant configuration, persisted as JSON in the
// user config directory.
type Settings struct {
	Enabled              bool              `json:"enabled"`
	Provider             Provider          `json:"provider"`
	BaseURL              string            `json:"baseUrl,omitempty"`
	Temperature          float64           `json:"temperature"`
	ModelAssociations    map[string]string `json:"modelAssociations"`
	ToolsEnabled         bool              `json:"toolsEnabled"`
	AllowedDirectories   []string          `json:"allowedDirectories"`
	AutoApproveSafeTools bool              `json:"autoApproveSafeTools"`
	AutoApproveAllTools  bool              `json:"autoApproveAllTools"`
}

const defaultTemperature = 0.7

// DefaultModelAssociations maps friendly model keys to OpenRouter model IDs.
// Users may override individual entries; overrides identical to the default
// are not persisted.
var DefaultModelAssociations = map[string]string{
	// OpenAI
	"OpenAI_GPT4.1":      "openai/gpt-4.1",
	"OpenAI_GPT4.1-mini": "openai/gpt-4.1-mini",
	"OpenAI_GPT4.1-nano": "openai/gpt-4.1-nano",
	"OpenAI_GPT4":        "openai/gpt-4",
	"OpenAI_GPT4-turbo":  "openai/gpt-4-turbo",
	"OpenAI_GPT4o":       "openai/gpt-4o",
	"OpenAI_GPT4o-mini":  "openai/gpt-4o-mini",
	"OpenAI_o3":          "openai/o3",
	"OpenAI_o4-mini":     "openai/o4-mini",
	"OpenAI_o1":          "openai/o1",
	"OpenAI_o3-mini":     "openai/o3-mini",
	// Anthropic
	"Anthropic_Claude_Haiku":      "anthropic/claude-3-haiku",
	"Anthropic_Claude_Sonnet":     "anthropic/claude-3-sonnet",
	"Anthropic_Claude_Sonnet_3.7": "anthropic/claude-3.7-sonnet",
	"Anthropic_Claude_Opus":       "anthropic/claude-3-opus",
	"Anthropic_Claude_4_Sonnet":   "anthropic/claude-sonnet-4",
	"Anthropic_Claude_4_Opus":     "anthropic/claude-opus-4",
	// Perplexity
	"Perplexity_Sonar":               "perplexity/sonar",
	"Perplexity_Sonar_Pro":           "perplexity/sonar-pro",
	"Perplexity_Sonar_Reasoning":     "perplexity/sonar-reasoning",
	"Perplexity_Sonar_Reasoning_Pro": "perplexity/sonar-reasoning-pro",
	// Meta
	"Llama4_Scout":  "meta-llama/llama-4-scout",
	"Llama3.3_70B":  "meta-llama/llama-3.3-70b-instruct",
	"Llama3.1_8B":   "meta-llama/llama-3.1-8b-instruct",
	"Llama3.1_405B": "meta-llama/llama-3.1-405b-instruct",
	// Mistral
	"Mistral_Nemo":      "mistralai/mistral-nemo",
	"Mistral_Large":     "mistralai/mistral-large",
	"Mistral_Medium":    "mistralai/mistral-medium-3",
	"Mistral_Small":     "mistralai/mistral-small",
	"Mistral_Codestral": "mistralai/codestral-2501",
	// DeepSeek
	"DeepSeek_R1_Distill_Llama_3.3_70B": "deepseek/deepseek-r1-distill-llama-70b",
	"DeepSeek_R1":                       "deepseek/deepseek-r1",
	"DeepSeek_V3":                       "deepseek/deepseek-chat",
	// Google
	"Google_Gemini_2.5_Pro":   "google/gemini-2.5-pro",
	"Google_Gemini_2.5_Flash": "google/gemini-2.5-flash",
	"Google_Gemini_2.0_Flash": "google/gemini-2.0-flash-001",
	// xAI
	"xAI_Grok_3":      "x-ai/grok-3",
	"xAI_Grok_3_Mini": "x-ai/grok-3-mini",
	"xAI_Grok_2":      "x-ai/grok-2-1212",
}

// Default returns the settings used before the user has configured anything.
func Default() *Settings {
	return &Settings{
		Enabled:              false,
		Provider:             ProviderOpenRouter,
		Temperature:          defaultTemperature,
		ModelAssociations:    map[string]string{},
		ToolsEnabled:         false,
		AllowedDirectories:   nil,
		AutoApproveSafeTools: true,
		AutoApproveAllTools:  false,
	}
}

// ConfigDir returns the directory holding settings and credential files.
func ConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := strings.TrimSpace(os.Getenv("APPDATA")); appData != "" {
			return filepath.Join(appData, "flare-assist")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Roaming", "flare-assist")
	default:
		if configHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); configHome != "" {
			return filepath.Join(configHome, "flare-assist")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", "flare-assist")
	}
}

func settingsPath(dir string) string {
	return filepath.Join(dir, "ai_settings.json")
}

// Load reads settings from dir, falling back to defaults for a missing or
// empty file, and merges the default model associations into any keys the
// user has not overridden.
func Load(dir string) (*Settings, error) {
	s, err := readFile(settingsPath(dir))
	if err != nil {
		return nil, err
	}

	if s.ModelAssociations == nil {
		s.ModelAssociations = map[string]string{}
	}
	for key, def := range DefaultModelAssociations {
		if existing, ok := s.ModelAssociations[key]; !ok || existing == "" {
			s.ModelAssociations[key] = def
		}
	}

	return s, nil
}

// Save writes settings to dir. Model associations that match the built-in
// default are stripped so the file only records real overrides.
func Save(dir string, s *Settings) error {
	if s == nil {
		return fmt.Errorf("settings cannot be nil")
	}

	toSave := *s
	toSave.ModelAssociations = map[string]string{}
	for key, value := range s.ModelAssociations {
		if def, ok := DefaultModelAssociations[key]; ok && def == value {
			continue
		}
		toSave.ModelAssociations[key] = value
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(&toSave, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := os.WriteFile(settingsPath(dir), data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

func readFile(path string) (*Settings, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return Default(), nil
	}

	s := Default()
	if err := json.Unmarshal(content, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}
