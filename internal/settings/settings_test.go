package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.False(t, s.Enabled)
	assert.Equal(t, ProviderOpenRouter, s.Provider)
	assert.Equal(t, 0.7, s.Temperature)
	assert.True(t, s.AutoApproveSafeTools)
	assert.False(t, s.AutoApproveAllTools)
	assert.Equal(t, DefaultModelAssociations["OpenAI_GPT4o"], s.ModelAssociations["OpenAI_GPT4o"])
}

func TestLoadEmptyFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(settingsPath(dir), []byte("  \n"), 0644))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenRouter, s.Provider)
}

func TestLoadMergesDefaultAssociations(t *testing.T) {
	dir := t.TempDir()
	content := `{
		"enabled": true,
		"provider": "ollama",
		"temperature": 0.3,
		"modelAssociations": {"OpenAI_GPT4o": "openai/gpt-4o-2024", "Custom": "my/model"}
	}`
	require.NoError(t, os.WriteFile(settingsPath(dir), []byte(content), 0644))

	s, err := Load(dir)
	require.NoError(t, err)

	assert.True(t, s.Enabled)
	assert.Equal(t, ProviderOllama, s.Provider)
	assert.Equal(t, 0.3, s.Temperature)

	// User overrides survive, defaults fill in the rest.
	assert.Equal(t, "openai/gpt-4o-2024", s.ModelAssociations["OpenAI_GPT4o"])
	assert.Equal(t, "my/model", s.ModelAssociations["Custom"])
	assert.Equal(t, DefaultModelAssociations["Anthropic_Claude_Opus"], s.ModelAssociations["Anthropic_Claude_Opus"])
}

func TestLoadInvalidJSONFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(settingsPath(dir), []byte("{nope"), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSaveStripsDefaultAssociations(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(dir)
	require.NoError(t, err)
	s.Enabled = true
	s.ModelAssociations["OpenAI_GPT4o"] = "openai/custom-pin"

	require.NoError(t, Save(dir, s))

	raw, err := os.ReadFile(settingsPath(dir))
	require.NoError(t, err)

	var onDisk struct {
		ModelAssociations map[string]string `json:"modelAssociations"`
	}
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, map[string]string{"OpenAI_GPT4o": "openai/custom-pin"}, onDisk.ModelAssociations)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	original := Default()
	original.Enabled = true
	original.Provider = ProviderOllama
	original.BaseURL = "http://192.168.1.5:11434/v1"
	original.ToolsEnabled = true
	original.AllowedDirectories = []string{"/home/user/docs"}
	original.AutoApproveAllTools = true

	require.NoError(t, Save(dir, original))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, original.Enabled, loaded.Enabled)
	assert.Equal(t, original.Provider, loaded.Provider)
	assert.Equal(t, original.BaseURL, loaded.BaseURL)
	assert.Equal(t, original.AllowedDirectories, loaded.AllowedDirectories)
	assert.True(t, loaded.AutoApproveAllTools)
}

func TestSaveNilSettings(t *testing.T) {
	assert.Error(t, Save(t.TempDir(), nil))
}

func TestSaveCreatesConfigDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "config")
	require.NoError(t, Save(dir, Default()))
	assert.FileExists(t, settingsPath(dir))
}
