package usage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/byteatatime/flare-assist/internal/logger"
)

// Store persists generation usage records, conversations, presets and
// custom commands in a single sqlite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS ai_generations (
	id TEXT PRIMARY KEY,
	model TEXT NOT NULL,
	provider TEXT NOT NULL,
	prompt_tokens INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	total_cost REAL NOT NULL DEFAULT 0,
	created TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ai_generations_created ON ai_generations(created);

CREATE TABLE IF NOT EXISTS ai_conversations (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	messages TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ai_conversations_updated ON ai_conversations(updated_at);

CREATE TABLE IF NOT EXISTS ai_presets (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	prompt TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ai_commands (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	template TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

// Open opens (creating if necessary) the usage database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize usage schema: %w", err)
	}

	logger.Debug("usage: opened database at %s", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GenerationData is the per-generation usage record as reported by the
// OpenRouter generation endpoint.
type GenerationData struct {
	ID               string  `json:"id"`
	Model            string  `json:"model"`
	Provider         string  `json:"provider_name"`
	PromptTokens     int     `json:"tokens_prompt"`
	CompletionTokens int     `json:"tokens_completion"`
	TotalCost        float64 `json:"total_cost"`
	Created          string  `json:"created_at"`
}

// SaveGeneration upserts a usage record keyed by generation id. Recording the
// same generation twice leaves a single row.
func (s *Store) SaveGeneration(gen GenerationData) error {
	created := gen.Created
	if created == "" {
		created = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO ai_generations
		 (id, model, provider, prompt_tokens, completion_tokens, total_cost, created)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		gen.ID, gen.Model, gen.Provider, gen.PromptTokens, gen.CompletionTokens, gen.TotalCost, created,
	)
	if err != nil {
		return fmt.Errorf("failed to save generation %s: %w", gen.ID, err)
	}
	return nil
}

// History returns usage records newest first.
func (s *Store) History(limit, offset int) ([]GenerationData, error) {
	rows, err := s.db.Query(
		`SELECT id, model, provider, prompt_tokens, completion_tokens, total_cost, created
		 FROM ai_generations ORDER BY created DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage history: %w", err)
	}
	defer rows.Close()

	var result []GenerationData
	for rows.Next() {
		var gen GenerationData
		if err := rows.Scan(&gen.ID, &gen.Model, &gen.Provider,
			&gen.PromptTokens, &gen.CompletionTokens, &gen.TotalCost, &gen.Created); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		result = append(result, gen)
	}
	return result, rows.Err()
}

// TotalCost sums the cost of all recorded generations.
func (s *Store) TotalCost() (float64, error) {
	var total float64
	err := s.db.QueryRow(`SELECT COALESCE(SUM(total_cost), 0) FROM ai_generations`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum usage cost: %w", err)
	}
	return total, nil
}

// Conversation is a persisted chat transcript. Messages holds the raw
// message JSON so the wire shape survives round trips unchanged.
type Conversation struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Messages  json.RawMessage `json:"messages"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

// SaveConversation inserts or updates a conversation, bumping updated_at.
func (s *Store) SaveConversation(conv Conversation) error {
	now := time.Now().UTC().Format(time.RFC3339)
	createdAt := conv.CreatedAt
	if createdAt == "" {
		createdAt = now
	}
	_, err := s.db.Exec(
		`INSERT INTO ai_conversations (id, title, messages, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title,
		   messages = excluded.messages, updated_at = excluded.updated_at`,
		conv.ID, conv.Title, string(conv.Messages), createdAt, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation %s: %w", conv.ID, err)
	}
	return nil
}

// GetConversation loads one conversation by id.
func (s *Store) GetConversation(id string) (*Conversation, error) {
	var conv Conversation
	var messages string
	err := s.db.QueryRow(
		`SELECT id, title, messages, created_at, updated_at FROM ai_conversations WHERE id = ?`, id,
	).Scan(&conv.ID, &conv.Title, &messages, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}
	conv.Messages = json.RawMessage(messages)
	return &conv, nil
}

// ListConversations returns conversations without their message bodies,
// most recently updated first.
func (s *Store) ListConversations() ([]Conversation, error) {
	rows, err := s.db.Query(
		`SELECT id, title, created_at, updated_at FROM ai_conversations ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var result []Conversation
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		result = append(result, conv)
	}
	return result, rows.Err()
}

func (s *Store) DeleteConversation(id string) error {
	_, err := s.db.Exec(`DELETE FROM ai_conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	return nil
}

// Preset is a saved prompt with an optional pinned model.
type Preset struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Prompt    string `json:"prompt"`
	Model     string `json:"model,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func (s *Store) SavePreset(p Preset) error {
	createdAt := p.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO ai_presets (id, name, prompt, model, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Prompt, p.Model, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save preset %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) ListPresets() ([]Preset, error) {
	rows, err := s.db.Query(
		`SELECT id, name, prompt, model, created_at FROM ai_presets ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	defer rows.Close()

	var result []Preset
	for rows.Next() {
		var p Preset
		if err := rows.Scan(&p.ID, &p.Name, &p.Prompt, &p.Model, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan preset row: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) DeletePreset(id string) error {
	_, err := s.db.Exec(`DELETE FROM ai_presets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete preset %s: %w", id, err)
	}
	return nil
}

// Command is a user-defined prompt template. The template may reference
// {input} which callers substitute before sending.
type Command struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Template  string `json:"template"`
	CreatedAt string `json:"createdAt"`
}

func (s *Store) SaveCommand(c Command) error {
	createdAt := c.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO ai_commands (id, name, template, created_at)
		 VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Template, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save command %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) ListCommands() ([]Command, error) {
	rows, err := s.db.Query(
		`SELECT id, name, template, created_at FROM ai_commands ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}
	defer rows.Close()

	var result []Command
	for rows.Next() {
		var c Command
		if err := rows.Scan(&c.ID, &c.Name, &c.Template, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan command row: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) DeleteCommand(id string) error {
	_, err := s.db.Exec(`DELETE FROM ai_commands WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete command %s: %w", id, err)
	}
	return nil
}
