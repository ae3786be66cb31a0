package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/byteatatime/flare-assist/internal/llm"
	"github.com/byteatatime/flare-assist/internal/logger"
	"github.com/byteatatime/flare-assist/internal/orchestrator"
	"github.com/byteatatime/flare-assist/internal/secrets"
	"github.com/byteatatime/flare-assist/internal/settings"
	"github.com/byteatatime/flare-assist/internal/usage"
)

type stringSlice []string

func (s *stringSlice) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *stringSlice) Set(value string) error {
	if value == "" {
		return fmt.Errorf("value cannot be empty")
	}
	*s = append(*s, value)
	return nil
}

func (s stringSlice) toStrings() []string {
	if len(s) == 0 {
		return nil
	}
	return append([]string(nil), s...)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	var allowDirs stringSlice
	model := flag.String("model", "", "Model id or association key (defaults to the provider default)")
	creativity := flag.String("creativity", "", "Creativity level: none, low, medium or high")
	enableTools := flag.Bool("tools", false, "Let the model call the built-in tools")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warning or error")
	setKey := flag.Bool("set-key", false, "Read an OpenRouter API key from stdin and store it")
	listModels := flag.Bool("list-models", false, "List models available from the local Ollama server")
	showUsage := flag.Bool("usage", false, "Print recorded generation usage and exit")
	flag.Var(&allowDirs, "allow-dir", "Directory the tools may access (repeatable)")
	flag.Parse()

	configDir := settings.ConfigDir()

	if envLevel := strings.TrimSpace(os.Getenv("FLARE_LOG_LEVEL")); envLevel != "" {
		*logLevel = envLevel
	}
	logPath := filepath.Join(configDir, "flare-assist.log")
	if envPath := strings.TrimSpace(os.Getenv("FLARE_LOG_PATH")); envPath != "" {
		logPath = envPath
	}
	if err := logger.Init(logger.ParseLevel(*logLevel), logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	defer func() {
		if err != nil {
			logger.Error("Fatal error: %v", err)
		}
		if closeErr := logger.Global().Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close logger: %v\n", closeErr)
		}
	}()

	cfg, err := settings.Load(configDir)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	store := secrets.NewStore(configDir, os.Getenv("FLARE_SECRETS_PASSWORD"))

	switch {
	case *setKey:
		return storeAPIKey(store)
	case *listModels:
		return printOllamaModels(cfg)
	case *showUsage:
		return printUsage(configDir)
	}

	prompt := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if prompt == "" {
		return fmt.Errorf("no prompt given; usage: flare-assist [flags] <prompt>")
	}

	if len(allowDirs) > 0 {
		cfg.AllowedDirectories = allowDirs.toStrings()
	}
	if *enableTools {
		cfg.ToolsEnabled = true
	}

	usageStore, err := usage.Open(filepath.Join(configDir, "usage.db"))
	if err != nil {
		return err
	}
	defer usageStore.Close()

	orch := orchestrator.New(cfg, llm.NewClient(), store, usage.NewRecorder(usageStore), consoleEmitter{})
	_, err = orch.AskStream(context.Background(), prompt, orchestrator.AskOptions{
		Model:       *model,
		Creativity:  *creativity,
		EnableTools: *enableTools,
	})
	return err
}

// consoleEmitter renders orchestration events for a terminal session: text
// chunks stream to stdout, tool activity goes to stderr.
type consoleEmitter struct{}

func (consoleEmitter) Emit(event string, payload interface{}) error {
	switch event {
	case orchestrator.EventStreamChunk:
		chunk := payload.(orchestrator.StreamChunk)
		fmt.Print(chunk.Text)
	case orchestrator.EventToolCall:
		call := payload.(orchestrator.ToolCallRequest)
		args, _ := json.Marshal(call.Arguments)
		fmt.Fprintf(os.Stderr, "\n[tool] %s(%s) [%s]\n", call.ToolName, args, call.Safety)
	case orchestrator.EventToolResult:
		result := payload.(orchestrator.ToolCallResult)
		if result.Success {
			fmt.Fprintf(os.Stderr, "[tool] %s succeeded\n", result.ToolName)
		} else {
			fmt.Fprintf(os.Stderr, "[tool] %s failed: %s\n", result.ToolName, result.Error)
		}
	case orchestrator.EventStreamEnd:
		fmt.Println()
	}
	return nil
}

func storeAPIKey(store *secrets.Store) error {
	fmt.Fprint(os.Stderr, "Paste your OpenRouter API key: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	if err := store.Set(key); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "API key stored.")
	return nil
}

func printOllamaModels(cfg *settings.Settings) error {
	models, err := llm.NewClient().ListOllamaModels(context.Background(), cfg.BaseURL)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Println("No models installed.")
		return nil
	}
	for _, model := range models {
		fmt.Println(model)
	}
	return nil
}

func printUsage(configDir string) error {
	store, err := usage.Open(filepath.Join(configDir, "usage.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	history, err := store.History(50, 0)
	if err != nil {
		return err
	}
	total, err := store.TotalCost()
	if err != nil {
		return err
	}

	for _, gen := range history {
		fmt.Printf("%s  %-40s %6d in %6d out  $%.6f\n",
			gen.Created, gen.Model, gen.PromptTokens, gen.CompletionTokens, gen.TotalCost)
	}
	fmt.Printf("Total cost: $%.6f over %d generations\n", total, len(history))
	return nil
}
