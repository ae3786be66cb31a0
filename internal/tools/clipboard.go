package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/byteatatime/flare-assist/internal/logger"
)

// commandContext is swapped out by tests to avoid touching the real
// clipboard utilities.
var commandContext = exec.CommandContext

// clipboardReadCommands are the platform utilities tried in order for
// reading the clipboard: X11 first, then Wayland.
var clipboardReadCommands = [][]string{
	{"xclip", "-selection", "clipboard", "-o"},
	{"xsel", "--clipboard", "--output"},
	{"wl-paste"},
}

var clipboardWriteCommands = [][]string{
	{"xclip", "-selection", "clipboard"},
	{"xsel", "--clipboard", "--input"},
	{"wl-copy"},
}

func executeReadClipboard(ctx context.Context) (string, error) {
	for _, argv := range clipboardReadCommands {
		out, err := runUtility(ctx, argv, "")
		if err == nil {
			return out, nil
		}
	}
	return "", fmt.Errorf("failed to read clipboard")
}

func executeWriteClipboard(ctx context.Context, args map[string]interface{}) (string, error) {
	content := stringArg(args, "content")
	if content == "" {
		if _, ok := args["content"]; !ok {
			return "", fmt.Errorf("missing 'content' argument")
		}
	}

	for _, argv := range clipboardWriteCommands {
		if _, err := runUtility(ctx, argv, content); err == nil {
			logger.Info("tools: wrote %d bytes to clipboard", len(content))
			return fmt.Sprintf("Successfully copied %d bytes to clipboard", len(content)), nil
		}
	}
	return "", fmt.Errorf("failed to write to clipboard")
}

func runUtility(ctx context.Context, argv []string, stdin string) (string, error) {
	cmd := commandContext(ctx, argv[0], argv[1:]...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
