package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/byteatatime/flare-assist/internal/consts"
	"github.com/byteatatime/flare-assist/internal/logger"
)

func executeRunCommand(ctx context.Context, args map[string]interface{}) (string, error) {
	command := stringArg(args, "command")
	if command == "" {
		return "", fmt.Errorf("missing 'command' argument")
	}

	logger.Warn("tools: executing shell command: %s", command)

	ctx, cancel := context.WithTimeout(ctx, consts.Timeout2Minutes)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return "", fmt.Errorf("command failed with exit code %d\nstdout: %s\nstderr: %s",
			exitCode, stdout.String(), stderr.String())
	}

	return stdout.String(), nil
}
