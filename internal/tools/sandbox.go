package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/byteatatime/flare-assist/internal/logger"
)

// Execute runs a built-in tool with the given arguments under the
// allowed-directory policy. Business failures (containment denial, missing
// arguments, I/O errors, command failures) come back as error values with
// descriptive text; they are conversational feedback, not fatal conditions.
func Execute(ctx context.Context, name string, args map[string]interface{}, allowedDirs []string) (string, error) {
	switch name {
	case ToolReadFile:
		return executeReadFile(args, allowedDirs)
	case ToolWriteFile:
		return executeWriteFile(args, allowedDirs)
	case ToolListDirectory:
		return executeListDirectory(args, allowedDirs)
	case ToolSearchFiles:
		return executeSearchFiles(args, allowedDirs)
	case ToolDeleteFile:
		return executeDeleteFile(args, allowedDirs)
	case ToolGetSystemInfo:
		return executeGetSystemInfo()
	case ToolRunCommand:
		return executeRunCommand(ctx, args)
	case ToolReadClipboard:
		return executeReadClipboard(ctx)
	case ToolWriteClipboard:
		return executeWriteClipboard(ctx, args)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// isPathAllowed reports whether path is contained in at least one allowed
// directory. Both sides are canonicalized before comparison; a path that does
// not exist yet (writes) is judged by its parent. An empty allow-list denies
// everything.
func isPathAllowed(path string, allowedDirs []string) bool {
	if len(allowedDirs) == 0 {
		return false
	}

	resolved, err := canonicalize(path)
	if err != nil {
		parent := filepath.Dir(path)
		resolved, err = canonicalize(parent)
		if err != nil {
			return false
		}
	}

	for _, allowed := range allowedDirs {
		allowedResolved, err := canonicalize(allowed)
		if err != nil {
			continue
		}
		if isDescendant(resolved, allowedResolved) {
			return true
		}
	}
	return false
}

// canonicalize resolves symlinks and normalizes the path. It fails when the
// path does not exist.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func isDescendant(path, dir string) bool {
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

// requireAllowedPath extracts the named string argument and enforces
// containment, returning the raw path for subsequent I/O.
func requireAllowedPath(args map[string]interface{}, key string, allowedDirs []string) (string, error) {
	path := stringArg(args, key)
	if path == "" {
		return "", fmt.Errorf("missing '%s' argument", key)
	}
	if !isPathAllowed(path, allowedDirs) {
		logger.Warn("tools: denied access to %s outside allowed directories", path)
		return "", fmt.Errorf("path '%s' is not in allowed directories", path)
	}
	return path, nil
}

func stringArg(args map[string]interface{}, key string) string {
	if args == nil {
		return ""
	}
	value, _ := args[key].(string)
	return value
}
