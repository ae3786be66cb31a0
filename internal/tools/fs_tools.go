package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/byteatatime/flare-assist/internal/consts"
	"github.com/byteatatime/flare-assist/internal/logger"
)

func executeReadFile(args map[string]interface{}, allowedDirs []string) (string, error) {
	path, err := requireAllowedPath(args, "path", allowedDirs)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file metadata: %v", err)
	}
	if info.Size() > consts.MaxFileReadSize {
		return "", fmt.Errorf("file is too large (%d bytes), maximum size is %d bytes", info.Size(), consts.MaxFileReadSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %v", err)
	}
	return string(content), nil
}

func executeWriteFile(args map[string]interface{}, allowedDirs []string) (string, error) {
	path, err := requireAllowedPath(args, "path", allowedDirs)
	if err != nil {
		return "", err
	}
	content, ok := args["content"].(string)
	if !ok {
		return "", fmt.Errorf("missing 'content' argument")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directories: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %v", err)
	}

	logger.Info("tools: wrote file %s", path)
	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path), nil
}

func executeListDirectory(args map[string]interface{}, allowedDirs []string) (string, error) {
	path, err := requireAllowedPath(args, "path", allowedDirs)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("failed to read directory: %v", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		suffix := ""
		if entry.IsDir() {
			suffix = "/"
		} else if entry.Type()&os.ModeSymlink != 0 {
			suffix = "@"
		}
		names = append(names, entry.Name()+suffix)
	}
	return strings.Join(names, "\n"), nil
}

func executeSearchFiles(args map[string]interface{}, allowedDirs []string) (string, error) {
	dir, err := requireAllowedPath(args, "directory", allowedDirs)
	if err != nil {
		return "", err
	}
	pattern := stringArg(args, "pattern")
	if pattern == "" {
		return "", fmt.Errorf("missing 'pattern' argument")
	}

	re, err := globToRegexp(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid pattern: %v", err)
	}

	var matches []string
	if err := searchRecursive(dir, re, &matches, consts.MaxSearchDepth); err != nil {
		return "", err
	}
	return strings.Join(matches, "\n"), nil
}

// globToRegexp translates a simple */? glob into an anchored regular
// expression matching whole file names.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

func searchRecursive(dir string, pattern *regexp.Regexp, matches *[]string, depth int) error {
	if depth == 0 || len(*matches) >= consts.MaxSearchResults {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %v", err)
	}

	for _, entry := range entries {
		if len(*matches) >= consts.MaxSearchResults {
			return nil
		}
		path := filepath.Join(dir, entry.Name())
		if pattern.MatchString(entry.Name()) {
			*matches = append(*matches, path)
		}
		if entry.IsDir() {
			// Unreadable subdirectories are skipped, not fatal.
			_ = searchRecursive(path, pattern, matches, depth-1)
		}
	}
	return nil
}

func executeDeleteFile(args map[string]interface{}, allowedDirs []string) (string, error) {
	path, err := requireAllowedPath(args, "path", allowedDirs)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to delete: %v", err)
	}

	if info.IsDir() {
		if err := os.RemoveAll(path); err != nil {
			return "", fmt.Errorf("failed to delete directory: %v", err)
		}
	} else {
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("failed to delete file: %v", err)
		}
	}

	logger.Warn("tools: deleted %s", path)
	return fmt.Sprintf("Successfully deleted %s", path), nil
}
