package installer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"ckan-devstaller/internal/logger"
	"ckan-devstaller/internal/precheck"
)

// globHome expands pattern inside the operator's home directory.
func globHome(home, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(home, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s: %w", pattern, err)
	}
	logger.Debug("[DEBUG] Globbing matches %v\n", matches)
	sort.Strings(matches)
	return matches, nil
}

// writeFileIfChanged writes data to path unless it already holds exactly that.
// It reports whether the file was written.
func writeFileIfChanged(path string, data []byte, mode os.FileMode) (bool, error) {
	same, err := precheck.ContentEquals(path, data)
	if err != nil {
		return false, err
	}
	if same {
		logger.Debug("[DEBUG] %s is up to date\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// ensureTrailingNewline terminates b with a single newline.
func ensureTrailingNewline(b []byte) []byte {
	b = bytes.TrimRight(b, "\r\n")
	return append(b, '\n')
}
