package state

import (
	"encoding/json" // For JSON encoding and decoding of the state file
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mitchellh/go-homedir"

	"ckan-devstaller/internal/logger"
)

// FileName is the state file's name inside Dir.
const FileName = "state.json"

// Dir is the installer's directory under the operator's home.
const Dir = ".ckan-devstaller"

// State records what an installation created so that uninstall can remove it.
type State struct {
	CKANVersion    string               `json:"ckan_version,omitempty"` // Version of CKAN the last run installed
	Artifacts      []string             `json:"artifacts"`              // Absolute paths created by the installer, in creation order
	CompletedSteps map[string]time.Time `json:"completed_steps"`        // Step description to completion time
}

// DefaultPath returns ~/.ckan-devstaller/state.json.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, Dir, FileName), nil
}

// New returns an empty state.
func New() *State {
	return &State{CompletedSteps: make(map[string]time.Time)}
}

// Load reads the state file at path. A missing file yields an empty state.
func Load(path string) (*State, error) {
	file, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file %s: %w", path, err)
	}

	var st State
	if err := json.Unmarshal(file, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	if st.CompletedSteps == nil {
		st.CompletedSteps = make(map[string]time.Time)
	}
	return &st, nil
}

// Save writes st to path as indented JSON, creating the parent directory.
func Save(path string, st *State) error {
	file, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	logger.Debug("[DEBUG] Writing state to %s:\n%s\n", path, string(file))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(path, file, 0o644); err != nil {
		return fmt.Errorf("failed to write state file %s: %w", path, err)
	}
	return nil
}

// RecordArtifact remembers path unless it is already recorded.
func (s *State) RecordArtifact(path string) {
	for _, a := range s.Artifacts {
		if a == path {
			return
		}
	}
	s.Artifacts = append(s.Artifacts, path)
}

// MarkCompleted records that step finished at t.
func (s *State) MarkCompleted(step string, t time.Time) {
	if s.CompletedSteps == nil {
		s.CompletedSteps = make(map[string]time.Time)
	}
	s.CompletedSteps[step] = t
}

// Completed returns the completed step names, sorted.
func (s *State) Completed() []string {
	names := make([]string, 0, len(s.CompletedSteps))
	for name := range s.CompletedSteps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
