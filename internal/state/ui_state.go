package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/driftlabs/driftline/internal/logger"
)

// UIState holds persistent UI preferences that carry across sessions.
type UIState struct {
	Scroll ScrollState `json:"scroll"`
	Tabs   TabsState   `json:"tabs"`
}

// ScrollState holds viewport scrolling preferences.
type ScrollState struct {
	Intelligent    bool   `json:"intelligent"`
	GracefulReturn string `json:"graceful_return"` // auto or indicator
}

// TabsState remembers the open tabs so a restart restores the workspace.
type TabsState struct {
	Sessions []string `json:"sessions"`
	Active   int      `json:"active"`
}

// DefaultUIState returns the default UI state with sensible defaults.
func DefaultUIState() *UIState {
	return &UIState{
		Scroll: ScrollState{
			Intelligent:    true,
			GracefulReturn: "auto",
		},
	}
}

// Load reads the UI state from .driftline/ui-state.json.
// Returns default state if the file doesn't exist or on error.
func Load(dataDir string) *UIState {
	path := filepath.Join(dataDir, "ui-state.json")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultUIState()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Failed to read UI state file: %v", err)
		return DefaultUIState()
	}

	var state UIState
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warn("Failed to parse UI state JSON: %v", err)
		return DefaultUIState()
	}

	if state.Scroll.GracefulReturn == "" {
		state.Scroll.GracefulReturn = "auto"
	}

	return &state
}

// Save writes the UI state to .driftline/ui-state.json.
// Creates the data directory if it doesn't exist.
func Save(dataDir string, state *UIState) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, "ui-state.json")

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling UI state: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing UI state file: %w", err)
	}

	logger.Debug("UI state saved to %s", path)
	return nil
}
