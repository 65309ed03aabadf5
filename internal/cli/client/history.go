package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const historyFile = "history.json"

// HistoryTurn is one persisted chat turn. Roles match the query API:
// "user" for questions, "model" for answers.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func historyPath() (string, error) {
	configDir, err := getConfigDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, historyFile), nil
}

// LoadHistory reads the persisted chat history.
// Returns an empty history (not error) if the file doesn't exist.
func LoadHistory() ([]HistoryTurn, error) {
	path, err := historyPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var turns []HistoryTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}

	return turns, nil
}

// SaveHistory writes the chat history with 0600 permissions.
func SaveHistory(turns []HistoryTurn) error {
	configDir, err := getConfigDirFunc()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path, err := historyPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}

// ClearHistory removes the history file.
func ClearHistory() error {
	path, err := historyPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete history file: %w", err)
	}

	return nil
}
