// Package prompt persists the operator-editable system prompt that is sent
// with every external AI request.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultPrompt is returned when no prompt file exists yet.
const DefaultPrompt = "Ты — вежливый и дружелюбный ассистент. Приводи чётко структурированный ответ."

// Store is a file-backed system prompt store. Reads fall back to
// DefaultPrompt when the file is missing or empty; writes are atomic via a
// temp file rename.
type Store struct {
	mu     sync.RWMutex
	path   string
	logger *zap.Logger
}

// NewStore creates a prompt store backed by the given file path.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load returns the current system prompt.
func (s *Store) Load() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read system prompt file",
				zap.String("path", s.path), zap.Error(err))
		}
		return DefaultPrompt
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return DefaultPrompt
	}
	return content
}

// Save replaces the system prompt.
func (s *Store) Save(prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create prompt directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prompt-*")
	if err != nil {
		return fmt.Errorf("failed to create temp prompt file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(prompt); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write system prompt: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp prompt file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace system prompt: %w", err)
	}

	s.logger.Info("system prompt updated", zap.Int("chars", len(prompt)))
	return nil
}
