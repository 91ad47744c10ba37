package prompt

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestStore(t *testing.T) {
	t.Run("MissingFileFallsBackToDefault", func(t *testing.T) {
		s := NewStore(filepath.Join(t.TempDir(), "prompt.txt"), zap.NewNop())
		if got := s.Load(); got != DefaultPrompt {
			t.Errorf("Load() = %q, want default", got)
		}
	})

	t.Run("SaveThenLoad", func(t *testing.T) {
		s := NewStore(filepath.Join(t.TempDir(), "prompt.txt"), zap.NewNop())
		if err := s.Save("Answer in English only."); err != nil {
			t.Fatal(err)
		}
		if got := s.Load(); got != "Answer in English only." {
			t.Errorf("Load() = %q", got)
		}
	})

	t.Run("WhitespaceOnlyFallsBackToDefault", func(t *testing.T) {
		s := NewStore(filepath.Join(t.TempDir(), "prompt.txt"), zap.NewNop())
		if err := s.Save("  \n\t "); err != nil {
			t.Fatal(err)
		}
		if got := s.Load(); got != DefaultPrompt {
			t.Errorf("Load() = %q, want default", got)
		}
	})

	t.Run("SaveCreatesParentDirectory", func(t *testing.T) {
		s := NewStore(filepath.Join(t.TempDir(), "nested", "dir", "prompt.txt"), zap.NewNop())
		if err := s.Save("hi"); err != nil {
			t.Fatal(err)
		}
		if got := s.Load(); got != "hi" {
			t.Errorf("Load() = %q", got)
		}
	})
}
