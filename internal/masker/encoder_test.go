package masker

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/safedialog/safedialog/internal/dictionary"
	"github.com/safedialog/safedialog/internal/entity"
)

func span(text, value string, category string) entity.Span {
	start := strings.Index(text, value)
	return entity.Span{Start: start, End: start + len(value), Value: value, Category: category}
}

func TestEncode(t *testing.T) {
	empty := dictionary.NewIndex(nil)

	t.Run("DetailedTokens", func(t *testing.T) {
		text := "Иван Петров, email ivan@example.com"
		result := Encode(text, []entity.Span{
			span(text, "Иван Петров", "person"),
			span(text, "ivan@example.com", "email"),
		}, empty)

		want := "{ID=1, TXT='Иван Петров'}, email {ID=2, TXT='ivan@example.com'}"
		if result.MaskedText != want {
			t.Fatalf("masked text = %q, want %q", result.MaskedText, want)
		}
		if len(result.EntitiesFound) != 2 {
			t.Fatalf("entities = %d, want 2", len(result.EntitiesFound))
		}
		if result.EntitiesFound[0].ID != "1" || result.EntitiesFound[0].Name != "Иван Петров" {
			t.Errorf("first entity = %+v", result.EntitiesFound[0])
		}
		if result.EntitiesFound[1].ID != "2" || result.EntitiesFound[1].Name != "ivan@example.com" {
			t.Errorf("second entity = %+v", result.EntitiesFound[1])
		}
	})

	t.Run("EmptyText", func(t *testing.T) {
		result := Encode("", nil, empty)
		if result.MaskedText != "" {
			t.Errorf("masked text = %q, want empty", result.MaskedText)
		}
		if result.EntitiesFound == nil || len(result.EntitiesFound) != 0 {
			t.Errorf("entities = %v, want empty non-nil slice", result.EntitiesFound)
		}
	})

	t.Run("NoSpans", func(t *testing.T) {
		result := Encode("nothing secret here", nil, empty)
		if result.MaskedText != "nothing secret here" {
			t.Errorf("masked text = %q", result.MaskedText)
		}
		if len(result.EntitiesFound) != 0 {
			t.Errorf("entities = %v, want none", result.EntitiesFound)
		}
	})

	t.Run("OverlapLongestWins", func(t *testing.T) {
		text := "call Иван Петров today"
		long := span(text, "Иван Петров", "person")
		short := span(text, "Иван", "person")
		result := Encode(text, []entity.Span{short, long}, empty)

		want := "call {ID=1, TXT='Иван Петров'} today"
		if result.MaskedText != want {
			t.Fatalf("masked text = %q, want %q", result.MaskedText, want)
		}
		if len(result.EntitiesFound) != 1 {
			t.Errorf("entities = %d, want 1", len(result.EntitiesFound))
		}
	})

	t.Run("ByValueIdentity", func(t *testing.T) {
		text := "Иван wrote to Иван"
		first := entity.Span{Start: 0, End: len("Иван"), Value: "Иван", Category: "person"}
		secondStart := strings.LastIndex(text, "Иван")
		second := entity.Span{Start: secondStart, End: secondStart + len("Иван"), Value: "Иван", Category: "generic"}
		result := Encode(text, []entity.Span{first, second}, empty)

		want := "{ID=1, TXT='Иван'} wrote to {ID=1, TXT='Иван'}"
		if result.MaskedText != want {
			t.Fatalf("masked text = %q, want %q", result.MaskedText, want)
		}
		if len(result.EntitiesFound) != 1 {
			t.Errorf("entities = %d, want 1", len(result.EntitiesFound))
		}
	})

	t.Run("MalformedSpansDropped", func(t *testing.T) {
		text := "short"
		result := Encode(text, []entity.Span{
			{Start: -1, End: 3, Value: "sho"},
			{Start: 0, End: 99, Value: "short..."},
			{Start: 0, End: 2, Value: "xx"}, // value mismatch
			{Start: 3, End: 3, Value: ""},
		}, empty)
		if result.MaskedText != text {
			t.Errorf("masked text = %q, want unchanged", result.MaskedText)
		}
	})

	t.Run("DictionaryOverride", func(t *testing.T) {
		store := dictionary.NewMemoryStore(zap.NewNop())
		pinned, err := store.Add(context.Background(), "ООО Ромашка", "Компания 1", "company")
		if err != nil {
			t.Fatal(err)
		}
		dict, err := store.Snapshot(context.Background())
		if err != nil {
			t.Fatal(err)
		}

		text := "контракт с ООО Ромашка и Иван"
		result := Encode(text, []entity.Span{
			span(text, "ООО Ромашка", "generic"),
			span(text, "Иван", "person"),
		}, dict)

		want := "контракт с {ID=" + pinned.ID + ", TXT='ООО Ромашка'} и {ID=1, TXT='Иван'}"
		if result.MaskedText != want {
			t.Fatalf("masked text = %q, want %q", result.MaskedText, want)
		}
		if result.EntitiesFound[0].ID != pinned.ID ||
			result.EntitiesFound[0].Placeholder != "Компания 1" ||
			result.EntitiesFound[0].Category != "company" {
			t.Errorf("dictionary entity not pinned: %+v", result.EntitiesFound[0])
		}
		if result.EntitiesFound[1].ID != "1" {
			t.Errorf("fresh id = %q, want 1", result.EntitiesFound[1].ID)
		}
	})
}

func TestPreMask(t *testing.T) {
	store := dictionary.NewMemoryStore(zap.NewNop())
	if _, err := store.Add(context.Background(), "Иван Петров", "ПерсонаX", "person"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Add(context.Background(), "Иван", "ПерсонаY", "person"); err != nil {
		t.Fatal(err)
	}
	dict, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	text := "Иван Петров and Иван"
	result := PreMask(text, dict)
	if len(result.EntitiesFound) != 2 {
		t.Fatalf("entities = %d, want 2", len(result.EntitiesFound))
	}
	// The longer name claims its region first; the standalone short name is
	// still tokenized on its own.
	if !strings.Contains(result.MaskedText, "TXT='Иван Петров'") {
		t.Errorf("long name not tokenized: %q", result.MaskedText)
	}
	if !strings.HasSuffix(result.MaskedText, "TXT='Иван'}") {
		t.Errorf("short name not tokenized: %q", result.MaskedText)
	}
}
