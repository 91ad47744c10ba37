package token

import (
	"strings"
	"testing"

	"github.com/safedialog/safedialog/internal/entity"
)

func TestParse(t *testing.T) {
	t.Run("DetailedTokens", func(t *testing.T) {
		text := "{ID=1, TXT='Иван Петров'}, email {ID=2, TXT='ivan@example.com'}"
		tokens := Parse(text)
		if len(tokens) != 2 {
			t.Fatalf("Expected 2 tokens, got %d", len(tokens))
		}
		if tokens[0].Kind != KindDetailed || tokens[0].ID != "1" || tokens[0].Value != "Иван Петров" {
			t.Errorf("Unexpected first token: %+v", tokens[0])
		}
		if tokens[1].ID != "2" || tokens[1].Value != "ivan@example.com" {
			t.Errorf("Unexpected second token: %+v", tokens[1])
		}
		if text[tokens[0].Start:tokens[0].End] != "{ID=1, TXT='Иван Петров'}" {
			t.Errorf("Token span does not cover the full token: %q", text[tokens[0].Start:tokens[0].End])
		}
	})

	t.Run("DoubleQuotedValue", func(t *testing.T) {
		tokens := Parse(`before {ID=42, TXT="it's here"} after`)
		if len(tokens) != 1 {
			t.Fatalf("Expected 1 token, got %d", len(tokens))
		}
		if tokens[0].Value != "it's here" {
			t.Errorf("Expected value with embedded apostrophe, got %q", tokens[0].Value)
		}
	})

	t.Run("QuotedID", func(t *testing.T) {
		tokens := Parse(`{ID="abc-def", TXT='x'}`)
		if len(tokens) != 1 || tokens[0].ID != "abc-def" {
			t.Fatalf("Expected quoted id to parse, got %+v", tokens)
		}
	})

	t.Run("SimpleTokens", func(t *testing.T) {
		tokens := Parse("call {PHONE_1} or write {EMAIL_2}")
		if len(tokens) != 2 {
			t.Fatalf("Expected 2 tokens, got %d", len(tokens))
		}
		if tokens[0].Kind != KindSimple || tokens[0].Label != "PHONE_1" {
			t.Errorf("Unexpected first token: %+v", tokens[0])
		}
		if tokens[1].Label != "EMAIL_2" {
			t.Errorf("Unexpected second token: %+v", tokens[1])
		}
	})

	t.Run("SimpleInsideDetailedIgnored", func(t *testing.T) {
		tokens := Parse("{ID=7, TXT='{CODE_9}'} and {REAL_1}")
		if len(tokens) != 2 {
			t.Fatalf("Expected 2 tokens, got %d", len(tokens))
		}
		if tokens[0].Kind != KindDetailed || tokens[0].Value != "{CODE_9}" {
			t.Errorf("Detailed token should own the embedded simple pattern: %+v", tokens[0])
		}
		if tokens[1].Kind != KindSimple || tokens[1].Label != "REAL_1" {
			t.Errorf("Unexpected second token: %+v", tokens[1])
		}
	})

	t.Run("NonOverlap", func(t *testing.T) {
		text := "{ID=1, TXT='a'}{EMAIL_1}{ID=2, TXT='{X_1}'} tail {NAME_3}"
		tokens := Parse(text)
		for i := 1; i < len(tokens); i++ {
			if tokens[i].Start < tokens[i-1].End {
				t.Errorf("Tokens %d and %d intersect: %+v %+v", i-1, i, tokens[i-1], tokens[i])
			}
		}
	})

	t.Run("LowercaseBraceIsNotAToken", func(t *testing.T) {
		if tokens := Parse("a {lowercase} b {Mixed_1} c"); len(tokens) != 0 {
			t.Errorf("Expected no tokens, got %+v", tokens)
		}
	})

	t.Run("EmptyText", func(t *testing.T) {
		if tokens := Parse(""); tokens != nil {
			t.Errorf("Expected nil, got %+v", tokens)
		}
	})
}

func TestRender(t *testing.T) {
	e := entity.SensitiveEntity{ID: "1", Name: "Иван Петров", Placeholder: "ПерсонаX"}

	t.Run("Blocks", func(t *testing.T) {
		got := Render(e, ModeBlocks)
		if got != "{ID=1, TXT='Иван Петров'}" {
			t.Errorf("Unexpected blocks form: %q", got)
		}
	})

	t.Run("BlocksRoundTripsThroughParse", func(t *testing.T) {
		tokens := Parse(Render(e, ModeBlocks))
		if len(tokens) != 1 || tokens[0].ID != e.ID || tokens[0].Value != e.Name {
			t.Errorf("Rendered token did not parse back: %+v", tokens)
		}
	})

	t.Run("Placeholders", func(t *testing.T) {
		if got := Render(e, ModePlaceholders); got != "ПерсонаX" {
			t.Errorf("Expected label only, got %q", got)
		}
	})

	t.Run("ValueWithApostropheUsesDoubleQuotes", func(t *testing.T) {
		got := Render(entity.SensitiveEntity{ID: "2", Name: "O'Brien"}, ModeBlocks)
		if got != `{ID=2, TXT="O'Brien"}` {
			t.Errorf("Unexpected quoting: %q", got)
		}
		tokens := Parse(got)
		if len(tokens) != 1 || tokens[0].Value != "O'Brien" {
			t.Errorf("Quoted value did not parse back: %+v", tokens)
		}
	})

	t.Run("ValueWithBothQuoteKindsRewritesDoubleQuotes", func(t *testing.T) {
		got := Render(entity.SensitiveEntity{ID: "3", Name: `O'Brien "Ben"`}, ModeBlocks)
		if got != `{ID=3, TXT="O'Brien 'Ben'"}` {
			t.Errorf("Unexpected quoting: %q", got)
		}
		// The embedded value is deliberately lossy for this corner; only the
		// session mapping restores it exactly by id.
		tokens := Parse(got)
		if len(tokens) != 1 || tokens[0].ID != "3" || tokens[0].Value != "O'Brien 'Ben'" {
			t.Errorf("Quoted value did not parse back: %+v", tokens)
		}
	})
}

func TestProject(t *testing.T) {
	m := entity.NewMapping(entity.SensitiveEntity{ID: "1", Name: "Иван Петров", Placeholder: "ПерсонаX"})
	text := "Привет, {ID=1, TXT='Иван Петров'}! Код {CODE_1} не трогаем."

	got := Project(text, m)
	if !strings.Contains(got, "ПерсонаX") {
		t.Errorf("Expected placeholder label in projection, got %q", got)
	}
	if !strings.Contains(got, "{CODE_1}") {
		t.Errorf("Simple tokens must survive projection, got %q", got)
	}

	t.Run("UnknownIDFallsBackToValue", func(t *testing.T) {
		got := Project("{ID=99, TXT='что-то'}", m)
		if got != "что-то" {
			t.Errorf("Expected embedded value, got %q", got)
		}
	})
}
