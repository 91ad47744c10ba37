package masker

import (
	"testing"

	"go.uber.org/zap"

	"github.com/safedialog/safedialog/internal/entity"
	"github.com/safedialog/safedialog/internal/token"
)

func TestDemask(t *testing.T) {
	logger := zap.NewNop()

	t.Run("RoundTrip", func(t *testing.T) {
		masked := "{ID=1, TXT='Иван Петров'}, email {ID=2, TXT='ivan@example.com'}"
		m := entity.NewMapping(
			entity.SensitiveEntity{ID: "1", Name: "Иван Петров", Placeholder: "ПерсонаX"},
			entity.SensitiveEntity{ID: "2", Name: "ivan@example.com", Placeholder: "Email"},
		)
		got := Demask(masked, m, logger)
		want := "Иван Петров, email ivan@example.com"
		if got != want {
			t.Errorf("demasked = %q, want %q", got, want)
		}
	})

	t.Run("UnknownIDFallsBackToEmbeddedValue", func(t *testing.T) {
		masked := "call {ID=42, TXT='Мария'} now"
		got := Demask(masked, entity.NewMapping(), logger)
		if got != "call Мария now" {
			t.Errorf("demasked = %q", got)
		}
	})

	t.Run("NilMapping", func(t *testing.T) {
		masked := "call {ID=42, TXT='Мария'} now"
		if got := Demask(masked, nil, logger); got != "call Мария now" {
			t.Errorf("demasked = %q", got)
		}
	})

	t.Run("SimpleTokenResolvesByLabel", func(t *testing.T) {
		m := entity.NewMapping(
			entity.SensitiveEntity{ID: "1", Name: "acme-widget", Placeholder: "PRODUCT_1"},
		)
		if got := Demask("buy {PRODUCT_1} today", m, logger); got != "buy acme-widget today" {
			t.Errorf("demasked = %q", got)
		}
	})

	t.Run("UnresolvedSimpleTokenLeftVerbatim", func(t *testing.T) {
		in := "buy {PRODUCT_9} today"
		if got := Demask(in, entity.NewMapping(), logger); got != in {
			t.Errorf("demasked = %q, want unchanged", got)
		}
	})

	t.Run("SubstitutionsAreNotRescanned", func(t *testing.T) {
		// The restored value itself looks like a token. It must come out
		// literally, not get resolved a second time.
		m := entity.NewMapping(
			entity.SensitiveEntity{ID: "1", Name: "{ID=2, TXT='inner'}", Placeholder: "Blob"},
			entity.SensitiveEntity{ID: "2", Name: "MUST NOT APPEAR", Placeholder: "Other"},
		)
		got := Demask("x {ID=1, TXT='raw'} y", m, logger)
		if got != "x {ID=2, TXT='inner'} y" {
			t.Errorf("demasked = %q", got)
		}
	})

	t.Run("BothQuoteValueExactByID", func(t *testing.T) {
		// A value carrying both quote kinds is lossy in the embedded TXT,
		// so the id lookup must restore the exact original.
		e := entity.SensitiveEntity{ID: "3", Name: `O'Brien "Ben"`, Placeholder: "ПерсонаX"}
		masked := "hi " + token.Render(e, token.ModeBlocks)
		if got := Demask(masked, entity.NewMapping(e), logger); got != `hi O'Brien "Ben"` {
			t.Errorf("demasked = %q", got)
		}
		if got := Demask(masked, nil, logger); got != "hi O'Brien 'Ben'" {
			t.Errorf("fallback demask = %q", got)
		}
	})

	t.Run("NoTokens", func(t *testing.T) {
		if got := Demask("plain text", entity.NewMapping(), logger); got != "plain text" {
			t.Errorf("demasked = %q", got)
		}
	})
}
