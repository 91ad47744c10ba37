package masker

import (
	"strings"

	"go.uber.org/zap"

	"github.com/safedialog/safedialog/internal/entity"
	"github.com/safedialog/safedialog/internal/token"
)

// Demask restores the original values behind every placeholder token in
// text. Detailed tokens resolve through the session mapping by id; when the
// id is unknown the embedded TXT value is used as the fallback, so detailed
// tokens always demask even without a mapping. Simple tokens resolve through
// the mapping's label index and are left verbatim when unresolved.
//
// Replacement is a single left-to-right pass over the parsed token spans.
// Substituted values are never re-scanned, so an original value that happens
// to look like a token is restored literally and stays inert.
func Demask(text string, m *entity.Mapping, logger *zap.Logger) string {
	tokens := token.Parse(text)
	if len(tokens) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, t := range tokens {
		b.WriteString(text[prev:t.Start])
		b.WriteString(resolve(t, m, logger))
		prev = t.End
	}
	b.WriteString(text[prev:])
	return b.String()
}

func resolve(t token.Token, m *entity.Mapping, logger *zap.Logger) string {
	switch t.Kind {
	case token.KindDetailed:
		if m != nil {
			if e, ok := m.ByID(t.ID); ok {
				return e.Name
			}
		}
		return t.Value
	case token.KindSimple:
		if m != nil {
			if e, ok := m.ByLabel(t.Label); ok {
				return e.Name
			}
		}
		if logger != nil {
			logger.Warn("unresolved simple token left in place",
				zap.String("label", t.Label))
		}
		return "{" + t.Label + "}"
	}
	return ""
}
