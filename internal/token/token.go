// Package token implements the placeholder token grammar: the wire format
// embedded in masked text. Two shapes exist. Detailed tokens,
// {ID=<id>, TXT='<original>'}, are self-describing and fully reversible.
// Simple tokens, {CATEGORY_N}, are display-only labels with no embedded
// fallback value.
package token

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/safedialog/safedialog/internal/entity"
)

// Kind discriminates the two token shapes.
type Kind int

const (
	KindDetailed Kind = iota
	KindSimple
)

// Token is one parsed placeholder occurrence. Start/End are byte offsets
// into the parsed text, half-open.
type Token struct {
	Start int
	End   int
	Kind  Kind
	ID    string // detailed only
	Value string // detailed only: the embedded TXT fallback
	Label string // simple: bracket text; detailed: same as Value
}

// Mode selects the rendered form of a masked entity.
type Mode int

const (
	// ModeBlocks renders the full detailed form. Text sent onward to the
	// external AI always uses this form so it stays losslessly reversible.
	ModeBlocks Mode = iota
	// ModePlaceholders renders only the human label, a display projection
	// that must never be fed back into demasking as authoritative input.
	ModePlaceholders
)

var (
	// ID is bare (no comma or closing brace) or quoted; TXT is quoted with
	// either quote character.
	detailedPattern = regexp.MustCompile(
		`\{\s*ID\s*=\s*(?:'([^']*)'|"([^"]*)"|([^,}]+?))\s*,\s*TXT\s*=\s*(?:'([^']*)'|"([^"]*)")\s*\}`)
	simplePattern = regexp.MustCompile(`\{([A-Z][A-Z0-9_]*)\}`)
)

// Parse returns every placeholder token in text, ordered by start offset.
// Detailed tokens are matched first and their spans are excluded from simple
// matching, so a simple-looking pattern inside a detailed token's value is
// never reported as a separate token. Returned spans never intersect.
func Parse(text string) []Token {
	if text == "" {
		return nil
	}

	var tokens []Token

	for _, m := range detailedPattern.FindAllStringSubmatchIndex(text, -1) {
		tokens = append(tokens, Token{
			Start: m[0],
			End:   m[1],
			Kind:  KindDetailed,
			ID:    firstGroup(text, m, 1, 2, 3),
			Value: firstGroup(text, m, 4, 5),
			Label: firstGroup(text, m, 4, 5),
		})
	}

	detailed := make([]Token, len(tokens))
	copy(detailed, tokens)

	for _, m := range simplePattern.FindAllStringSubmatchIndex(text, -1) {
		candidate := entity.Span{Start: m[0], End: m[1]}
		if intersectsAny(candidate, detailed) {
			continue
		}
		tokens = append(tokens, Token{
			Start: m[0],
			End:   m[1],
			Kind:  KindSimple,
			Label: text[m[2]:m[3]],
		})
	}

	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Start < tokens[j].Start })
	return tokens
}

// firstGroup returns the first non-empty capture group among the given
// indices of a FindAllStringSubmatchIndex match.
func firstGroup(text string, m []int, groups ...int) string {
	for _, g := range groups {
		if m[2*g] >= 0 {
			return text[m[2*g]:m[2*g+1]]
		}
	}
	return ""
}

func intersectsAny(s entity.Span, tokens []Token) bool {
	for _, t := range tokens {
		if s.Intersects(entity.Span{Start: t.Start, End: t.End}) {
			return true
		}
	}
	return false
}

// Render produces the textual form of a masked entity. ModeBlocks embeds the
// entity's original value as the TXT fallback; ModePlaceholders emits only
// the label. The grammar has no escape sequence, so a value containing both
// quote characters gets its double quotes rewritten to single quotes in the
// embedded TXT; mapping-less demasking is lossy for that value, while
// demasking through the session mapping restores it exactly by id.
func Render(e entity.SensitiveEntity, mode Mode) string {
	if mode == ModePlaceholders {
		return e.Placeholder
	}
	value := e.Name
	quote := "'"
	if strings.Contains(value, "'") {
		quote = `"`
		// Values carrying both quote characters cannot be represented
		// verbatim; the session mapping still restores them exactly by id.
		value = strings.ReplaceAll(value, `"`, "'")
	}
	return fmt.Sprintf("{ID=%s, TXT=%s%s%s}", e.ID, quote, value, quote)
}

// Project replaces every detailed token in text with its entity's placeholder
// label, resolved through the mapping when possible. Tokens whose id is not
// in the mapping keep their embedded value as the label. Simple tokens are
// left unchanged. The output is a display projection only.
func Project(text string, m *entity.Mapping) string {
	tokens := Parse(text)
	if len(tokens) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, t := range tokens {
		b.WriteString(text[prev:t.Start])
		switch {
		case t.Kind == KindSimple:
			b.WriteString(text[t.Start:t.End])
		case m != nil:
			if e, ok := m.ByID(t.ID); ok {
				b.WriteString(e.Placeholder)
			} else {
				b.WriteString(t.Value)
			}
		default:
			b.WriteString(t.Value)
		}
		prev = t.End
	}
	b.WriteString(text[prev:])
	return b.String()
}
