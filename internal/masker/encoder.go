// Package masker is the masking/demasking engine: it turns detected
// sensitive spans into reversible placeholder tokens, orchestrates detection
// per text field, and reconstructs original text from masked output.
package masker

import (
	"sort"
	"strconv"
	"strings"

	"github.com/safedialog/safedialog/internal/detector"
	"github.com/safedialog/safedialog/internal/dictionary"
	"github.com/safedialog/safedialog/internal/entity"
	"github.com/safedialog/safedialog/internal/token"
)

// Encode replaces every surviving detected span in text with its detailed
// token form and returns the masked text plus the entities in
// first-occurrence order. Identifier allocation is scoped to this call:
// dictionary hits reuse their dictionary id, everything else gets a fresh
// monotonically increasing numeric id. The round-trip invariant holds:
// substituting each token with its entity's name reproduces text exactly.
func Encode(text string, spans []entity.Span, dict *dictionary.Index) entity.MaskingResult {
	if text == "" {
		return entity.MaskingResult{EntitiesFound: []entity.SensitiveEntity{}}
	}

	accepted := resolveOverlaps(text, spans)
	if len(accepted) == 0 {
		return entity.MaskingResult{MaskedText: text, EntitiesFound: []entity.SensitiveEntity{}}
	}

	// By-value identity: the same original substring always maps to the
	// same entity within one call, whatever categories the detector
	// attached to individual occurrences.
	byValue := make(map[string]entity.SensitiveEntity)
	var entities []entity.SensitiveEntity
	nextID := 0

	resolve := func(s entity.Span) entity.SensitiveEntity {
		if e, seen := byValue[s.Value]; seen {
			return e
		}
		var e entity.SensitiveEntity
		if d, ok := dict.Lookup(s.Value); ok {
			// Dictionary precedence: the pinned placeholder, category and
			// id win over whatever the detector reported.
			e = d.Sensitive()
		} else {
			nextID++
			e = entity.SensitiveEntity{
				ID:          strconv.Itoa(nextID),
				Name:        s.Value,
				Placeholder: detector.PlaceholderFor(s.Category),
				Category:    s.Category,
			}
		}
		byValue[s.Value] = e
		entities = append(entities, e)
		return e
	}

	// Single left-to-right pass against original offsets; replacements
	// never shift spans not yet processed.
	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, s := range accepted {
		e := resolve(s)
		b.WriteString(text[prev:s.Start])
		b.WriteString(token.Render(e, token.ModeBlocks))
		prev = s.End
	}
	b.WriteString(text[prev:])

	if entities == nil {
		entities = []entity.SensitiveEntity{}
	}
	return entity.MaskingResult{MaskedText: b.String(), EntitiesFound: entities}
}

// resolveOverlaps drops malformed spans and settles overlap conflicts:
// the longer span wins and shorter intersecting spans are discarded.
// Containment is tested by integer range comparison on [start,end)
// intervals, never by substring search. The result is sorted by start.
func resolveOverlaps(text string, spans []entity.Span) []entity.Span {
	valid := spans[:0:0]
	for _, s := range spans {
		if s.Value == "" || s.Start < 0 || s.End > len(text) || s.Start >= s.End {
			continue
		}
		if text[s.Start:s.End] != s.Value {
			continue
		}
		valid = append(valid, s)
	}

	// Longest first so a containing span is always seen before anything
	// it contains; ties broken by start offset for determinism.
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Len() == valid[j].Len() {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].Len() > valid[j].Len()
	})

	var accepted []entity.Span
	for _, s := range valid {
		conflict := false
		for _, a := range accepted {
			if s.Intersects(a) {
				conflict = true
				break
			}
		}
		if !conflict {
			accepted = append(accepted, s)
		}
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Start < accepted[j].Start })
	return accepted
}

// PreMask tokenizes occurrences of known dictionary names in text even when
// no detector ran, longest name first. It is the catalog-only masking path.
func PreMask(text string, dict *dictionary.Index) entity.MaskingResult {
	names := append([]string(nil), dict.Names()...)
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	var spans []entity.Span
	for _, name := range names {
		for from := 0; ; {
			i := strings.Index(text[from:], name)
			if i < 0 {
				break
			}
			start := from + i
			spans = append(spans, entity.Span{Start: start, End: start + len(name), Value: name})
			from = start + len(name)
		}
	}
	return Encode(text, spans, dict)
}
