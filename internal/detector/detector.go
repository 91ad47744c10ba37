// Package detector defines the external entity-detector contract and the two
// bundled implementations: an Ollama-backed AI detector and a regex rule
// detector. The core only requires that a detector either return raw spans
// the encoder can consume, or ready-made masked text with its entity list.
package detector

import (
	"context"
	"sort"
	"strings"

	"github.com/safedialog/safedialog/internal/entity"
)

// Result is the detector output: either raw spans over the analyzed text, or
// pre-masked text plus the entities it contains.
type Result struct {
	Spans      []entity.Span
	MaskedText string
	Entities   []entity.SensitiveEntity
}

// PreMasked reports whether the detector already produced masked text, in
// which case the result is passed through unchanged.
func (r Result) PreMasked() bool { return r.MaskedText != "" }

// Detector finds sensitive spans in free text. Implementations must respect
// ctx cancellation; AI-backed calls can run for minutes.
type Detector interface {
	Detect(ctx context.Context, text, guidance string) (Result, error)
}

// spansForValues locates every occurrence of each candidate value in text
// and returns the spans sorted by start offset. Longer values are located
// first so a value that is a substring of another does not steal its
// occurrences; overlap resolution proper is the encoder's job.
func spansForValues(text string, values []string, categorize func(string) string) []entity.Span {
	unique := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		unique = append(unique, v)
	}
	sort.Slice(unique, func(i, j int) bool { return len(unique[i]) > len(unique[j]) })

	var spans []entity.Span
	for _, v := range unique {
		category := ""
		if categorize != nil {
			category = categorize(v)
		}
		for from := 0; ; {
			i := strings.Index(text[from:], v)
			if i < 0 {
				break
			}
			start := from + i
			spans = append(spans, entity.Span{
				Start:    start,
				End:      start + len(v),
				Value:    v,
				Category: category,
			})
			from = start + len(v)
		}
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start == spans[j].Start {
			return spans[i].Len() > spans[j].Len()
		}
		return spans[i].Start < spans[j].Start
	})
	return spans
}
