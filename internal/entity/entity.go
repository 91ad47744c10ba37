package entity

import (
	"fmt"
	"strings"
	"time"
)

// SensitiveEntity is a single masked value: the original text, the
// substitution label shown to the external AI, and an identifier that is
// stable within one masking session.
type SensitiveEntity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Placeholder string `json:"placeholder"`
	Category    string `json:"category,omitempty"`
}

// Span is a detected sensitive region in the original text, half-open
// [Start,End) byte offsets. Value must equal the substring at those offsets.
type Span struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Value    string `json:"value"`
	Category string `json:"category,omitempty"`
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether s fully contains other.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Intersects reports whether the two spans share at least one byte.
func (s Span) Intersects(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// MaskingResult is the output of masking one text field.
type MaskingResult struct {
	MaskedText     string            `json:"maskedText"`
	EntitiesFound  []SensitiveEntity `json:"entitiesFound"`
	FromCache      bool              `json:"fromCache,omitempty"`
	ProcessingTime time.Duration     `json:"processingTime,omitempty"`
}

// placeholderForbidden lists characters that would break the token grammar
// if they appeared inside a placeholder label.
const placeholderForbidden = `{},'"`

// ValidateName checks the entity name invariant.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("entity name must not be empty")
	}
	return nil
}

// ValidatePlaceholder checks the placeholder label invariant: non-empty and
// free of token-grammar characters.
func ValidatePlaceholder(placeholder string) error {
	if strings.TrimSpace(placeholder) == "" {
		return fmt.Errorf("placeholder must not be empty")
	}
	if i := strings.IndexAny(placeholder, placeholderForbidden); i >= 0 {
		return fmt.Errorf("placeholder contains forbidden character %q", placeholder[i])
	}
	return nil
}
