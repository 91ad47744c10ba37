package detector

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestRuleDetector(t *testing.T) {
	ctx := context.Background()

	t.Run("EmailAndPhone", func(t *testing.T) {
		d, err := NewRuleDetector([]string{"all"}, zap.NewNop())
		if err != nil {
			t.Fatalf("NewRuleDetector failed: %v", err)
		}

		text := "Пишите на ivan@example.com или звоните +7 (912) 345-67-89."
		result, err := d.Detect(ctx, text, "")
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}

		categories := make(map[string]string)
		for _, s := range result.Spans {
			if text[s.Start:s.End] != s.Value {
				t.Errorf("Span offsets do not match value: %+v", s)
			}
			categories[s.Value] = s.Category
		}
		if categories["ivan@example.com"] != CategoryEmail {
			t.Errorf("Expected email span, got %+v", result.Spans)
		}
		foundPhone := false
		for v, c := range categories {
			if c == CategoryPhone && v != "" {
				foundPhone = true
			}
		}
		if !foundPhone {
			t.Errorf("Expected phone span, got %+v", result.Spans)
		}
	})

	t.Run("ShortNumberIsNotAPhone", func(t *testing.T) {
		d, _ := NewRuleDetector([]string{"phone"}, zap.NewNop())
		result, _ := d.Detect(ctx, "комната 1234-5678", "")
		if len(result.Spans) != 0 {
			t.Errorf("8-digit match should fail the digit-count check: %+v", result.Spans)
		}
	})

	t.Run("SocialLink", func(t *testing.T) {
		d, _ := NewRuleDetector([]string{"social_link"}, zap.NewNop())
		result, _ := d.Detect(ctx, "профиль https://t.me/ivan и сайт https://example.com/page", "")
		if len(result.Spans) != 1 || result.Spans[0].Value != "https://t.me/ivan" {
			t.Errorf("Only the social host should match, got %+v", result.Spans)
		}
	})

	t.Run("UnknownRuleRejected", func(t *testing.T) {
		if _, err := NewRuleDetector([]string{"dna"}, zap.NewNop()); err == nil {
			t.Error("Unknown rule name should fail")
		}
	})

	t.Run("RepeatedValueYieldsAllOccurrences", func(t *testing.T) {
		d, _ := NewRuleDetector([]string{"email"}, zap.NewNop())
		text := "a@b.io wrote to a@b.io"
		result, _ := d.Detect(ctx, text, "")
		if len(result.Spans) != 2 {
			t.Fatalf("Expected 2 occurrences, got %+v", result.Spans)
		}
		if result.Spans[0].Start >= result.Spans[1].Start {
			t.Error("Spans should be ordered by start offset")
		}
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		value string
		want  string
	}{
		{"ivan@example.com", CategoryEmail},
		{"+7 (912) 345-67-89", CategoryPhone},
		{"https://t.me/ivan", CategorySocial},
		{"ООО Ромашка", CategoryCompany},
		{"Продукт Альфа", CategoryProduct},
		{"г-н Петров", CategoryPerson},
		{"что-то непонятное", CategoryGeneric},
		{"", CategoryGeneric},
	}
	for _, tc := range cases {
		if got := Classify(tc.value); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestExtractFragments(t *testing.T) {
	t.Run("PlainArray", func(t *testing.T) {
		got, err := extractFragments(`["Иван Иванов", "ООО Ромашка"]`)
		if err != nil || len(got) != 2 {
			t.Fatalf("Unexpected result: %v, %v", got, err)
		}
	})

	t.Run("ArrayInsideProse", func(t *testing.T) {
		got, err := extractFragments("Вот результат:\n```json\n[\"Иван\"]\n```")
		if err != nil || len(got) != 1 || got[0] != "Иван" {
			t.Fatalf("Unexpected result: %v, %v", got, err)
		}
	})

	t.Run("NoArray", func(t *testing.T) {
		if _, err := extractFragments("данных нет"); err == nil {
			t.Error("Expected error for answer without an array")
		}
	})

	t.Run("NonStringItemsDropped", func(t *testing.T) {
		got, err := extractFragments(`["a", 5, null, "b"]`)
		if err != nil || len(got) != 2 {
			t.Fatalf("Unexpected result: %v, %v", got, err)
		}
	})
}
