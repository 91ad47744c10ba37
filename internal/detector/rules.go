package detector

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

// Rule is a single pattern-based detection rule.
type Rule struct {
	Name     string
	Pattern  *regexp.Regexp
	Category string
	// Validate optionally rejects a raw regex match; phone-shaped matches
	// need a digit-count check the pattern alone cannot express.
	Validate func(match string) bool
}

// RuleDetector finds structured sensitive values (emails, phones, social
// links) with regular expressions. It needs no network and serves as the
// detector when the AI backend is disabled or unreachable.
type RuleDetector struct {
	rules   []Rule
	enabled map[string]bool
	logger  *zap.Logger
}

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "email",
			Pattern:  regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
			Category: CategoryEmail,
		},
		{
			Name:     "phone",
			Pattern:  regexp.MustCompile(`[+\d][+\d().\-\s]{7,}\d`),
			Category: CategoryPhone,
			Validate: func(match string) bool {
				digits := nonDigit.ReplaceAllString(match, "")
				return len(digits) >= 9 && len(digits) <= 15
			},
		},
		{
			Name:     "social_link",
			Pattern:  regexp.MustCompile(`https?://[^\s]+`),
			Category: CategorySocial,
			Validate: func(match string) bool {
				return socialHosts.MatchString(match)
			},
		},
	}
}

// NewRuleDetector creates a rule detector with the given rules enabled.
// "all" enables every built-in rule.
func NewRuleDetector(enabled []string, logger *zap.Logger) (*RuleDetector, error) {
	d := &RuleDetector{
		rules:   DefaultRules(),
		enabled: make(map[string]bool),
		logger:  logger,
	}

	for _, rule := range d.rules {
		d.enabled[rule.Name] = false
	}
	for _, name := range enabled {
		if name == "all" {
			for _, rule := range d.rules {
				d.enabled[rule.Name] = true
			}
			continue
		}
		if _, known := d.enabled[name]; !known {
			return nil, fmt.Errorf("unknown detection rule: %s", name)
		}
		d.enabled[name] = true
	}

	logger.Info("Rule detector initialized",
		zap.Int("total_rules", len(d.rules)),
		zap.Int("enabled_rules", d.countEnabled()))

	return d, nil
}

// Detect runs every enabled rule over the text and returns raw spans. The
// guidance prompt is ignored; rules carry no tunable behavior.
func (d *RuleDetector) Detect(ctx context.Context, text, guidance string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var values []string
	categories := make(map[string]string)

	for _, rule := range d.rules {
		if !d.enabled[rule.Name] {
			continue
		}
		for _, match := range rule.Pattern.FindAllString(text, -1) {
			if rule.Validate != nil && !rule.Validate(match) {
				continue
			}
			if _, dup := categories[match]; dup {
				continue
			}
			categories[match] = rule.Category
			values = append(values, match)
		}
	}

	spans := spansForValues(text, values, func(v string) string { return categories[v] })

	if len(spans) > 0 {
		d.logger.Debug("Sensitive values detected by rules",
			zap.Int("span_count", len(spans)))
	}

	return Result{Spans: spans}, nil
}

func (d *RuleDetector) countEnabled() int {
	count := 0
	for _, on := range d.enabled {
		if on {
			count++
		}
	}
	return count
}
