package detector

import (
	"regexp"
	"strings"
)

// Categories assigned by Classify. They are a display-only classification;
// masking and demasking correctness never depends on them.
const (
	CategoryEmail   = "email"
	CategoryPhone   = "phone"
	CategorySocial  = "social"
	CategoryCompany = "company"
	CategoryProduct = "product"
	CategoryPerson  = "person"
	CategoryGeneric = "generic"
)

var (
	emailExact  = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	phoneShape  = regexp.MustCompile(`^[+\d().\-\s]+$`)
	nonDigit    = regexp.MustCompile(`\D`)
	socialHosts = regexp.MustCompile(`\b(?:facebook\.com|fb\.com|instagram\.com|ig\.me|t\.me|telegram\.me|vk\.com|x\.com|twitter\.com|linkedin\.com|ok\.ru|youtube\.com|github\.com)/`)

	companyHints = []string{"llc", "inc", "ooo", "ооо", "company", "компания"}
	productHints = []string{"product", "продукт", "model", "модель"}
	personHints  = []string{"mr ", "ms ", "mrs ", "д-р", "г-н", "г-жа"}
)

// Classify guesses a category for a sensitive value using cheap shape
// heuristics. The result only drives labels and UI color-coding.
func Classify(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return CategoryGeneric
	}
	lower := strings.ToLower(v)

	if emailExact.MatchString(v) {
		return CategoryEmail
	}
	digits := nonDigit.ReplaceAllString(v, "")
	if len(digits) >= 9 && len(digits) <= 15 && phoneShape.MatchString(v) {
		return CategoryPhone
	}
	if socialHosts.MatchString(lower) {
		return CategorySocial
	}
	for _, hint := range companyHints {
		if strings.Contains(lower, hint) {
			return CategoryCompany
		}
	}
	for _, hint := range productHints {
		if strings.Contains(lower, hint) {
			return CategoryProduct
		}
	}
	for _, hint := range personHints {
		if strings.Contains(lower, hint) {
			return CategoryPerson
		}
	}
	return CategoryGeneric
}

// DefaultPlaceholder suggests a human label for a value based on its
// category. Users override these through the dictionary.
func DefaultPlaceholder(value string) string {
	return PlaceholderFor(Classify(value))
}

// PlaceholderFor maps a category to its default display label.
func PlaceholderFor(category string) string {
	switch category {
	case CategoryEmail:
		return "Email"
	case CategoryPhone:
		return "Телефон"
	case CategorySocial:
		return "Аккаунт"
	case CategoryCompany:
		return "Компания 1"
	case CategoryProduct:
		return "Продукт А"
	default:
		return "ПерсонаX"
	}
}
