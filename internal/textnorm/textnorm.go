// Package textnorm provides locale-insensitive text helpers used across the
// funnel: accent/case folding, yes/no coercion and small free-text heuristics.
// All functions are pure.
package textnorm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold returns s with diacritics removed, lowercased and trimmed. Fold is
// idempotent: Fold(Fold(s)) == Fold(s).
func Fold(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// EqualCity compares two city names ignoring case, accents and surrounding
// whitespace.
func EqualCity(a, b string) bool {
	return Fold(a) == Fold(b) && Fold(a) != ""
}

// HasAny reports whether the folded form of s contains the folded form of any
// term.
func HasAny(s string, terms []string) bool {
	folded := Fold(s)
	for _, term := range terms {
		if strings.Contains(folded, Fold(term)) {
			return true
		}
	}
	return false
}

var (
	truthyTokens = map[string]bool{"true": true, "verdadeiro": true, "sim": true, "s": true, "y": true, "yes": true, "1": true}
	falsyTokens  = map[string]bool{"false": true, "falso": true, "nao": true, "n": true, "no": true, "0": true}
)

// Boolish coerces free-text or locale yes/no answers into a boolean. Unknown
// values are false.
func Boolish(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t == 1
	case float64:
		return t == 1
	case nil:
		return false
	}
	s := Fold(fmt.Sprint(v))
	if truthyTokens[s] {
		return true
	}
	if falsyTokens[s] {
		return false
	}
	return false
}

var (
	immediateRe = regexp.MustCompile(`(imediat|na hora|instant)`)
	minutesRe   = regexp.MustCompile(`(\d+)\s*min`)
)

// WithinFiveMinutes reports whether a free-text answer signals acting
// immediately or within five minutes.
func WithinFiveMinutes(s string) bool {
	folded := Fold(s)
	if immediateRe.MatchString(folded) {
		return true
	}
	m := minutesRe.FindStringSubmatch(folded)
	if m == nil {
		return false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}
	return n <= 5
}

// ParseMoney parses a currency amount written with either a comma or a dot
// decimal separator, optionally prefixed with "R$". The second return value is
// false when the input is not numeric.
func ParseMoney(s string) (float64, bool) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "R$")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatBRL renders a raw fee cell for display. Numeric values are formatted
// with two decimals; anything else is passed through untouched.
func FormatBRL(raw string) string {
	if v, ok := ParseMoney(raw); ok {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return raw
}
