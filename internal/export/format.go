package export

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// FormatTitle normalizes a display title: first letter upper, rest lower.
func FormatTitle(title string) string {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ""
	}
	runes := []rune(strings.ToLower(trimmed))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// FormatVendor normalizes a vendor display name: uppercase, hyphens spaced.
func FormatVendor(vendor string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(vendor), "-", " "))
}

var accentFold = map[rune]rune{
	'à': 'a', 'â': 'a', 'ä': 'a', 'á': 'a', 'ã': 'a', 'å': 'a',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'ö': 'o', 'õ': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n', 'ý': 'y', 'ÿ': 'y',
	'œ': 'o', 'æ': 'a',
}

// Slugify folds accents, strips everything but word characters and turns
// runs of separators into single hyphens.
func Slugify(value string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if folded, ok := accentFold[r]; ok {
			r = folded
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// NormalizePrice renders an extracted price through decimal when it parses,
// keeping the raw text verbatim otherwise. Commas used as decimal marks are
// accepted. Export never raises on price data.
func NormalizePrice(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	candidate := strings.ReplaceAll(trimmed, ",", ".")
	candidate = strings.TrimSuffix(strings.TrimSpace(candidate), "€")
	candidate = strings.TrimSpace(strings.TrimPrefix(candidate, "€"))
	value, err := decimal.NewFromString(candidate)
	if err != nil {
		return trimmed
	}
	return value.StringFixed(2)
}
