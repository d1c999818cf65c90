package usecase

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningDiacriticals is the Combining Diacritical Marks block, U+0300–U+036F
var combiningDiacriticals = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

// NormalizeName canonicalizes a product name for comparison: the name is decomposed (NFD),
// combining diacritical marks are dropped and the result is lowercased.
// "Leché", "LECHE" and "leche" all normalize to "leche".
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningDiacriticals)))
	stripped, _, err := transform.String(t, name)
	if err != nil {
		// unreachable: neither NFD nor Remove report errors
		stripped = name
	}
	return strings.ToLower(stripped)
}
