// Package productkey derives the stable identity key used to deduplicate
// products across receipts. Two raw names that normalize to the same key are
// the same product: the resolver is what keeps the catalog from fragmenting
// into "Leche Entera 1L", "LECHE ENTERA 1L " and "leche entera 1l".
package productkey

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentFold decomposes to NFD, drops combining marks, and recomposes. The
// transformer is stateless and safe for concurrent use.
var accentFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var spaceRe = regexp.MustCompile(`\s+`)

// packagingTokenRe matches trailing packaging-size annotations: "1L",
// "1,5 L", "500ML", "400 G", "6X1L", "PACK 6", "P6", "4 UDS", "12 UN".
// Tokens are stripped from the tail one at a time so "PACK 6 330 ML" also
// reduces fully.
var packagingTokenRe = regexp.MustCompile(
	`^(?:\d+\s*X\s*)?\d+(?:[.,]\d+)?\s*(?:L|ML|CL|KG|G|GR)$` +
		`|^PACK\s*\d+$` +
		`|^P-?\d+$` +
		`|^\d+\s*UDS?$` +
		`|^\d+\s*UN$`,
)

// Resolve returns the normalized deduplication key for a raw product name.
// It is deterministic and total: any input, including the empty string, maps
// to exactly one key and the function never fails.
func Resolve(name string) string {
	key := spaceRe.ReplaceAllString(Fold(name), " ")
	return stripPackagingSuffix(key)
}

// Fold uppercases, trims and accent-strips a string without touching its
// tokens. Keyword rules are folded with the same function so they compare
// against keys in the same alphabet.
func Fold(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if folded, _, err := transform.String(accentFold, s); err == nil {
		return folded
	}
	return s
}

// stripPackagingSuffix removes trailing size/packaging tokens. The product
// words themselves are never touched: only complete tokens at the end of the
// name are candidates, and at least one token always remains.
func stripPackagingSuffix(key string) string {
	tokens := strings.Fields(key)
	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		if packagingTokenRe.MatchString(last) {
			tokens = tokens[:len(tokens)-1]
			continue
		}
		// two-word annotations like "PACK 6" or "4 UDS"
		if len(tokens) > 2 {
			lastTwo := tokens[len(tokens)-2] + " " + last
			if packagingTokenRe.MatchString(lastTwo) {
				tokens = tokens[:len(tokens)-2]
				continue
			}
		}
		break
	}
	return strings.Join(tokens, " ")
}
