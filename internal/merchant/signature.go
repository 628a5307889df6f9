// Package merchant normalizes raw bank-statement descriptions into stable
// signatures used to group transactions by payee.
package merchant

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

var (
	maskedCardRe = regexp.MustCompile(`[*x#•]*\d{4,}`)
	dateLikeRe   = regexp.MustCompile(`\b\d{1,4}[/.-]\d{1,2}(?:[/.-]\d{1,4})?\b`)
	amountLikeRe = regexp.MustCompile(`(?:[₹$€£]|\b(?:rs\.?|inr|usd))\s*\d+(?:[.,]\d+)?|\b\d+[.,]\d{2}\b`)
	nonAlnumRe   = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// stopwords are payment-processing noise that carries no payee identity.
var stopwords = map[string]struct{}{
	"payment":       {},
	"payments":      {},
	"autopay":       {},
	"subscription":  {},
	"subscriptions": {},
	"bill":          {},
	"bills":         {},
	"recurring":     {},
	"renewal":       {},
	"invoice":       {},
	"charge":        {},
	"debit":         {},
	"credit":        {},
	"card":          {},
	"upi":           {},
	"neft":          {},
	"imps":          {},
	"ach":           {},
	"emi":           {},
	"pos":           {},
	"txn":           {},
	"transaction":   {},
	"transfer":      {},
	"online":        {},
	"www":           {},
	"com":           {},
}

const (
	maxSignatureWords = 3
	minWordRunes      = 3
	fallbackRunes     = 20
)

// Normalize reduces a raw transaction description to its merchant
// signature: lowercase, strip masked card numbers, date-like and
// amount-like fragments, collapse punctuation, drop stop-words, and keep
// the first few significant words. When nothing significant survives it
// falls back to a prefix of the cleaned text; an empty or blank
// description yields the empty signature.
func Normalize(description string) string {
	s := strings.ToLower(strings.TrimSpace(description))
	if s == "" {
		return ""
	}
	s = maskedCardRe.ReplaceAllString(s, " ")
	s = dateLikeRe.ReplaceAllString(s, " ")
	s = amountLikeRe.ReplaceAllString(s, " ")
	s = nonAlnumRe.ReplaceAllString(s, " ")
	cleaned := strings.Join(strings.Fields(s), " ")
	if cleaned == "" {
		return ""
	}

	var words []string
	for _, w := range strings.Fields(cleaned) {
		if len(words) == maxSignatureWords {
			break
		}
		if len([]rune(w)) < minWordRunes {
			continue
		}
		if _, noise := stopwords[w]; noise {
			continue
		}
		words = append(words, w)
	}
	if len(words) > 0 {
		return strings.Join(words, " ")
	}
	if r := []rune(cleaned); len(r) > fallbackRunes {
		return strings.TrimSpace(string(r[:fallbackRunes]))
	}
	return cleaned
}

// TitleCase renders a signature for display, upper-casing the first rune
// of every word.
func TitleCase(signature string) string {
	words := strings.Fields(signature)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Similar reports whether two descriptions normalize to the same
// signature or sit within one character edit of each other. Empty
// signatures never match anything.
func Similar(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return levenshtein.ComputeDistance(na, nb) <= 1
}
