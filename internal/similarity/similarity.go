// Package similarity provides the pure scoring primitives shared by the
// entity matcher and the dedup resolver. All functions are stateless and
// safe to call concurrently.
package similarity

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// Relative difference bands for amount proximity.
	amountExactBand   = 0.10
	amountPartialBand = 0.20
	amountPartialScore = 0.5

	// Date distances beyond this many days score zero.
	DefaultDateWindowDays = 90

	// Substrings shorter than this are ignored by KeywordOverlap; two or
	// three characters match almost anything in a bank memo.
	minKeywordLength = 4
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips diacritics and collapses whitespace runs so
// "Café  du Sport" and "cafe du sport" compare equal.
func Normalize(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// AmountProximity scores how close two amounts are, on magnitudes. Within
// a 10% relative difference scores 1.0, within 20% scores 0.5, else 0.
func AmountProximity(a, b decimal.Decimal) float64 {
	a = a.Abs()
	b = b.Abs()

	larger := a
	if b.GreaterThan(larger) {
		larger = b
	}
	if larger.IsZero() {
		return 1.0
	}

	relDiff := a.Sub(b).Abs().Div(larger).InexactFloat64()
	switch {
	case relDiff <= amountExactBand:
		return 1.0
	case relDiff <= amountPartialBand:
		return amountPartialScore
	default:
		return 0.0
	}
}

// DateProximity scores calendar closeness. Same calendar month scores 1.0;
// otherwise the score decays linearly with distance in days and reaches 0 at
// windowDays. A non-positive window falls back to the default.
func DateProximity(d1, d2 time.Time, windowDays int) float64 {
	if d1.IsZero() || d2.IsZero() {
		return 0.0
	}
	if windowDays <= 0 {
		windowDays = DefaultDateWindowDays
	}

	if d1.Year() == d2.Year() && d1.Month() == d2.Month() {
		return 1.0
	}

	diff := d1.Sub(d2)
	if diff < 0 {
		diff = -diff
	}
	days := diff.Hours() / 24

	if days > float64(windowDays) {
		return 0.0
	}
	// Cap below the same-month score so an exact month match always wins.
	return (1.0 - days/float64(windowDays)) * 0.8
}

// DateRangeProximity scores a date against a range, taking the proximity to
// the nearest bound, or 1.0 when the date falls inside the range.
func DateRangeProximity(d, start time.Time, end *time.Time, windowDays int) float64 {
	if end == nil || end.IsZero() {
		return DateProximity(d, start, windowDays)
	}
	if !d.Before(start) && !d.After(*end) {
		return 1.0
	}
	startScore := DateProximity(d, start, windowDays)
	endScore := DateProximity(d, *end, windowDays)
	if endScore > startScore {
		return endScore
	}
	return startScore
}

// NameSimilarity scores two names in [0,1] after normalization. Equality
// scores 1.0, containment in either direction 0.9, otherwise an edit-distance
// ratio. Empty input scores 0.
func NameSimilarity(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.9
	}

	distance := levenshtein.DistanceForStrings([]rune(na), []rune(nb), levenshtein.DefaultOptions)
	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}
	ratio := 1.0 - float64(distance)/float64(maxLen)
	if ratio < 0 {
		return 0.0
	}
	return ratio
}

// KeywordOverlap reports whether the memo text and a candidate label share a
// normalized substring in either direction. Short strings never match.
func KeywordOverlap(memoText, candidateLabel string) bool {
	memo := Normalize(memoText)
	label := Normalize(candidateLabel)
	if len(memo) < minKeywordLength || len(label) < minKeywordLength {
		return false
	}
	return strings.Contains(memo, label) || strings.Contains(label, memo)
}
