package query

import (
	"math"

	"github.com/kailas-cloud/chatsearch/internal/domain/query"
)

// Confidence estimates, on a 0..100 scale, how well the query is understood.
// Penalties apply first, then boosts; the result is rounded and clamped.
func Confidence(text string, attrs query.Attributes, followUpWithContext bool) int {
	c := 1.0
	if RuneLen(text) < shortQueryRunes {
		c *= 0.7
	}
	if attrs.IsEmpty() {
		c *= 0.5
	}
	if followUpWithContext {
		c *= 1.2
	}
	if len(attrs.Dimensions) > 0 {
		c *= 1.15
	}
	if len(attrs.Materials) > 0 {
		c *= 1.1
	}
	if len(attrs.Types) > 0 {
		c *= 1.1
	}
	if len(attrs.Categories) > 0 {
		c *= 1.05
	}

	v := int(math.Round(c * 100))
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// MatchesSynonym reports whether text contains keyword or any of its synonyms
// within the material, type or category vocabularies.
func MatchesSynonym(text, keyword string) bool {
	for _, groups := range [][][]string{materialGroups, typeGroups, categoryGroups} {
		for _, w := range synonymsOf(groups, keyword) {
			if ContainsKeyword(text, w) {
				return true
			}
		}
	}
	return false
}

// CategoryWords returns the broad product category words present in text.
func CategoryWords(text string) []string {
	var out []string
	for _, w := range genericCategoryWords {
		if ContainsKeyword(text, w) {
			out = append(out, w)
		}
	}
	return out
}

// GenericTerms returns the category words in text, or a default set when the
// text has none.
func GenericTerms(text string) []string {
	if out := CategoryWords(text); len(out) > 0 {
		return out
	}
	return append([]string(nil), defaultGenericWords...)
}

// SizeWords returns the size words present in text.
func SizeWords(text string) []string {
	var out []string
	for _, w := range sizeWords {
		if ContainsKeyword(text, w) {
			out = append(out, w)
		}
	}
	return out
}
