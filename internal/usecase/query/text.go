package query

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// tokenSplitRe splits on whitespace and ASCII punctuation; Thai runs stay intact.
var tokenSplitRe = regexp.MustCompile(`[\s,;:!?()\[\]{}"'/\\|+=<>~^]+`)

// Normalize lowercases, trims and collapses internal whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// RuneLen counts characters rather than bytes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// Numbers returns every numeric literal in s.
func Numbers(s string) []float64 {
	matches := numberRe.FindAllString(s, -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// NumericTokens returns the distinct numeric literals of s, normalized so that
// "16" and "16.0" compare equal. No unit conversion is applied.
func NumericTokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, v := range Numbers(s) {
		out[strconv.FormatFloat(v, 'f', -1, 64)] = struct{}{}
	}
	return out
}

// SharesNumber reports whether a and b have at least one numeric literal in common.
func SharesNumber(a, b string) bool {
	na := NumericTokens(a)
	if len(na) == 0 {
		return false
	}
	for n := range NumericTokens(b) {
		if _, ok := na[n]; ok {
			return true
		}
	}
	return false
}

// toleranceEpsilon absorbs float rounding so that exactly +10% still matches.
const toleranceEpsilon = 1e-9

// WithinTolerance reports whether candidate lies within tol (relative) of target.
func WithinTolerance(target, candidate, tol float64) bool {
	if target == 0 {
		return candidate == 0
	}
	return math.Abs(candidate-target) <= tol*math.Abs(target)+toleranceEpsilon
}

// Tokens splits s into lowercased significant terms: longer than one rune,
// not a stop word.
func Tokens(s string) []string {
	raw := tokenSplitRe.Split(strings.ToLower(s), -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.Trim(t, ".-_")
		if utf8.RuneCountInString(t) <= 1 {
			continue
		}
		if _, stop := tokenStopWords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// isASCIIWord reports whether s consists only of ASCII letters and spaces.
func isASCIIWord(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || r == ' ') {
			return false
		}
	}
	return s != ""
}

func isASCIILetterAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IndexKeyword finds keyword in text. ASCII keywords must not be glued to other
// ASCII letters ("pp" does not match "shopping") apart from a plural "s"; Thai keywords match as substrings
// because Thai is written without spaces. Returns -1 when absent.
func IndexKeyword(text, keyword string) int {
	if keyword == "" {
		return -1
	}
	if !isASCIIWord(keyword) {
		return strings.Index(text, keyword)
	}
	from := 0
	for from <= len(text) {
		i := strings.Index(text[from:], keyword)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(keyword)
		if text[end:] != "" && text[end] == 's' {
			end++ // plural
		}
		if !isASCIILetterAt(text, i-1) && !isASCIILetterAt(text, end) {
			return i
		}
		from = i + 1
	}
	return -1
}

// ContainsKeyword reports whether IndexKeyword finds keyword.
func ContainsKeyword(text, keyword string) bool {
	return IndexKeyword(text, keyword) >= 0
}

// ContainsAny reports whether text contains any of the keywords.
func ContainsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if ContainsKeyword(text, k) {
			return true
		}
	}
	return false
}
