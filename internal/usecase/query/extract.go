// Package query turns a raw chat message into a structured analysis:
// attributes, intent, follow-up detection, rewritten text and confidence.
package query

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/chatsearch/internal/domain/query"
)

const (
	num       = `(\d+(?:\.\d+)?)`
	cross     = `\s*[x×*]\s*`
	lenUnits  = `(?:\s*(cm|mm|inch|นิ้ว|ซม\.?|เซนติเมตร|มม\.?))?`
	unitAlter = `(ml|oz|cm|mm|inch|kg|l|g|ออนซ์|มิลลิลิตร|มล\.?|ลิตร|เซนติเมตร|ซม\.?|มม\.?|นิ้ว|กิโลกรัม|กก\.?|กรัม)`
)

var (
	volumeRe = regexp.MustCompile(num + cross + num + cross + num + lenUnits)
	planarRe = regexp.MustCompile(num + cross + num + lenUnits)
	linearRe = regexp.MustCompile(num + `\s*` + unitAlter)
	sizeRe   = regexp.MustCompile(`(size|ไซส์|ไซซ์|ขนาด)(\s*)([sml])`)
)

var canonicalUnits = map[string]string{
	"ออนซ์": "oz", "มิลลิลิตร": "ml", "มล": "ml", "ลิตร": "l",
	"เซนติเมตร": "cm", "ซม": "cm", "มม": "mm", "นิ้ว": "inch",
	"กิโลกรัม": "kg", "กก": "kg", "กรัม": "g",
}

// CanonicalUnit maps Thai and abbreviated units onto their short Latin form.
func CanonicalUnit(u string) string {
	u = strings.TrimSuffix(strings.ToLower(u), ".")
	if c, ok := canonicalUnits[u]; ok {
		return c
	}
	return u
}

// Extractor finds dimensions and vocabulary keywords in text.
type Extractor struct {
	materials  []string
	types      []string
	categories []string
}

// NewExtractor builds an extractor over the built-in vocabularies.
func NewExtractor() *Extractor {
	return &Extractor{
		materials:  flatten(materialGroups),
		types:      flatten(typeGroups),
		categories: flatten(categoryGroups),
	}
}

// Extract returns the attributes of text. Extraction never fails: input
// without recognizable content yields empty lists.
func (e *Extractor) Extract(text string) query.Attributes {
	lower := strings.ToLower(text)
	return query.Attributes{
		Dimensions: ExtractDimensions(lower),
		Materials:  findKeywords(lower, e.materials),
		Types:      findKeywords(lower, e.types),
		Categories: findKeywords(lower, e.categories),
	}
}

type span struct{ start, end int }

func insideAny(pos int, spans []span) bool {
	for _, s := range spans {
		if pos >= s.start && pos < s.end {
			return true
		}
	}
	return false
}

// ExtractDimensions scans lowercased text for 3D, 2D, 1D and size mentions.
// Higher-arity matches consume their span so a "10x10x5" triple is not also
// reported as a "10x10" pair.
func ExtractDimensions(lower string) []query.Dimension {
	var (
		dims     []query.Dimension
		consumed []span
	)

	for _, m := range volumeRe.FindAllStringSubmatchIndex(lower, -1) {
		dims = append(dims, query.Dimension{
			Kind:    query.DimensionVolume,
			Literal: strings.TrimSpace(lower[m[0]:m[1]]),
			Values:  []float64{parseNum(lower, m[2], m[3]), parseNum(lower, m[4], m[5]), parseNum(lower, m[6], m[7])},
			Unit:    groupUnit(lower, m[8], m[9]),
			Offset:  m[0],
		})
		consumed = append(consumed, span{m[0], m[1]})
	}

	for _, m := range planarRe.FindAllStringSubmatchIndex(lower, -1) {
		if insideAny(m[0], consumed) {
			continue
		}
		dims = append(dims, query.Dimension{
			Kind:    query.DimensionPlanar,
			Literal: strings.TrimSpace(lower[m[0]:m[1]]),
			Values:  []float64{parseNum(lower, m[2], m[3]), parseNum(lower, m[4], m[5])},
			Unit:    groupUnit(lower, m[6], m[7]),
			Offset:  m[0],
		})
		consumed = append(consumed, span{m[0], m[1]})
	}

	for _, m := range linearRe.FindAllStringSubmatchIndex(lower, -1) {
		if insideAny(m[0], consumed) {
			continue
		}
		unit := lower[m[4]:m[5]]
		if isASCIIWord(unit) && isASCIILetterAt(lower, m[5]) {
			// "16 large" is not sixteen litres.
			continue
		}
		dims = append(dims, query.Dimension{
			Kind:    query.DimensionLinear,
			Literal: strings.TrimSpace(lower[m[0]:m[1]]),
			Values:  []float64{parseNum(lower, m[2], m[3])},
			Unit:    CanonicalUnit(unit),
			Offset:  m[0],
		})
	}

	for _, m := range sizeRe.FindAllStringSubmatchIndex(lower, -1) {
		if isASCIILetterAt(lower, m[1]) {
			continue
		}
		// The Latin keyword needs a space before the code, or "sizes" reads as size S.
		if lower[m[2]:m[3]] == "size" && (m[4] == m[5] || isASCIILetterAt(lower, m[0]-1)) {
			continue
		}
		dims = append(dims, query.Dimension{
			Kind:    query.DimensionSizeCode,
			Literal: lower[m[0]:m[1]],
			Size:    strings.ToUpper(lower[m[6]:m[7]]),
			Offset:  m[0],
		})
	}

	sort.SliceStable(dims, func(i, j int) bool { return dims[i].Offset < dims[j].Offset })
	return dims
}

func parseNum(s string, start, end int) float64 {
	v, _ := strconv.ParseFloat(s[start:end], 64)
	return v
}

func groupUnit(s string, start, end int) string {
	if start < 0 {
		return ""
	}
	return CanonicalUnit(s[start:end])
}

func findKeywords(lower string, vocab []string) []query.KeywordHit {
	var hits []query.KeywordHit
	for _, k := range vocab {
		if i := IndexKeyword(lower, k); i >= 0 {
			hits = append(hits, query.KeywordHit{Keyword: k, Offset: i})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Offset != hits[j].Offset {
			return hits[i].Offset < hits[j].Offset
		}
		return utf8.RuneCountInString(hits[i].Keyword) > utf8.RuneCountInString(hits[j].Keyword)
	})
	return hits
}
