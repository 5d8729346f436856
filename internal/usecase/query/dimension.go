package query

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/chatsearch/internal/domain/query"
)

// DimensionVariants returns the literal forms a dimension may take in product
// text: as typed, without spaces, and rebuilt from canonical values.
func DimensionVariants(d query.Dimension) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(d.Literal)
	add(strings.ReplaceAll(d.Literal, " ", ""))

	switch d.Kind {
	case query.DimensionLinear:
		if len(d.Values) == 1 {
			v := formatNum(d.Values[0])
			add(v + " " + d.Unit)
			add(v + d.Unit)
		}
	case query.DimensionPlanar, query.DimensionVolume:
		parts := make([]string, len(d.Values))
		for i, v := range d.Values {
			parts[i] = formatNum(v)
		}
		add(strings.Join(parts, "x"))
		add(strings.Join(parts, " x "))
	case query.DimensionSizeCode:
		s := strings.ToLower(d.Size)
		add("size " + s)
		add("ไซส์ " + s)
	}
	return out
}

// ContainsDimensionLiteral reports whether lowered product text carries any variant of d.
func ContainsDimensionLiteral(text string, d query.Dimension) bool {
	for _, v := range DimensionVariants(d) {
		if strings.Contains(text, v) {
			return true
		}
	}
	return false
}

// DimensionMatches reports whether the product text satisfies the query
// dimension. Numeric comparison requires the same kind and unit with every
// value within tol; a literal occurrence also counts.
func DimensionMatches(d query.Dimension, text string, tol float64) bool {
	if ContainsDimensionLiteral(text, d) {
		return true
	}
	for _, pd := range ExtractDimensions(text) {
		if pd.Kind != d.Kind {
			continue
		}
		if d.Kind == query.DimensionSizeCode {
			if pd.Size == d.Size {
				return true
			}
			continue
		}
		if d.Unit != "" && pd.Unit != "" && pd.Unit != d.Unit {
			continue
		}
		if len(pd.Values) != len(d.Values) {
			continue
		}
		ok := true
		for i := range d.Values {
			if !WithinTolerance(d.Values[i], pd.Values[i], tol) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
