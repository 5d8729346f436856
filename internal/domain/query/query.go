// Package query holds the per-request analysis of a chat message: extracted
// attributes, intent flags, confidence and the rewritten search text.
package query

// DimensionKind distinguishes the shapes a size mention can take.
type DimensionKind string

const (
	// DimensionLinear is a single value with a unit, e.g. "16 oz".
	DimensionLinear DimensionKind = "1d"
	// DimensionPlanar is a length x width pair.
	DimensionPlanar DimensionKind = "2d"
	// DimensionVolume is a length x width x height triple.
	DimensionVolume DimensionKind = "3d"
	// DimensionSizeCode is a coded size token (S, M, L).
	DimensionSizeCode DimensionKind = "size"
)

// Dimension is one size mention found in a query.
type Dimension struct {
	Kind    DimensionKind `json:"kind"`
	Literal string        `json:"literal"`
	Values  []float64     `json:"values,omitempty"`
	Unit    string        `json:"unit,omitempty"`
	Size    string        `json:"size,omitempty"`
	Offset  int           `json:"offset"`
}

// KeywordHit is a vocabulary keyword found in a query. Offset is the byte
// position in the lowercased query.
type KeywordHit struct {
	Keyword string `json:"keyword"`
	Offset  int    `json:"offset"`
}

// Attributes are the structured candidates extracted from one query.
type Attributes struct {
	Dimensions []Dimension  `json:"dimensions"`
	Materials  []KeywordHit `json:"materials"`
	Types      []KeywordHit `json:"types"`
	Categories []KeywordHit `json:"categories"`
}

// IsEmpty reports whether nothing was extracted.
func (a Attributes) IsEmpty() bool {
	return len(a.Dimensions) == 0 && len(a.Materials) == 0 &&
		len(a.Types) == 0 && len(a.Categories) == 0
}

// Intent flags are independent; a query may ask about price and stock at once.
type Intent struct {
	Price         bool `json:"price"`
	Availability  bool `json:"availability"`
	Delivery      bool `json:"delivery"`
	Specification bool `json:"specification"`
	Material      bool `json:"material"`
}

// Analysis aggregates everything derived from a query before searching.
type Analysis struct {
	Original   string     `json:"original"`
	Enhanced   string     `json:"enhanced"`
	Attributes Attributes `json:"attributes"`
	Intent     Intent     `json:"intent"`
	Confidence int        `json:"confidence"`
	FollowUp   bool       `json:"follow_up"`
}
