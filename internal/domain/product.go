package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// Product is a catalog record as seen by the search core. Optional fields are
// explicit: StockQuantity is nil when the catalog does not track stock.
type Product struct {
	ID            string                         `json:"id"`
	Name          string                         `json:"name"`
	Category      string                         `json:"category,omitempty"`
	SKU           string                         `json:"sku,omitempty"`
	Price         string                         `json:"price,omitempty"`
	Description   string                         `json:"description,omitempty"`
	StockQuantity *int                           `json:"stock_quantity"`
	Details       Nested[map[string]DetailValue] `json:"details"`
	Pricing       Nested[[]PriceTier]            `json:"pricing"`
	Related       []string                       `json:"related,omitempty"`
}

// PriceTier is a quantity break in a product's pricing.
type PriceTier struct {
	MinQuantity int     `json:"min_quantity"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit,omitempty"`
}

// DetailValue is either free text or a list of semantic tags.
type DetailValue struct {
	Text string
	Tags []string
}

// MarshalJSON emits a string for text values and an array for tag lists.
func (d DetailValue) MarshalJSON() ([]byte, error) {
	if d.Tags != nil {
		return json.Marshal(d.Tags)
	}
	return json.Marshal(d.Text)
}

// UnmarshalJSON accepts a string, a list of strings, or any other JSON scalar kept as text.
func (d *DetailValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = DetailValue{Text: s}
		return nil
	}
	var tags []string
	if err := json.Unmarshal(data, &tags); err == nil {
		*d = DetailValue{Tags: tags}
		return nil
	}
	*d = DetailValue{Text: strings.Trim(string(data), `"`)}
	return nil
}

// String joins tags with spaces.
func (d DetailValue) String() string {
	if d.Tags != nil {
		return strings.Join(d.Tags, " ")
	}
	return d.Text
}

// InStock reports whether the product has a positive stock quantity.
func (p *Product) InStock() bool {
	return p.StockQuantity != nil && *p.StockQuantity > 0
}

// SearchText is the lowercased combined text every lexical test runs against:
// name, category, SKU, description, price and detail values in key order.
func (p *Product) SearchText() string {
	parts := []string{p.Name, p.Category, p.SKU, p.Description, p.Price}

	switch p.Details.Kind {
	case NestedParsed:
		keys := make([]string, 0, len(p.Details.Value))
		for k := range p.Details.Value {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k, p.Details.Value[k].String())
		}
	case NestedRaw:
		parts = append(parts, p.Details.Raw)
	}

	var b strings.Builder
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(part)
	}
	return strings.ToLower(b.String())
}

// Candidate is a product proposed by a search strategy with its raw score.
type Candidate struct {
	Product Product
	Score   float64
}
