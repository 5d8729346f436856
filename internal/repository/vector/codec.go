package vector

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"strconv"

	"github.com/kailas-cloud/chatsearch/internal/domain"
)

// Hash field names of an indexed product.
const (
	fieldID            = "id"
	fieldName          = "name"
	fieldCategory      = "category"
	fieldSKU           = "sku"
	fieldPrice         = "price"
	fieldDescription   = "description"
	fieldStockQuantity = "stock_quantity"
	fieldDetails       = "details"
	fieldPricing       = "pricing"
	fieldRelated       = "related"
	fieldVector        = "__vector"
)

var returnFields = []string{
	fieldID, fieldName, fieldCategory, fieldSKU, fieldPrice, fieldDescription,
	fieldStockQuantity, fieldDetails, fieldPricing, fieldRelated,
}

// buildHashFields flattens a product into HSET fields. Nested values are JSON encoded;
// a product without tracked stock has no stock_quantity field so numeric filters skip it.
func buildHashFields(p *domain.Product, vec []float32) map[string]string {
	m := map[string]string{
		fieldID:          p.ID,
		fieldName:        p.Name,
		fieldCategory:    p.Category,
		fieldSKU:         p.SKU,
		fieldPrice:       p.Price,
		fieldDescription: p.Description,
		fieldVector:      vectorToBytes(vec),
	}
	if p.StockQuantity != nil {
		m[fieldStockQuantity] = strconv.Itoa(*p.StockQuantity)
	}
	if s := p.Details.Encode(); s != "" {
		m[fieldDetails] = s
	}
	if s := p.Pricing.Encode(); s != "" {
		m[fieldPricing] = s
	}
	if len(p.Related) > 0 {
		if data, err := json.Marshal(p.Related); err == nil {
			m[fieldRelated] = string(data)
		}
	}
	return m
}

// parseHashFields rebuilds a product from hash fields. Each nested field is decoded
// on its own: a malformed value never drops the product.
func parseHashFields(id string, m map[string]string) domain.Product {
	p := domain.Product{
		ID:          id,
		Name:        m[fieldName],
		Category:    m[fieldCategory],
		SKU:         m[fieldSKU],
		Price:       m[fieldPrice],
		Description: m[fieldDescription],
		Details:     domain.ParseNested[map[string]domain.DetailValue](m[fieldDetails]),
		Pricing:     domain.ParseNested[[]domain.PriceTier](m[fieldPricing]),
	}
	if v, ok := m[fieldID]; ok && v != "" {
		p.ID = v
	}
	if v, ok := m[fieldStockQuantity]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			q := int(f)
			p.StockQuantity = &q
		}
	}
	if related := domain.ParseNested[[]string](m[fieldRelated]); related.IsParsed() {
		p.Related = related.Value
	}
	return p
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
