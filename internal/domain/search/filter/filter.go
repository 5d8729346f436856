// Package filter describes metadata pre-filters for nearest-neighbor queries.
package filter

import "fmt"

// Metadata fields the product index exposes for filtering.
const (
	FieldCategory      = "category"
	FieldStockQuantity = "stock_quantity"
)

// MaxConditions bounds a single expression.
const MaxConditions = 8

// Expression is a conjunction of conditions. The zero value matches everything.
type Expression struct {
	must []Condition
}

// NewExpression validates and creates an Expression.
func NewExpression(must ...Condition) (Expression, error) {
	if len(must) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	return Expression{must: must}, nil
}

// Must returns the conditions.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Condition is either an exact tag match or a numeric range.
type Condition struct {
	key       string
	match     string
	rangeExpr *Range
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// InStock matches products with a positive stock quantity.
func InStock() Condition {
	zero := 0.0
	return Condition{key: FieldStockQuantity, rangeExpr: &Range{gt: &zero}}
}

// Category matches a single product category.
func Category(name string) (Condition, error) {
	return NewMatch(FieldCategory, name)
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

// Range returns the numeric range.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.match != "" }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// Range is an open numeric interval; nil bounds are unbounded.
type Range struct {
	gt *float64
	lt *float64
}

// GT returns the exclusive lower bound.
func (r Range) GT() *float64 { return r.gt }

// LT returns the exclusive upper bound.
func (r Range) LT() *float64 { return r.lt }

// Contains reports whether v lies strictly inside the range.
func (r Range) Contains(v float64) bool {
	if r.gt != nil && v <= *r.gt {
		return false
	}
	if r.lt != nil && v >= *r.lt {
		return false
	}
	return true
}
