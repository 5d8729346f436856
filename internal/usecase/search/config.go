package search

import "time"

// Config tunes the pipeline. Zero fields take defaults.
type Config struct {
	TopResults               int
	Collection               string
	NeighborMultiplier       int
	StockFilterConfidence    int
	CategoryFilterConfidence int
	MinDirectoryScore        float64
	NumericTolerance         float64
	ScanLimit                int
	ProductCacheTTL          time.Duration
	ContextCacheTTL          time.Duration
}

// Defaults.
const (
	DefaultTopResults               = 5
	DefaultCollection               = "products"
	DefaultNeighborMultiplier       = 5
	DefaultStockFilterConfidence    = 70
	DefaultCategoryFilterConfidence = 80
	DefaultMinDirectoryScore        = 0.1
	DefaultNumericTolerance         = 0.10
	DefaultScanLimit                = 150
	DefaultProductCacheTTL          = 10 * time.Minute
	DefaultContextCacheTTL          = 30 * time.Minute
)

func (c Config) withDefaults() Config {
	if c.TopResults <= 0 {
		c.TopResults = DefaultTopResults
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.NeighborMultiplier <= 0 {
		c.NeighborMultiplier = DefaultNeighborMultiplier
	}
	if c.StockFilterConfidence <= 0 {
		c.StockFilterConfidence = DefaultStockFilterConfidence
	}
	if c.CategoryFilterConfidence <= 0 {
		c.CategoryFilterConfidence = DefaultCategoryFilterConfidence
	}
	if c.MinDirectoryScore <= 0 {
		c.MinDirectoryScore = DefaultMinDirectoryScore
	}
	if c.NumericTolerance <= 0 {
		c.NumericTolerance = DefaultNumericTolerance
	}
	if c.ScanLimit <= 0 {
		c.ScanLimit = DefaultScanLimit
	}
	if c.ProductCacheTTL <= 0 {
		c.ProductCacheTTL = DefaultProductCacheTTL
	}
	if c.ContextCacheTTL <= 0 {
		c.ContextCacheTTL = DefaultContextCacheTTL
	}
	return c
}
