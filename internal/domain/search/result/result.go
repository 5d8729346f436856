// Package result holds the ranked output of a product search.
package result

import (
	"time"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/domain/query"
)

// Boost factor names recorded in SearchResult.BoostFactors.
const (
	FactorBase               = "base"
	FactorHistoricalInterest = "historicalInterest"
	FactorDimension          = "dimensionMatch"
	FactorMaterial           = "materialMatch"
	FactorType               = "typeMatch"
	FactorFollowUp           = "followUpContinuity"
	FactorSharedNumber       = "sharedNumber"
	FactorStock              = "stockAvailability"
)

// Search methods reported in Metadata.SearchMethod besides strategy names.
const (
	MethodFallback = "fallback"
	MethodNone     = "none"
	MethodFailed   = "failed"
)

// Interaction summarizes how often a product appeared in the user's history.
type Interaction struct {
	Count    int       `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// SearchResult is a product enriched with ranking information.
type SearchResult struct {
	domain.Product
	Score        float64            `json:"score"`
	BoostedScore float64            `json:"boosted_score"`
	BoostFactors map[string]float64 `json:"boost_factors"`
	Interaction  *Interaction       `json:"interaction_data,omitempty"`
}

// Metadata describes how a response was produced.
type Metadata struct {
	TotalResults    int    `json:"total_results"`
	SearchMethod    string `json:"search_method"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
	Error           string `json:"error,omitempty"`
}

// Response is the outcome of one searchProducts call.
type Response struct {
	Results  []SearchResult  `json:"results"`
	Analysis *query.Analysis `json:"analysis,omitempty"`
	Metadata Metadata        `json:"metadata"`
}

// Empty returns a response without results.
func Empty(method string, elapsed time.Duration) Response {
	return Response{
		Results: []SearchResult{},
		Metadata: Metadata{
			SearchMethod:    method,
			ExecutionTimeMs: elapsed.Milliseconds(),
		},
	}
}
