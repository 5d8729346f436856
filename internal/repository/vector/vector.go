// Package vector is the nearest-neighbor product index. Two backends share the
// same contract: Redis FT.SEARCH over product hashes, and an in-process HNSW graph.
package vector

import (
	"github.com/kailas-cloud/chatsearch/internal/domain"
)

// Item is a product with its document embedding.
type Item struct {
	Product domain.Product
	Vector  []float32
}

// HNSWConfig holds graph construction parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// DefaultHNSWConfig matches the server defaults.
var DefaultHNSWConfig = HNSWConfig{M: 16, EFConstruct: 200}

func collectionPrefix(collection string) string {
	return domain.KeyPrefix + collection + ":"
}

func productKey(collection, id string) string {
	return collectionPrefix(collection) + id
}

func indexName(collection string) string {
	return domain.KeyPrefix + collection + ":idx"
}

// similarity converts a cosine distance into a score in [0,1].
func similarity(distance float64) float64 {
	s := 1 - distance
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
