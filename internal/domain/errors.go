package domain

import "errors"

// KeyPrefix namespaces every key the service writes to the shared store.
const KeyPrefix = "chatsearch:"

var (
	// ErrProductNotFound signals a missing catalog product.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidQuery signals a query that cannot be searched.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmptyEmbedding signals that the provider returned no vector.
	ErrEmptyEmbedding = errors.New("empty embedding")
	// ErrVectorIndexUnavailable signals that the nearest-neighbor index cannot be queried.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)
