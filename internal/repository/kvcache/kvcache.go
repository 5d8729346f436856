// Package kvcache is a namespaced key-value cache with per-entry TTL.
// Misses, including expired entries, are reported as db.ErrKeyNotFound.
package kvcache

// Namespaces used across the service.
const (
	NamespaceProduct      = "product"
	NamespaceContext      = "context"
	NamespaceConversation = "conversation"
	NamespaceEmbedding    = "embedding"
)
