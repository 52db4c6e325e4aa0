package domain

import "errors"

var (
	// ErrInvalidRequest signals a search request that failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingQuotaExceeded signals that the query embedding token budget is spent.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrVectorIndexUnavailable signals that the vector index could not be queried.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
	// ErrRuleStoreUnavailable signals that merchandising rules could not be loaded.
	ErrRuleStoreUnavailable = errors.New("rule store unavailable")
	// ErrCatalogUnavailable signals that product records could not be hydrated.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)
