package db

import "github.com/kailas-cloud/shelfsearch/internal/domain/search/filter"

// KNNQuery is a pre-filtered vector similarity query over an FT index.
type KNNQuery struct {
	IndexName   string
	VectorField string
	Filters     filter.Expression
	Vector      []float32
	K           int
	// EFRuntime overrides the HNSW candidate list size for this query; 0 keeps the index default.
	EFRuntime    int
	ReturnFields []string
}

// SearchResult holds the hits of a KNN query, best first.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one hit: the document key, its similarity and the returned fields.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
