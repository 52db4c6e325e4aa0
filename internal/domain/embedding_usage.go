package domain

import "context"

type embeddingUsageKey struct{}

// EmbeddingUsage describes the query embedding of one search. The pipeline
// writes it from the goroutine that embeds; the HTTP handler reads it after
// Execute returns to set the X-Embedding-* response headers.
type EmbeddingUsage struct {
	TotalTokens int
	Used        bool // an embedding was produced, possibly from cache
	CacheHit    bool
}

// NewContextWithUsage returns a context carrying a fresh usage record.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext returns the usage record, nil outside an HTTP search.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records n billed tokens. Safe on a nil receiver.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u != nil {
		u.TotalTokens += n
		u.Used = true
	}
}

// MarkCacheHit records that the vector came from the query cache. Safe on a nil receiver.
func (u *EmbeddingUsage) MarkCacheHit() {
	if u != nil {
		u.CacheHit = true
	}
}
