package search

import (
	"context"

	"github.com/kailas-cloud/shelfsearch/internal/domain"
	"github.com/kailas-cloud/shelfsearch/internal/domain/catalog"
	"github.com/kailas-cloud/shelfsearch/internal/domain/rule"
)

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// CandidateSearcher runs the vector similarity search.
// A nil slice with a nil error means the index has no result set for the query.
type CandidateSearcher interface {
	SearchCandidates(ctx context.Context, vector []float32, q catalog.Query) ([]catalog.Candidate, error)
}

// RuleReader loads a merchant's merchandising rules, active or not.
type RuleReader interface {
	ListRules(ctx context.Context, merchantID string) ([]rule.Rule, error)
}

// ProductHydrator resolves full product records. Order is not guaranteed and
// unknown ids are simply absent.
type ProductHydrator interface {
	GetMany(ctx context.Context, merchantID string, ids []string) ([]catalog.Product, error)
}
