package catalog

import "github.com/kailas-cloud/shelfsearch/internal/domain/search/filter"

// Query scopes a vector search to one merchant's catalog.
type Query struct {
	MerchantID string
	Limit      int
	Filters    filter.Expression
}
