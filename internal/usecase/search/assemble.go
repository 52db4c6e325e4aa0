package search

import (
	"github.com/kailas-cloud/shelfsearch/internal/domain/catalog"
	"github.com/kailas-cloud/shelfsearch/internal/domain/rule"
)

// Response is the search result envelope.
type Response struct {
	Success  bool
	Meta     Meta
	Banners  []rule.Banner
	Products []Product
}

// Meta describes how the response was produced.
type Meta struct {
	Query        string
	TotalResults int
	LatencyMs    int64
	AppliedRules []string
}

// Product is a hydrated catalog record with its final ranking score.
type Product struct {
	catalog.Product
	Score float64
}

// noResultSet is the fast-fail envelope returned when the index has nothing for the query.
func noResultSet(query string) Response {
	return Response{
		Success: false,
		Meta: Meta{
			Query:        query,
			TotalResults: 0,
			LatencyMs:    0,
			AppliedRules: []string{},
		},
		Banners:  []rule.Banner{},
		Products: []Product{},
	}
}

// Assemble joins ranked candidates with their product records in rank order.
// Candidates without a record are dropped.
func Assemble(
	query string, ranked []catalog.Candidate, records []catalog.Product,
	appliedRules []string, banners []rule.Banner, latencyMs int64,
) Response {
	byID := make(map[string]*catalog.Product, len(records))
	for i := range records {
		byID[records[i].ID] = &records[i]
	}

	products := make([]Product, 0, len(ranked))
	for i := range ranked {
		p, ok := byID[ranked[i].ID]
		if !ok {
			continue
		}
		products = append(products, Product{Product: *p, Score: ranked[i].Score})
	}

	if appliedRules == nil {
		appliedRules = []string{}
	}
	if banners == nil {
		banners = []rule.Banner{}
	}
	return Response{
		Success: true,
		Meta: Meta{
			Query:        query,
			TotalResults: len(products),
			LatencyMs:    latencyMs,
			AppliedRules: appliedRules,
		},
		Banners:  banners,
		Products: products,
	}
}
