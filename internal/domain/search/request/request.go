package request

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kailas-cloud/shelfsearch/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum query length in characters.
	MaxQueryLength = 500
	DefaultLimit   = 20
	MaxLimit       = 100
	// OverFetchFactor multiplies the limit when asking the index for candidates,
	// leaving room for FILTER rules and hydration misses.
	OverFetchFactor = 2
)

// Filters are the optional hard constraints sent with a search.
type Filters struct {
	Category    *string
	Brand       *string
	MinPrice    *float64
	MaxPrice    *float64
	InStock     *bool
	Collections []string
}

// Request is a validated product search.
type Request struct {
	query      string
	merchantID string
	limit      int
	filters    Filters
	expr       filter.Expression
}

// New validates and normalizes search parameters. A zero limit means DefaultLimit.
func New(query, merchantID string, limit int, filters Filters) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if merchantID == "" {
		return Request{}, fmt.Errorf("merchantId is required")
	}
	if _, err := uuid.Parse(merchantID); err != nil {
		return Request{}, fmt.Errorf("merchantId must be a UUID")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return Request{}, fmt.Errorf("limit must be between 1 and %d", MaxLimit)
	}

	expr, err := filters.Expression()
	if err != nil {
		return Request{}, err
	}

	return Request{
		query:      query,
		merchantID: merchantID,
		limit:      limit,
		filters:    filters,
		expr:       expr,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// MerchantID returns the merchant whose catalog is searched.
func (r *Request) MerchantID() string { return r.merchantID }

// Limit returns the maximum number of products to return.
func (r *Request) Limit() int { return r.limit }

// CandidateLimit returns how many candidates to request from the index.
func (r *Request) CandidateLimit() int { return r.limit * OverFetchFactor }

// Filters returns the raw filters as sent.
func (r *Request) Filters() Filters { return r.filters }

// Expression returns the filters as a pre-filter expression, without the merchant scope.
func (r *Request) Expression() filter.Expression { return r.expr }

// Expression converts f into index pre-filter conditions.
func (f Filters) Expression() (filter.Expression, error) {
	var conds []filter.Condition

	if f.Category != nil && *f.Category != "" {
		c, err := filter.NewMatch(filter.FieldCategory, *f.Category)
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, c)
	}
	if f.Brand != nil && *f.Brand != "" {
		c, err := filter.NewMatch(filter.FieldBrand, *f.Brand)
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, c)
	}

	if f.MinPrice != nil && *f.MinPrice < 0 {
		return filter.Expression{}, fmt.Errorf("minPrice must not be negative")
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return filter.Expression{}, fmt.Errorf("maxPrice must not be negative")
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		r, err := filter.NewRangeFilter(nil, f.MinPrice, nil, f.MaxPrice)
		if err != nil {
			return filter.Expression{}, err
		}
		c, err := filter.NewRange(filter.FieldPrice, r)
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, c)
	}

	if f.InStock != nil {
		c, err := filter.NewFlag(filter.FieldInStock, *f.InStock)
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, c)
	}

	if len(f.Collections) > 0 {
		c, err := filter.NewAnyOf(filter.FieldCollections, f.Collections)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("collections: %w", err)
		}
		conds = append(conds, c)
	}

	expr, err := filter.NewExpression(conds...)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("filters: %w", err)
	}
	return expr, nil
}
