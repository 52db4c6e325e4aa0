package chi

import (
	"strconv"
	"time"

	"github.com/kailas-cloud/shelfsearch/internal/domain/rule"
	"github.com/kailas-cloud/shelfsearch/internal/domain/search/request"
	domusage "github.com/kailas-cloud/shelfsearch/internal/domain/usage"
	searchuc "github.com/kailas-cloud/shelfsearch/internal/usecase/search"
)

// ErrorCode is the machine-readable error identifier in error bodies.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeNotFound               ErrorCode = "not_found"
	CodeEmbeddingQuotaExceeded ErrorCode = "embedding_quota_exceeded"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeVectorIndexUnavailable ErrorCode = "vector_index_unavailable"
	CodeRuleStoreUnavailable   ErrorCode = "rule_store_unavailable"
	CodeCatalogUnavailable     ErrorCode = "catalog_unavailable"
	CodeTimeout                ErrorCode = "timeout"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Query      string         `json:"query"`
	MerchantID string         `json:"merchantId"`
	Limit      *int           `json:"limit,omitempty"`
	Filters    *SearchFilters `json:"filters,omitempty"`
}

// SearchFilters are the optional hard constraints.
type SearchFilters struct {
	Category    *string  `json:"category,omitempty"`
	Brand       *string  `json:"brand,omitempty"`
	MinPrice    *float64 `json:"minPrice,omitempty"`
	MaxPrice    *float64 `json:"maxPrice,omitempty"`
	InStock     *bool    `json:"inStock,omitempty"`
	Collections []string `json:"collections,omitempty"`
}

// SearchResponse is the POST /search success body.
type SearchResponse struct {
	Success  bool            `json:"success"`
	Meta     SearchMeta      `json:"meta"`
	Banners  []SearchBanner  `json:"banners"`
	Products []SearchProduct `json:"products"`
}

// SearchMeta describes how the response was produced.
type SearchMeta struct {
	Query        string   `json:"query"`
	TotalResults int      `json:"totalResults"`
	LatencyMs    int64    `json:"latencyMs"`
	AppliedRules []string `json:"appliedRules"`
}

// SearchBanner is a merchandising banner.
type SearchBanner struct {
	Text     string  `json:"text"`
	Link     *string `json:"link,omitempty"`
	Position string  `json:"position"`
}

// SearchProduct is one ranked product. Prices are decimal strings.
type SearchProduct struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   *string  `json:"description"`
	Category      string   `json:"category"`
	Brand         string   `json:"brand"`
	Price         string   `json:"price"`
	OriginalPrice *string  `json:"originalPrice"`
	Currency      string   `json:"currency"`
	Stock         int      `json:"stock"`
	URL           *string  `json:"url"`
	Image         *string  `json:"image"`
	Collections   []string `json:"collections"`
	Tags          []string `json:"tags"`
	Score         float64  `json:"score"`
}

// UsageResponse is the GET /usage body.
type UsageResponse struct {
	Provider    string       `json:"provider"`
	Model       string       `json:"model"`
	Period      string       `json:"period"`
	PeriodStart time.Time    `json:"periodStart"`
	PeriodEnd   time.Time    `json:"periodEnd"`
	Requests    int64        `json:"requests"`
	Tokens      int64        `json:"tokens"`
	Budget      BudgetStatus `json:"budget"`
}

// BudgetStatus reports the token budget. Limit and Remaining are -1 when unlimited.
type BudgetStatus struct {
	Limit     int64     `json:"limit"`
	Remaining int64     `json:"remaining"`
	Exhausted bool      `json:"exhausted"`
	ResetsAt  time.Time `json:"resetsAt"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (r *SearchRequest) toDomain() (request.Request, error) {
	var f request.Filters
	if r.Filters != nil {
		f = request.Filters{
			Category:    r.Filters.Category,
			Brand:       r.Filters.Brand,
			MinPrice:    r.Filters.MinPrice,
			MaxPrice:    r.Filters.MaxPrice,
			InStock:     r.Filters.InStock,
			Collections: r.Filters.Collections,
		}
	}
	limit := 0
	if r.Limit != nil {
		// An explicit 0 is out of range, unlike an omitted limit.
		if *r.Limit == 0 {
			return request.Request{}, errLimitRange
		}
		limit = *r.Limit
	}
	return request.New(r.Query, r.MerchantID, limit, f) //nolint:wrapcheck // validation message goes to the client as is
}

func searchResponseFrom(resp searchuc.Response) SearchResponse {
	out := SearchResponse{
		Success: resp.Success,
		Meta: SearchMeta{
			Query:        resp.Meta.Query,
			TotalResults: resp.Meta.TotalResults,
			LatencyMs:    resp.Meta.LatencyMs,
			AppliedRules: nonNil(resp.Meta.AppliedRules),
		},
		Banners:  make([]SearchBanner, len(resp.Banners)),
		Products: make([]SearchProduct, len(resp.Products)),
	}
	for i, b := range resp.Banners {
		out.Banners[i] = bannerFrom(b)
	}
	for i := range resp.Products {
		out.Products[i] = productFrom(&resp.Products[i])
	}
	return out
}

func bannerFrom(b rule.Banner) SearchBanner {
	return SearchBanner{Text: b.Text, Link: optString(b.Link), Position: string(b.Position)}
}

func productFrom(p *searchuc.Product) SearchProduct {
	sp := SearchProduct{
		ID:          p.ID,
		Title:       p.Title,
		Description: optString(p.Description),
		Category:    p.Category,
		Brand:       p.Brand,
		Price:       formatPrice(p.Price),
		Currency:    p.Currency,
		Stock:       p.Stock,
		URL:         optString(p.URL),
		Image:       optString(p.PrimaryImage()),
		Collections: nonNil(p.Collections),
		Tags:        nonNil(p.Tags),
		Score:       p.Score,
	}
	if p.OriginalPrice != nil {
		op := formatPrice(*p.OriginalPrice)
		sp.OriginalPrice = &op
	}
	return sp
}

func usageResponseFrom(r domusage.Report) UsageResponse {
	w := r.Window()
	limit := w.Limit
	if limit == 0 {
		limit = -1
	}
	return UsageResponse{
		Provider:    r.Provider(),
		Model:       r.Model(),
		Period:      string(w.Period),
		PeriodStart: w.Start.UTC(),
		PeriodEnd:   w.End.UTC(),
		Requests:    w.Requests,
		Tokens:      w.Tokens,
		Budget: BudgetStatus{
			Limit:     limit,
			Remaining: w.Remaining(),
			Exhausted: w.Exhausted(),
			ResetsAt:  w.End.UTC(),
		},
	}
}

func formatPrice(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
