package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/shelfsearch/internal/domain"
	"github.com/kailas-cloud/shelfsearch/internal/domain/catalog"
	"github.com/kailas-cloud/shelfsearch/internal/domain/rule"
	domusage "github.com/kailas-cloud/shelfsearch/internal/domain/usage"
	healthuc "github.com/kailas-cloud/shelfsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/shelfsearch/internal/usecase/search"
)

func searchBody(extra string) string {
	return fmt.Sprintf(`{"query":"red sneakers","merchantId":%q%s}`, testMerchant, extra)
}

func decodeError(t *testing.T, body string) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	return e
}

func TestSearch_Success(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})
	orig := 120.0
	env.searcher.embed = true
	env.searcher.tokens = 3
	env.searcher.resp = searchuc.Response{
		Success: true,
		Meta:    searchuc.Meta{Query: "red sneakers", TotalResults: 1, LatencyMs: 12, AppliedRules: []string{"Boost shoes"}},
		Banners: []rule.Banner{{Text: "Free shipping", Position: rule.BannerBottom}},
		Products: []searchuc.Product{{
			Product: catalog.Product{
				ID: "p1", Title: "Runner", Category: "shoes", Brand: "Acme",
				Price: 89.5, OriginalPrice: &orig, Currency: "USD", Stock: 4,
				Images: []string{"https://img/1.jpg", "https://img/2.jpg"},
			},
			Score: 1.8,
		}},
	}

	rr := env.do(http.MethodPost, "/search", searchBody(`,"limit":5,"filters":{"category":"shoes","inStock":true}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("X-Embedding-Tokens"); got != "3" {
		t.Errorf("X-Embedding-Tokens = %q, want 3", got)
	}
	if got := rr.Header().Get("X-Embedding-Cache"); got != "miss" {
		t.Errorf("X-Embedding-Cache = %q, want miss", got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	req := env.searcher.got
	if req.Limit() != 5 || req.MerchantID() != testMerchant {
		t.Errorf("request = limit %d merchant %s", req.Limit(), req.MerchantID())
	}
	if f := req.Filters(); f.Category == nil || *f.Category != "shoes" || f.InStock == nil || !*f.InStock {
		t.Errorf("filters = %+v", f)
	}

	var resp SearchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Meta.TotalResults != 1 || resp.Meta.AppliedRules[0] != "Boost shoes" {
		t.Errorf("meta = %+v", resp.Meta)
	}
	p := resp.Products[0]
	if p.Price != "89.50" || p.OriginalPrice == nil || *p.OriginalPrice != "120.00" {
		t.Errorf("prices = %q / %v", p.Price, p.OriginalPrice)
	}
	if p.Image == nil || *p.Image != "https://img/1.jpg" {
		t.Errorf("image = %v", p.Image)
	}
	if p.Description != nil || p.URL != nil {
		t.Errorf("empty description/url should be null, got %v / %v", p.Description, p.URL)
	}
	if p.Collections == nil || p.Tags == nil {
		t.Error("collections and tags must be arrays")
	}
	if resp.Banners[0].Position != "bottom" || resp.Banners[0].Link != nil {
		t.Errorf("banner = %+v", resp.Banners[0])
	}
}

func TestSearch_NoResultSetEnvelope(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})
	env.searcher.resp = searchuc.Response{
		Meta:     searchuc.Meta{Query: "red sneakers", AppliedRules: []string{}},
		Banners:  []rule.Banner{},
		Products: []searchuc.Product{},
	}

	rr := env.do(http.MethodPost, "/api/v1/search", searchBody(""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	want := `{"success":false,"meta":{"query":"red sneakers","totalResults":0,"latencyMs":0,"appliedRules":[]},"banners":[],"products":[]}`
	if got := strings.TrimSpace(rr.Body.String()); got != want {
		t.Errorf("body = %s\nwant   %s", got, want)
	}
	if rr.Header().Get("X-Embedding-Tokens") != "" {
		t.Error("no embedding header expected when nothing was embedded")
	}
}

func TestSearch_CacheHitReportsZeroTokens(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})
	env.searcher.embed = true
	env.searcher.cached = true

	rr := env.do(http.MethodPost, "/search", searchBody(""))
	if got := rr.Header().Get("X-Embedding-Tokens"); got != "0" {
		t.Errorf("X-Embedding-Tokens = %q, want 0", got)
	}
	if got := rr.Header().Get("X-Embedding-Cache"); got != "hit" {
		t.Errorf("X-Embedding-Cache = %q, want hit", got)
	}
}

func TestSearch_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code ErrorCode
	}{
		{"malformed json", `{"query":`, CodeBadRequest},
		{"wrong type", `{"query":42}`, CodeBadRequest},
		{"empty query", fmt.Sprintf(`{"query":"","merchantId":%q}`, testMerchant), CodeValidationFailed},
		{"long query", fmt.Sprintf(`{"query":%q,"merchantId":%q}`, strings.Repeat("a", 501), testMerchant), CodeValidationFailed},
		{"missing merchant", `{"query":"shoes"}`, CodeValidationFailed},
		{"merchant not uuid", `{"query":"shoes","merchantId":"m-1"}`, CodeValidationFailed},
		{"limit zero", searchBody(`,"limit":0`), CodeValidationFailed},
		{"limit too big", searchBody(`,"limit":101`), CodeValidationFailed},
		{"negative price", searchBody(`,"filters":{"minPrice":-1}`), CodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, RouterConfig{})
			rr := env.do(http.MethodPost, "/search", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if e := decodeError(t, rr.Body.String()); e.Code != tt.code {
				t.Errorf("code = %s, want %s", e.Code, tt.code)
			}
			if env.searcher.got != nil {
				t.Error("pipeline must not run for an invalid request")
			}
		})
	}
}

func TestSearch_DomainErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   ErrorCode
	}{
		{fmt.Errorf("x: %w", domain.ErrInvalidRequest), http.StatusBadRequest, CodeValidationFailed},
		{fmt.Errorf("budget check: %w", domain.ErrEmbeddingQuotaExceeded), http.StatusPaymentRequired, CodeEmbeddingQuotaExceeded},
		{fmt.Errorf("vectorize query: %w", domain.ErrEmbeddingProviderError), http.StatusBadGateway, CodeEmbeddingProviderError},
		{fmt.Errorf("%w: knn: boom", domain.ErrVectorIndexUnavailable), http.StatusServiceUnavailable, CodeVectorIndexUnavailable},
		{fmt.Errorf("load rules: %w", domain.ErrRuleStoreUnavailable), http.StatusServiceUnavailable, CodeRuleStoreUnavailable},
		{fmt.Errorf("hydrate: %w", domain.ErrCatalogUnavailable), http.StatusServiceUnavailable, CodeCatalogUnavailable},
		{fmt.Errorf("embed: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, CodeTimeout},
		{errors.New("redis: secret internals"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			env := newTestEnv(t, RouterConfig{})
			env.searcher.err = tt.err

			rr := env.do(http.MethodPost, "/search", searchBody(""))
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			e := decodeError(t, rr.Body.String())
			if e.Code != tt.code {
				t.Errorf("code = %s, want %s", e.Code, tt.code)
			}
			if strings.Contains(e.Message, "secret") || strings.Contains(e.Message, "boom") {
				t.Errorf("message leaks internals: %q", e.Message)
			}
		})
	}
}

func TestSearch_RequestTimeout(t *testing.T) {
	env := newTestEnv(t, RouterConfig{RequestTimeout: time.Minute})

	env.do(http.MethodPost, "/search", searchBody(""))

	if _, ok := env.searcher.ctx.Deadline(); !ok {
		t.Error("expected request context deadline")
	}
}

func TestSearch_AuthRequired(t *testing.T) {
	env := newTestEnv(t, RouterConfig{APIKeys: []string{"secret"}})

	if rr := env.do(http.MethodPost, "/search", searchBody("")); rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if rr := env.do(http.MethodGet, "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200 without key", rr.Code)
	}
}

func TestGetUsage(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	rr := env.do(http.MethodGet, "/usage", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if env.usage.period != domusage.PeriodMonth {
		t.Errorf("period = %q, want month default", env.usage.period)
	}
	var resp UsageResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Provider != "openai" || resp.Budget.Limit != -1 || resp.Budget.Remaining != -1 {
		t.Errorf("usage = %+v", resp)
	}
	if !resp.Budget.ResetsAt.Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("resetsAt = %v", resp.Budget.ResetsAt)
	}

	env.do(http.MethodGet, "/usage?period=day", "")
	if env.usage.period != domusage.PeriodDay {
		t.Errorf("period = %q, want day", env.usage.period)
	}

	if rr := env.do(http.MethodGet, "/usage?period=year", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad period status = %d, want 400", rr.Code)
	}
}

func TestGetUsage_Disabled(t *testing.T) {
	h := NewRouter(NewServer(&fakeSearcher{}, nil, &fakeHealth{}), RouterConfig{})
	env := &testEnv{handler: h}
	if rr := env.do(http.MethodGet, "/usage", ""); rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	rr := env.do(http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	env.health.report = healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{
			healthuc.ComponentDatabase:  healthuc.CheckOK,
			healthuc.ComponentEmbedding: healthuc.CheckError,
		},
	}
	rr = env.do(http.MethodGet, "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded status = %d, want 503", rr.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "degraded" || resp.Checks["embedding"] != "error" {
		t.Errorf("health = %+v", resp)
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	if rr := env.do(http.MethodGet, "/nope", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown route = %d", rr.Code)
	}
	rr := env.do(http.MethodGet, "/search", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /search = %d, want 405", rr.Code)
	}
	if e := decodeError(t, rr.Body.String()); e.Code != CodeBadRequest {
		t.Errorf("code = %s", e.Code)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(nopLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	env := &testEnv{handler: h}

	rr := env.do(http.MethodGet, "/", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if e := decodeError(t, rr.Body.String()); e.Code != CodeInternalError {
		t.Errorf("code = %s", e.Code)
	}
}

func TestMetrics_ExposesHTTPMetrics(t *testing.T) {
	env := newTestEnv(t, RouterConfig{APIKeys: []string{"secret"}, Logger: nopLogger()})

	env.do(http.MethodGet, "/health", "")
	rr := env.do(http.MethodGet, "/metrics", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 without credentials, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "shelfsearch_http_requests_total") {
		t.Error("expected shelfsearch_http_requests_total in exposition")
	}
}
