package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shelfsearch/internal/domain"
	"github.com/kailas-cloud/shelfsearch/internal/domain/search/request"
	domusage "github.com/kailas-cloud/shelfsearch/internal/domain/usage"
	healthuc "github.com/kailas-cloud/shelfsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/shelfsearch/internal/usecase/search"
)

const testMerchant = "7f3c2a1e-5b4d-4c8e-9a6f-1d2e3f4a5b6c"

type fakeSearcher struct {
	resp   searchuc.Response
	err    error
	tokens int
	embed  bool
	cached bool
	got    *request.Request
	ctx    context.Context
}

func (f *fakeSearcher) Execute(ctx context.Context, req *request.Request) (searchuc.Response, error) {
	f.got = req
	f.ctx = ctx
	if f.embed {
		u := domain.UsageFromContext(ctx)
		u.AddTokens(f.tokens)
		if f.cached {
			u.MarkCacheHit()
		}
	}
	return f.resp, f.err
}

type fakeUsage struct {
	report domusage.Report
	period domusage.Period
}

func (f *fakeUsage) GetReport(_ context.Context, p domusage.Period) domusage.Report {
	f.period = p
	return f.report
}

type fakeHealth struct {
	report healthuc.Report
}

func (f *fakeHealth) Check(context.Context) healthuc.Report { return f.report }

type testEnv struct {
	searcher *fakeSearcher
	usage    *fakeUsage
	health   *fakeHealth
	handler  http.Handler
}

func newTestEnv(t *testing.T, cfg RouterConfig) *testEnv {
	t.Helper()
	env := &testEnv{
		searcher: &fakeSearcher{},
		usage: &fakeUsage{report: domusage.NewReport("openai", "text-embedding-3-small", domusage.Window{
			Period: domusage.PeriodMonth,
			Start:  time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			End:    time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		})},
		health: &fakeHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{healthuc.ComponentDatabase: healthuc.CheckOK},
		}},
	}
	env.handler = NewRouter(NewServer(env.searcher, env.usage, env.health), cfg)
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func nopLogger() *zap.Logger { return zap.NewNop() }
