package search

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/shelfsearch/internal/domain"
	"github.com/kailas-cloud/shelfsearch/internal/domain/catalog"
	"github.com/kailas-cloud/shelfsearch/internal/domain/rule"
	"github.com/kailas-cloud/shelfsearch/internal/domain/search/request"
	"github.com/kailas-cloud/shelfsearch/internal/logger"
	"github.com/kailas-cloud/shelfsearch/internal/metrics"
	"github.com/kailas-cloud/shelfsearch/internal/ranking"
	"github.com/kailas-cloud/shelfsearch/internal/tracing"
)

// Search outcomes used as metric labels.
const (
	outcomeOK        = "ok"
	outcomeNoResults = "no_results"
	outcomeError     = "error"
)

// Service runs the product search pipeline: embed, retrieve, rank with merchant
// rules, hydrate.
type Service struct {
	embed      Embedder
	candidates CandidateSearcher
	rules      RuleReader
	products   ProductHydrator
	now        func() time.Time
}

// New creates a search service.
func New(embed Embedder, candidates CandidateSearcher, rules RuleReader, products ProductHydrator) *Service {
	return &Service{
		embed:      embed,
		candidates: candidates,
		rules:      rules,
		products:   products,
		now:        time.Now,
	}
}

// Execute runs one search. Retrieval and the rule fetch run concurrently; rule
// application is sequential. A missing result set from the index yields an
// unsuccessful empty response, not an error.
func (s *Service) Execute(ctx context.Context, req *request.Request) (Response, error) {
	start := s.now()
	ctx, span := tracing.StartStage(ctx, tracing.StageSearch,
		attribute.String("shelfsearch.merchant_id", req.MerchantID()),
		attribute.Int("shelfsearch.limit", req.Limit()),
	)
	defer span.End()
	ctx = logger.With(ctx, zap.String("merchant_id", req.MerchantID()), zap.String("query", req.Query()))

	resp, outcome, err := s.execute(ctx, req, start)
	metrics.SearchDuration.WithLabelValues(outcome).Observe(s.now().Sub(start).Seconds())
	if err != nil {
		tracing.RecordError(span, err)
		return Response{}, err
	}
	span.SetAttributes(
		attribute.Bool("shelfsearch.success", resp.Success),
		attribute.Int("shelfsearch.total_results", resp.Meta.TotalResults),
	)
	return resp, nil
}

func (s *Service) execute(ctx context.Context, req *request.Request, start time.Time) (Response, string, error) {
	log := logger.FromContext(ctx)

	var (
		found    []catalog.Candidate
		rules    []rule.Rule
		rulesErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vec, err := s.embedQuery(gctx, req.Query())
		if err != nil {
			return err
		}
		found, err = s.retrieve(gctx, vec, req)
		return err
	})
	// A rule store failure only matters once the index has produced a result set.
	g.Go(func() error {
		rules, rulesErr = s.loadRules(gctx, req.MerchantID())
		return nil
	})
	if err := g.Wait(); err != nil {
		return Response{}, outcomeError, err
	}

	if found == nil {
		log.Debug("vector index returned no result set", zap.String("merchant_id", req.MerchantID()))
		return noResultSet(req.Query()), outcomeNoResults, nil
	}
	if rulesErr != nil {
		return Response{}, outcomeError, rulesErr
	}
	if err := ctx.Err(); err != nil {
		return Response{}, outcomeError, fmt.Errorf("search canceled: %w", err)
	}

	ranked := s.rank(ctx, rules, found, req)

	records, err := s.hydrate(ctx, req.MerchantID(), ranked.Candidates)
	if err != nil {
		return Response{}, outcomeError, err
	}

	latency := s.now().Sub(start).Milliseconds()
	resp := Assemble(req.Query(), ranked.Candidates, records, ranked.AppliedRules, ranked.Banners, latency)

	if dropped := len(ranked.Candidates) - resp.Meta.TotalResults; dropped > 0 {
		metrics.HydrationMissesTotal.Add(float64(dropped))
		log.Debug("dropped candidates without product record", zap.Int("count", dropped))
	}
	metrics.SearchResults.Observe(float64(resp.Meta.TotalResults))
	log.Debug("search ranked",
		zap.Int("candidates", len(found)),
		zap.Int("rules", len(rules)),
		zap.Strings("applied_rules", ranked.AppliedRules),
		zap.Int("banners", len(ranked.Banners)),
		zap.Int("results", resp.Meta.TotalResults),
	)
	return resp, outcomeOK, nil
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, span := tracing.StartStage(ctx, tracing.StageEmbed)
	defer span.End()
	defer observeStage(tracing.StageEmbed, time.Now())

	res, err := s.embed.Embed(ctx, query)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)
	span.SetAttributes(attribute.Int("shelfsearch.embedding_tokens", res.TotalTokens))
	return res.Embedding, nil
}

func (s *Service) retrieve(ctx context.Context, vec []float32, req *request.Request) ([]catalog.Candidate, error) {
	ctx, span := tracing.StartStage(ctx, tracing.StageRetrieve,
		attribute.Int("shelfsearch.candidate_limit", req.CandidateLimit()))
	defer span.End()
	defer observeStage(tracing.StageRetrieve, time.Now())

	found, err := s.candidates.SearchCandidates(ctx, vec, catalog.Query{
		MerchantID: req.MerchantID(),
		Limit:      req.CandidateLimit(),
		Filters:    req.Expression(),
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	span.SetAttributes(
		attribute.Bool("shelfsearch.result_set", found != nil),
		attribute.Int("shelfsearch.candidates", len(found)),
	)
	return found, nil
}

func (s *Service) loadRules(ctx context.Context, merchantID string) ([]rule.Rule, error) {
	ctx, span := tracing.StartStage(ctx, tracing.StageRules)
	defer span.End()
	defer observeStage(tracing.StageRules, time.Now())

	rules, err := s.rules.ListRules(ctx, merchantID)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("load rules: %w", err)
	}
	span.SetAttributes(attribute.Int("shelfsearch.rules", len(rules)))
	return rules, nil
}

func (s *Service) rank(
	ctx context.Context, rules []rule.Rule, found []catalog.Candidate, req *request.Request,
) ranking.Result {
	_, span := tracing.StartStage(ctx, tracing.StageRank)
	defer span.End()
	defer observeStage(tracing.StageRank, time.Now())

	res := ranking.Rank(rules, found, req.Query())
	res.Candidates = ranking.Truncate(res.Candidates, req.Limit())

	for _, typ := range res.AppliedTypes {
		metrics.RulesAppliedTotal.WithLabelValues(string(typ)).Inc()
	}
	span.SetAttributes(
		attribute.StringSlice("shelfsearch.applied_rules", res.AppliedRules),
		attribute.Int("shelfsearch.ranked", len(res.Candidates)),
	)
	return res
}

func (s *Service) hydrate(ctx context.Context, merchantID string, ranked []catalog.Candidate) ([]catalog.Product, error) {
	if len(ranked) == 0 {
		return nil, nil
	}
	ctx, span := tracing.StartStage(ctx, tracing.StageHydrate, attribute.Int("shelfsearch.ids", len(ranked)))
	defer span.End()
	defer observeStage(tracing.StageHydrate, time.Now())

	records, err := s.products.GetMany(ctx, merchantID, catalog.IDs(ranked))
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("hydrate products: %w", err)
	}
	return records, nil
}

func observeStage(stage string, start time.Time) {
	metrics.SearchStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
