package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/shelfsearch/internal/domain/catalog"
	"github.com/kailas-cloud/shelfsearch/internal/domain/rule"
	"github.com/kailas-cloud/shelfsearch/internal/ranking"
)

const defaultLimit = 10

// fixture is a captured search: the query, the raw candidates and the merchant's rules
// in their persisted shape.
type fixture struct {
	Query      string             `json:"query"`
	Limit      int                `json:"limit"`
	Candidates []fixtureCandidate `json:"candidates"`
	Rules      []rule.Record      `json:"rules"`
}

type fixtureCandidate struct {
	ID          string   `json:"id"`
	Score       float64  `json:"score"`
	MerchantID  string   `json:"merchantId"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand"`
	Price       float64  `json:"price"`
	InStock     bool     `json:"inStock"`
	Collections []string `json:"collections"`
	Title       string   `json:"title"`
}

func (c fixtureCandidate) toDomain() catalog.Candidate {
	return catalog.Candidate{
		ID:    c.ID,
		Score: c.Score,
		Attributes: catalog.Attributes{
			MerchantID:  c.MerchantID,
			Category:    c.Category,
			Brand:       c.Brand,
			Price:       c.Price,
			InStock:     c.InStock,
			Collections: c.Collections,
			Title:       c.Title,
		},
	}
}

type replayOutput struct {
	Query        string         `json:"query"`
	Results      []replayResult `json:"results"`
	AppliedRules []string       `json:"appliedRules"`
	Banners      []replayBanner `json:"banners"`
	Steps        []replayStep   `json:"steps,omitempty"`
}

type replayResult struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type replayBanner struct {
	Text     string `json:"text"`
	Link     string `json:"link"`
	Position string `json:"position"`
}

type replayStep struct {
	Rule    string `json:"rule"`
	Type    string `json:"type"`
	Applied bool   `json:"applied"`
	Before  int    `json:"before"`
	After   int    `json:"after"`
}

func replayCommand(c *cli.Context) error {
	in, closeIn, err := openFixture(c.String("file"), c.App.Reader)
	if err != nil {
		return err
	}
	defer closeIn()

	fx, err := decodeFixture(in)
	if err != nil {
		return err
	}
	if l := c.Int("limit"); l > 0 {
		fx.Limit = l
	}

	var logger *zap.Logger
	if c.Bool("explain") {
		logger = stepLogger(c.App.ErrWriter)
	}

	out := replay(fx, c.Bool("explain"), logger)

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func openFixture(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, nil, fmt.Errorf("open fixture: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func decodeFixture(r io.Reader) (fixture, error) {
	var fx fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	if fx.Limit <= 0 {
		fx.Limit = defaultLimit
	}
	return fx, nil
}

// replay ranks the fixture the same way the search pipeline does after retrieval.
func replay(fx fixture, explain bool, logger *zap.Logger) replayOutput {
	candidates := make([]catalog.Candidate, len(fx.Candidates))
	for i, c := range fx.Candidates {
		candidates[i] = c.toDomain()
	}
	rules := make([]rule.Rule, len(fx.Rules))
	for i := range fx.Rules {
		rules[i] = rule.Parse(&fx.Rules[i])
	}

	res := ranking.Rank(rules, candidates, fx.Query)
	ranked := ranking.Truncate(res.Candidates, fx.Limit)

	out := replayOutput{
		Query:        fx.Query,
		Results:      make([]replayResult, len(ranked)),
		AppliedRules: res.AppliedRules,
		Banners:      make([]replayBanner, len(res.Banners)),
	}
	for i, c := range ranked {
		out.Results[i] = replayResult{ID: c.ID, Score: c.Score}
	}
	for i, b := range res.Banners {
		out.Banners[i] = replayBanner{Text: b.Text, Link: b.Link, Position: string(b.Position)}
	}

	if !explain {
		return out
	}
	out.Steps = make([]replayStep, len(res.Steps))
	for i, s := range res.Steps {
		out.Steps[i] = replayStep{
			Rule: s.Rule, Type: string(s.Type), Applied: s.Applied, Before: s.Before, After: s.After,
		}
		if logger != nil {
			logger.Info("rule step",
				zap.Int("order", i+1),
				zap.String("rule", s.Rule),
				zap.String("type", string(s.Type)),
				zap.Bool("applied", s.Applied),
				zap.Int("before", s.Before),
				zap.Int("after", s.After),
			)
		}
	}
	return out
}

// stepLogger writes human-readable step lines to w.
func stepLogger(w io.Writer) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), zapcore.InfoLevel)
	return zap.New(core)
}
