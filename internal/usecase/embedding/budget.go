package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shelfsearch/internal/domain"
	"github.com/kailas-cloud/shelfsearch/internal/domain/usage"
	"github.com/kailas-cloud/shelfsearch/internal/metrics"
)

// BudgetAction defines behavior when the token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but lets the search through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject fails the search with ErrEmbeddingQuotaExceeded.
	BudgetActionReject BudgetAction = "reject"
)

// persistTimeout bounds write-behind store updates.
const persistTimeout = 2 * time.Second

// BudgetStore persists token counters. IncrBy may be called repeatedly for the same key.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// BudgetConfig holds the limits for one embedding provider. A zero limit is unlimited.
type BudgetConfig struct {
	Provider     string
	KeyPrefix    string
	DailyLimit   int64
	MonthlyLimit int64
	Action       BudgetAction
}

type counter struct {
	start    time.Time
	tokens   int64
	requests int64
}

// BudgetTracker keeps daily and monthly token counters in memory with optional
// write-behind persistence. Check never leaves the process.
type BudgetTracker struct {
	mu      sync.Mutex
	cfg     BudgetConfig
	daily   counter
	monthly counter
	store   BudgetStore
	now     func() time.Time
	logger  *zap.Logger
}

// NewBudgetTracker creates a tracker starting from zero usage.
func NewBudgetTracker(cfg BudgetConfig, logger *zap.Logger) *BudgetTracker {
	if cfg.Action == "" {
		cfg.Action = BudgetActionWarn
	}
	b := &BudgetTracker{cfg: cfg, now: time.Now, logger: logger}
	b.daily.start, _ = usage.Bounds(usage.PeriodDay, b.now())
	b.monthly.start, _ = usage.Bounds(usage.PeriodMonth, b.now())
	return b
}

// WithStore attaches a persistence store and loads the current period counters.
// Load failures are logged and leave the counters at zero.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.store = store
	b.loadFromStore(ctx)
	return b
}

func (b *BudgetTracker) loadFromStore(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now().UTC()
	if val, err := b.store.Get(ctx, b.key(usage.PeriodDay, now)); err == nil {
		b.daily.tokens = val
	} else {
		b.logger.Warn("Failed to load daily budget from store", zap.Error(err))
	}
	if val, err := b.store.Get(ctx, b.key(usage.PeriodMonth, now)); err == nil {
		b.monthly.tokens = val
	} else {
		b.logger.Warn("Failed to load monthly budget from store", zap.Error(err))
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.cfg.Provider),
		zap.Int64("daily_used", b.daily.tokens),
		zap.Int64("monthly_used", b.monthly.tokens),
	)
}

// key names the counter of period containing t, e.g. shelfsearch:budget:openai:daily:2026-10-14.
func (b *BudgetTracker) key(period usage.Period, t time.Time) string {
	if period == usage.PeriodDay {
		return fmt.Sprintf("%sbudget:%s:daily:%s", b.cfg.KeyPrefix, b.cfg.Provider, t.Format("2006-01-02"))
	}
	return fmt.Sprintf("%sbudget:%s:monthly:%s", b.cfg.KeyPrefix, b.cfg.Provider, t.Format("2006-01"))
}

// Check reports whether another embedding request is allowed.
func (b *BudgetTracker) Check(ctx context.Context) error {
	b.mu.Lock()
	b.resetIfNeeded()
	daily := b.window(usage.PeriodDay)
	monthly := b.window(usage.PeriodMonth)
	b.mu.Unlock()

	if !daily.Exhausted() && !monthly.Exhausted() {
		return nil
	}
	metrics.EmbeddingBudgetExceededTotal.WithLabelValues(b.cfg.Provider, string(b.cfg.Action)).Inc()
	if b.cfg.Action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}

	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.cfg.Provider),
		zap.Int64("daily_used", daily.Tokens),
		zap.Int64("daily_limit", daily.Limit),
		zap.Int64("monthly_used", monthly.Tokens),
		zap.Int64("monthly_limit", monthly.Limit),
	)
	return nil
}

// Record adds one request worth of tokens, then writes behind to the store.
// Store writes outlive ctx cancellation but are bounded by persistTimeout.
func (b *BudgetTracker) Record(ctx context.Context, tokens int64) {
	b.mu.Lock()
	b.resetIfNeeded()
	b.daily.tokens += tokens
	b.daily.requests++
	b.monthly.tokens += tokens
	b.monthly.requests++
	now := b.now().UTC()
	b.mu.Unlock()

	if b.store == nil || tokens == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	for _, period := range []usage.Period{usage.PeriodDay, usage.PeriodMonth} {
		key := b.key(period, now)
		if err := b.store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// Window returns the current counters for period.
func (b *BudgetTracker) Window(period usage.Period) usage.Window {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	return b.window(period)
}

func (b *BudgetTracker) window(period usage.Period) usage.Window {
	c, limit := b.monthly, b.cfg.MonthlyLimit
	if period == usage.PeriodDay {
		c, limit = b.daily, b.cfg.DailyLimit
	}
	_, end := usage.Bounds(period, c.start)
	return usage.Window{
		Period:   period,
		Start:    c.start,
		End:      end,
		Requests: c.requests,
		Tokens:   c.tokens,
		Limit:    limit,
	}
}

// resetIfNeeded zeroes counters when the day or month rolls over.
func (b *BudgetTracker) resetIfNeeded() {
	now := b.now()
	if day, _ := usage.Bounds(usage.PeriodDay, now); day.After(b.daily.start) {
		b.daily = counter{start: day}
	}
	if month, _ := usage.Bounds(usage.PeriodMonth, now); month.After(b.monthly.start) {
		b.monthly = counter{start: month}
	}
}
