// Package budget persists embedding token counters so budgets survive restarts.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/shelfsearch/internal/db"
)

// Counter TTLs outlive their period so a restart near a boundary still loads them.
const (
	DefaultDailyTTL   = 48 * time.Hour
	DefaultMonthlyTTL = 62 * 24 * time.Hour
)

type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps one integer key per provider and period,
// laid out as <prefix>budget:<provider>:daily|monthly:<date>.
type Store struct {
	kv      kv
	daily   time.Duration
	monthly time.Duration
}

// New returns a Store. Non-positive TTLs fall back to the defaults.
func New(s kv, dailyTTL, monthlyTTL time.Duration) *Store {
	st := &Store{kv: s, daily: DefaultDailyTTL, monthly: DefaultMonthlyTTL}
	if dailyTTL > 0 {
		st.daily = dailyTTL
	}
	if monthlyTTL > 0 {
		st.monthly = monthlyTTL
	}
	return st
}

// IncrBy adds val to the counter. The expiry is only set on the first write of a period.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.kv.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("increment budget counter %s: %w", key, err)
	}
	if err := s.kv.Expire(ctx, key, s.expiryFor(key), true); err != nil {
		return fmt.Errorf("expire budget counter %s: %w", key, err)
	}
	return nil
}

// Get reads a counter. A key that was never written counts as zero.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read budget counter %s: %w", key, err)
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget counter %s holds %q: %w", key, data, err)
	}
	return n, nil
}

func (s *Store) expiryFor(key string) time.Duration {
	if strings.Contains(key, ":daily:") {
		return s.daily
	}
	return s.monthly
}
