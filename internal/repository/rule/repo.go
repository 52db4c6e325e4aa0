// Package rule loads merchant merchandising rules from the JSON store.
package rule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shelfsearch/internal/db"
	"github.com/kailas-cloud/shelfsearch/internal/domain"
	domrule "github.com/kailas-cloud/shelfsearch/internal/domain/rule"
	"github.com/kailas-cloud/shelfsearch/internal/logger"
)

// store is the consumer interface for rule reads (ISP).
type store interface {
	JSONGet(ctx context.Context, key string) ([]byte, error)
}

// Repo implements usecase/search.RuleReader.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a rule repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// ListRules returns every rule stored for the merchant, in stored order.
// A merchant without a rule document has no rules. Records that fail to decode
// or belong to another merchant are skipped with a warning.
func (r *Repo) ListRules(ctx context.Context, merchantID string) ([]domrule.Rule, error) {
	key := r.key(merchantID)
	data, err := r.store.JSONGet(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return []domrule.Rule{}, nil
		}
		return nil, fmt.Errorf("%w: get %s: %w", domain.ErrRuleStoreUnavailable, key, err)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrRuleStoreUnavailable, key, err)
	}

	log := logger.FromContext(ctx)
	rules := make([]domrule.Rule, 0, len(raws))
	for i, raw := range raws {
		var rec domrule.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Warn("Skipping undecodable rule record",
				zap.String("merchant_id", merchantID), zap.Int("index", i), zap.Error(err))
			continue
		}
		if rec.MerchantID != "" && rec.MerchantID != merchantID {
			log.Warn("Skipping rule of another merchant",
				zap.String("merchant_id", merchantID), zap.String("rule_id", rec.ID))
			continue
		}
		rules = append(rules, domrule.Parse(&rec))
	}
	return rules, nil
}

func (r *Repo) key(merchantID string) string {
	return fmt.Sprintf("%srules:%s", r.keyPrefix, merchantID)
}
