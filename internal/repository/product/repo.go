// Package product hydrates full catalog records from product hashes.
package product

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shelfsearch/internal/domain"
	"github.com/kailas-cloud/shelfsearch/internal/domain/catalog"
	"github.com/kailas-cloud/shelfsearch/internal/logger"
)

// store is the consumer interface for product reads (ISP).
type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo implements usecase/search.ProductHydrator.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a product repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// GetMany fetches products by id in one round-trip. The result is in request order
// but contains only hits: empty hashes and products of another merchant are misses.
func (r *Repo) GetMany(ctx context.Context, merchantID string, ids []string) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: hydrate %d products: %w", domain.ErrCatalogUnavailable, len(ids), err)
	}

	log := logger.FromContext(ctx)
	out := make([]catalog.Product, 0, len(ids))
	for i, h := range hashes {
		if len(h) == 0 {
			continue
		}
		p, err := parseHash(ids[i], h)
		if err != nil {
			log.Warn("Skipping malformed product record", zap.String("product_id", ids[i]), zap.Error(err))
			continue
		}
		if p.MerchantID != merchantID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *Repo) key(id string) string {
	return fmt.Sprintf("%sproduct:%s", r.keyPrefix, id)
}
