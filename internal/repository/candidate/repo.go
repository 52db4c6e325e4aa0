// Package candidate retrieves product candidates from a Redis vector index.
package candidate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/shelfsearch/internal/db"
	"github.com/kailas-cloud/shelfsearch/internal/domain"
	"github.com/kailas-cloud/shelfsearch/internal/domain/catalog"
	"github.com/kailas-cloud/shelfsearch/internal/domain/search/filter"
)

// DefaultIndex is the FT index over product hashes.
const DefaultIndex = "products"

// collectionSeparator splits the collections TAG field.
const collectionSeparator = ","

// returnFields are the payload attributes read back with each hit.
var returnFields = []string{
	filter.FieldMerchantID,
	filter.FieldCategory,
	filter.FieldBrand,
	filter.FieldPrice,
	filter.FieldInStock,
	filter.FieldCollections,
	"title",
	"image",
	"url",
}

// store is the consumer interface for candidate retrieval (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.CandidateSearcher over FT.SEARCH.
type Repo struct {
	store     store
	index     string
	keyPrefix string
	efRuntime int
}

// New creates a candidate repository. keyPrefix is the storage prefix shared with product hashes.
func New(s store, keyPrefix, index string) *Repo {
	if index == "" {
		index = DefaultIndex
	}
	return &Repo{store: s, index: keyPrefix + index, keyPrefix: keyPrefix}
}

// WithEFRuntime sets the HNSW EF_RUNTIME used by every query; 0 keeps the index default.
func (r *Repo) WithEFRuntime(ef int) *Repo {
	r.efRuntime = ef
	return r
}

// SearchCandidates runs a merchant-scoped KNN search.
// A missing index yields a nil slice, which callers treat as "no result set".
func (r *Repo) SearchCandidates(
	ctx context.Context, vector []float32, q catalog.Query,
) ([]catalog.Candidate, error) {
	merchant, err := filter.NewMatch(filter.FieldMerchantID, q.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("merchant filter: %w", err)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.index,
		Filters:      q.Filters.With(merchant),
		Vector:       vector,
		K:            q.Limit,
		EFRuntime:    r.efRuntime,
		ReturnFields: returnFields,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: knn %s: %w", domain.ErrVectorIndexUnavailable, r.index, err)
	}

	return r.toCandidates(sr), nil
}

// toCandidates converts search entries into candidates. A nil result becomes an empty, non-nil list.
func (r *Repo) toCandidates(sr *db.SearchResult) []catalog.Candidate {
	if sr == nil {
		return []catalog.Candidate{}
	}
	out := make([]catalog.Candidate, 0, len(sr.Entries))
	prefix := r.keyPrefix + "product:"
	for _, e := range sr.Entries {
		out = append(out, catalog.Candidate{
			ID:         strings.TrimPrefix(e.Key, prefix),
			Score:      e.Score,
			Attributes: parseAttributes(e.Fields),
		})
	}
	return out
}

// parseAttributes maps flat hash fields onto index attributes. Unparseable numbers stay zero.
func parseAttributes(fields map[string]string) catalog.Attributes {
	a := catalog.Attributes{
		MerchantID: fields[filter.FieldMerchantID],
		Category:   fields[filter.FieldCategory],
		Brand:      fields[filter.FieldBrand],
		Title:      fields["title"],
		Image:      fields["image"],
		URL:        fields["url"],
	}
	if v, ok := fields[filter.FieldPrice]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			a.Price = f
		}
	}
	if v, ok := fields[filter.FieldInStock]; ok {
		a.InStock, _ = strconv.ParseBool(v)
	}
	if v := fields[filter.FieldCollections]; v != "" {
		for _, c := range strings.Split(v, collectionSeparator) {
			if c = strings.TrimSpace(c); c != "" {
				a.Collections = append(a.Collections, c)
			}
		}
	}
	return a
}
