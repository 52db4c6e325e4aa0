// Package qdrant retrieves product candidates from a Qdrant collection over gRPC.
package qdrant

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/shelfsearch/internal/domain"
	"github.com/kailas-cloud/shelfsearch/internal/domain/catalog"
	"github.com/kailas-cloud/shelfsearch/internal/domain/search/filter"
)

// DefaultCollection is the Qdrant collection holding product vectors.
const DefaultCollection = "products"

// Config holds connection parameters for Qdrant.
type Config struct {
	Host       string
	Port       int
	Collection string
	APIKey     string
	TLS        bool
	// HNSWEf overrides the search-time candidate list size; 0 keeps the collection default.
	HNSWEf int
}

// pointsSearcher is the subset of pb.PointsClient used here.
type pointsSearcher interface {
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

// healthChecker is the subset of pb.QdrantClient used here.
type healthChecker interface {
	HealthCheck(ctx context.Context, in *pb.HealthCheckRequest, opts ...grpc.CallOption) (*pb.HealthCheckReply, error)
}

// Repo implements usecase/search.CandidateSearcher over Qdrant.
type Repo struct {
	conn       *grpc.ClientConn
	points     pointsSearcher
	health     healthChecker
	collection string
	apiKey     string
	hnswEf     uint64
}

// New dials Qdrant. The connection is lazy; the first RPC establishes it.
func New(cfg Config) (*Repo, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	creds := insecure.NewCredentials()
	if cfg.TLS {
		creds = credentials.NewClientTLSFromCert(nil, "")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}

	r := newRepo(pb.NewPointsClient(conn), pb.NewQdrantClient(conn), cfg.Collection, cfg.APIKey)
	r.conn = conn
	if cfg.HNSWEf > 0 {
		r.hnswEf = uint64(cfg.HNSWEf)
	}
	return r, nil
}

func newRepo(points pointsSearcher, health healthChecker, collection, apiKey string) *Repo {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Repo{points: points, health: health, collection: collection, apiKey: apiKey}
}

// SearchCandidates runs a merchant-scoped vector search.
// A missing collection yields a nil slice, which callers treat as "no result set".
func (r *Repo) SearchCandidates(
	ctx context.Context, vector []float32, q catalog.Query,
) ([]catalog.Candidate, error) {
	if q.MerchantID == "" {
		return nil, fmt.Errorf("merchant id is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	merchant, err := filter.NewMatch(filter.FieldMerchantID, q.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("merchant filter: %w", err)
	}

	req := &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vector,
		Limit:          uint64(q.Limit),
		Filter:         buildFilter(q.Filters.With(merchant)),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if r.hnswEf > 0 {
		ef := r.hnswEf
		req.Params = &pb.SearchParams{HnswEf: &ef}
	}

	resp, err := r.points.Search(r.withAuth(ctx), req)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: qdrant search %s: %w", domain.ErrVectorIndexUnavailable, r.collection, err)
	}

	points := resp.GetResult()
	out := make([]catalog.Candidate, 0, len(points))
	for _, pt := range points {
		out = append(out, catalog.Candidate{
			ID:         pointID(pt.GetId()),
			Score:      float64(pt.GetScore()),
			Attributes: parsePayload(pt.GetPayload()),
		})
	}
	return out, nil
}

// HealthCheck pings the Qdrant service.
func (r *Repo) HealthCheck(ctx context.Context) error {
	if _, err := r.health.HealthCheck(r.withAuth(ctx), &pb.HealthCheckRequest{}); err != nil {
		return fmt.Errorf("qdrant health: %w", err)
	}
	return nil
}

// Close releases the gRPC connection.
func (r *Repo) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

func (r *Repo) withAuth(ctx context.Context) context.Context {
	if r.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", r.apiKey)
}

func pointID(id *pb.PointId) string {
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%d", id.GetNum())
}
