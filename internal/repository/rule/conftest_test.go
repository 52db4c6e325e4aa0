package rule

import (
	"context"
	"testing"

	"github.com/kailas-cloud/shelfsearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonGetFn func(ctx context.Context, key string) ([]byte, error)
	lastKey   string
}

func (m *mockStore) JSONGet(ctx context.Context, key string) ([]byte, error) {
	m.lastKey = key
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "shelfsearch:"), ms
}

func returning(doc string) func(context.Context, string) ([]byte, error) {
	return func(context.Context, string) ([]byte, error) {
		return []byte(doc), nil
	}
}
