package budget

import (
	"context"
	"time"

	"github.com/kailas-cloud/shelfsearch/internal/db"
)

type expireCall struct {
	key string
	ttl time.Duration
	nx  bool
}

// mockStore implements the consumer interface for tests.
type mockStore struct {
	data      map[string]int64
	raw       map[string][]byte
	getErr    error
	incrErr   error
	expireErr error
	expires   []expireCall
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string]int64{}, raw: map[string][]byte{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if b, ok := m.raw[key]; ok {
		return b, nil
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return []byte(formatInt(v)), nil
}

func (m *mockStore) IncrBy(_ context.Context, key string, val int64) error {
	if m.incrErr != nil {
		return m.incrErr
	}
	m.data[key] += val
	return nil
}

func (m *mockStore) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	if m.expireErr != nil {
		return m.expireErr
	}
	m.expires = append(m.expires, expireCall{key: key, ttl: ttl, nx: nx})
	return nil
}
