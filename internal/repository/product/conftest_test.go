package product

import (
	"context"
	"strings"
	"testing"
)

// mockStore serves hashes from an in-memory map keyed by full redis key.
type mockStore struct {
	hashes   map[string]map[string]string
	err      error
	lastKeys []string
}

func (m *mockStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	m.lastKeys = keys
	if m.err != nil {
		return nil, m.err
	}
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		if h, ok := m.hashes[k]; ok {
			out[i] = h
		} else {
			out[i] = map[string]string{}
		}
	}
	return out, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{hashes: map[string]map[string]string{}}
	return New(ms, "shelfsearch:"), ms
}

func (m *mockStore) put(id, merchantID string, fields ...string) {
	h := map[string]string{"id": id, "merchant_id": merchantID, "price": "10"}
	for _, kv := range fields {
		k, v, _ := strings.Cut(kv, "=")
		h[k] = v
	}
	m.hashes["shelfsearch:product:"+id] = h
}
