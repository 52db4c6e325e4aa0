package product

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/shelfsearch/internal/domain"
)

func TestGetMany_ParsesRecords(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.put("p1", "m1",
		"title=Trail Runner",
		"price=89.5",
		"original_price=120",
		"currency=EUR",
		"stock=3",
		`images=["https://cdn/a.png","https://cdn/b.png"]`,
		"collections=summer,sale",
		"tags=running, outdoor",
	)

	got, err := repo.GetMany(context.Background(), "m1", []string{"p1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 product, got %d", len(got))
	}
	p := got[0]
	if p.Title != "Trail Runner" || p.Price != 89.5 || p.Currency != "EUR" || p.Stock != 3 {
		t.Errorf("unexpected product: %+v", p)
	}
	if p.OriginalPrice == nil || *p.OriginalPrice != 120 {
		t.Errorf("unexpected original price: %v", p.OriginalPrice)
	}
	if p.PrimaryImage() != "https://cdn/a.png" {
		t.Errorf("unexpected image: %q", p.PrimaryImage())
	}
	if len(p.Collections) != 2 || len(p.Tags) != 2 || p.Tags[1] != "outdoor" {
		t.Errorf("unexpected tag fields: %v %v", p.Collections, p.Tags)
	}
	if ms.lastKeys[0] != "shelfsearch:product:p1" {
		t.Errorf("unexpected key: %s", ms.lastKeys[0])
	}
}

func TestGetMany_DropsMisses(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.put("a", "m1")
	ms.put("c", "m1")
	ms.put("foreign", "m2")
	ms.put("broken", "m1", "price=free")

	got, err := repo.GetMany(context.Background(), "m1", []string{"a", "missing", "foreign", "broken", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("expected [a c], got %+v", got)
	}
	if got[0].Currency != defaultCurrency {
		t.Errorf("expected default currency, got %q", got[0].Currency)
	}
}

func TestGetMany_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	got, err := repo.GetMany(context.Background(), "m1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty list, got %#v", got)
	}
	if ms.lastKeys != nil {
		t.Error("store must not be called for an empty id set")
	}
}

func TestGetMany_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.err = errors.New("connection reset")

	_, err := repo.GetMany(context.Background(), "m1", []string{"a"})
	if !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestParseHash_IDMismatch(t *testing.T) {
	if _, err := parseHash("a", map[string]string{"id": "b", "price": "1"}); err == nil {
		t.Fatal("expected id mismatch error")
	}
}

func TestSplitTags(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a, b ,c", 3},
		{" , ,", 0},
	}
	for _, tc := range tests {
		if got := splitTags(tc.in); len(got) != tc.want {
			t.Errorf("splitTags(%q) = %v, want %d items", tc.in, got, tc.want)
		}
	}
}
