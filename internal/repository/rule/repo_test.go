package rule

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/shelfsearch/internal/db"
	"github.com/kailas-cloud/shelfsearch/internal/domain"
	domrule "github.com/kailas-cloud/shelfsearch/internal/domain/rule"
)

const merchant = "5b0e2f0c-7d5a-4bb3-8f43-0c6f1f6a2c11"

func TestListRules_Decodes(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = returning(`[
		{"id":"r1","merchantId":"` + merchant + `","name":"Shoes up","type":"BOOST",
		 "conditions":{"category":"shoes"},"actions":{"boostFactor":2},"priority":10,"isActive":true},
		{"id":"r2","name":"Promo","type":"BANNER","conditions":{},
		 "actions":{"banner":{"text":"Sale"}},"priority":null,"isActive":false}
	]`)

	rules, err := repo.ListRules(context.Background(), merchant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms.lastKey != "shelfsearch:rules:"+merchant {
		t.Errorf("unexpected key: %s", ms.lastKey)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Name() != "Shoes up" || rules[0].Type() != domrule.TypeBoost || rules[0].Priority() != 10 {
		t.Errorf("unexpected first rule: %+v", rules[0])
	}
	if f, ok := rules[0].Actions().Factor(); !ok || f != 2 {
		t.Errorf("expected factor 2, got %v (ok=%v)", f, ok)
	}
	if rules[1].Priority() != domrule.DefaultPriority || rules[1].IsActive() {
		t.Errorf("unexpected second rule: %+v", rules[1])
	}
}

func TestListRules_MissingKey(t *testing.T) {
	repo, _ := newTestRepo(t)

	rules, err := repo.ListRules(context.Background(), merchant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules == nil || len(rules) != 0 {
		t.Errorf("expected empty rule list, got %#v", rules)
	}
}

func TestListRules_SkipsBadRecords(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = returning(`[
		{"id":"ok","name":"ok","type":"BURY","conditions":{},"actions":{}},
		{"id":7,"name":["broken"]},
		{"id":"other","merchantId":"another","name":"other","type":"BOOST"}
	]`)

	rules, err := repo.ListRules(context.Background(), merchant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 1 || rules[0].ID() != "ok" {
		t.Fatalf("expected only the valid record, got %d rules", len(rules))
	}
}

func TestListRules_NotAnArray(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = returning(`{"id":"r1"}`)

	_, err := repo.ListRules(context.Background(), merchant)
	if !errors.Is(err, domain.ErrRuleStoreUnavailable) {
		t.Fatalf("expected ErrRuleStoreUnavailable, got %v", err)
	}
}

func TestListRules_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = func(context.Context, string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpJSONGet, Err: errors.New("timeout")}
	}

	_, err := repo.ListRules(context.Background(), merchant)
	if !errors.Is(err, domain.ErrRuleStoreUnavailable) {
		t.Fatalf("expected ErrRuleStoreUnavailable, got %v", err)
	}
}
