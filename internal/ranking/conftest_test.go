package ranking

import (
	"encoding/json"
	"testing"

	"github.com/kailas-cloud/shelfsearch/internal/domain/catalog"
	"github.com/kailas-cloud/shelfsearch/internal/domain/rule"
)

func mustRule(t *testing.T, raw string) rule.Rule {
	t.Helper()
	var rec rule.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal rule: %v", err)
	}
	return rule.Parse(&rec)
}

func mustConditions(t *testing.T, raw string) rule.ConditionSet {
	t.Helper()
	r := mustRule(t, `{"type":"BOOST","conditions":`+raw+`}`)
	return r.Conditions()
}

func cand(id string, score float64, category string) catalog.Candidate {
	return catalog.Candidate{ID: id, Score: score, Attributes: catalog.Attributes{Category: category}}
}

// scenario returns the three-candidate fixture used across ranking tests.
func scenario() []catalog.Candidate {
	return []catalog.Candidate{
		cand("A", 0.9, "shoes"),
		cand("B", 0.8, "bags"),
		cand("C", 0.7, "shoes"),
	}
}

func ids(cs []catalog.Candidate) []string {
	return catalog.IDs(cs)
}

func equalIDs(t *testing.T, got []catalog.Candidate, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("ids = %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("ids = %v, want %v", g, want)
		}
	}
}

func approx(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
