package ranking

import (
	"math"
	"strings"

	"github.com/kailas-cloud/shelfsearch/internal/domain/catalog"
	"github.com/kailas-cloud/shelfsearch/internal/domain/rule"
)

// Outcome is the result of applying one rule.
type Outcome struct {
	Candidates []catalog.Candidate
	Applied    bool
	Banner     *rule.Banner
}

// Apply runs a single rule against candidates. The input slice is never modified.
func Apply(r *rule.Rule, candidates []catalog.Candidate, query string) Outcome {
	switch r.Type() {
	case rule.TypeBoost, rule.TypeBury:
		return rescore(r, candidates)
	case rule.TypeFilter:
		return exclude(r, candidates)
	case rule.TypePin:
		return pin(r, candidates)
	case rule.TypeBanner:
		return banner(r, candidates, query)
	default:
		// REDIRECT is reserved; unknown types do nothing.
		return Outcome{Candidates: candidates}
	}
}

func rescore(r *rule.Rule, candidates []catalog.Candidate) Outcome {
	factor, ok := r.Actions().Factor()
	if !ok {
		return Outcome{Candidates: candidates}
	}

	out := make([]catalog.Candidate, len(candidates))
	copy(out, candidates)

	applied := false
	conds := r.Conditions()
	for i := range out {
		if Matches(&out[i], conds) {
			out[i].Score *= factor
			applied = true
		}
	}
	return Outcome{Candidates: out, Applied: applied}
}

func exclude(r *rule.Rule, candidates []catalog.Candidate) Outcome {
	conds := r.Conditions()
	out := make([]catalog.Candidate, 0, len(candidates))
	for i := range candidates {
		if !Matches(&candidates[i], conds) {
			out = append(out, candidates[i])
		}
	}
	return Outcome{Candidates: out, Applied: len(out) < len(candidates)}
}

func pin(r *rule.Rule, candidates []catalog.Candidate) Outcome {
	target := r.PinTarget()
	position, ok := r.Actions().Position()
	if target == "" || !ok {
		return Outcome{Candidates: candidates}
	}

	from := -1
	for i := range candidates {
		if candidates[i].ID == target {
			from = i
			break
		}
	}
	if from < 0 {
		return Outcome{Candidates: candidates}
	}

	rest := make([]catalog.Candidate, 0, len(candidates))
	rest = append(rest, candidates[:from]...)
	rest = append(rest, candidates[from+1:]...)

	at := insertIndex(position, len(rest))
	out := make([]catalog.Candidate, 0, len(candidates))
	out = append(out, rest[:at]...)
	out = append(out, candidates[from])
	out = append(out, rest[at:]...)
	return Outcome{Candidates: out, Applied: true}
}

// insertIndex converts a 1-based position into a splice index over n elements.
// Negative indexes count from the end and out-of-range values are clamped.
func insertIndex(position float64, n int) int {
	idx := position - 1
	if math.IsNaN(idx) {
		return 0
	}
	idx = math.Trunc(idx)
	if idx < 0 {
		idx += float64(n)
		if idx < 0 {
			return 0
		}
		return int(idx)
	}
	if idx > float64(n) {
		return n
	}
	return int(idx)
}

func banner(r *rule.Rule, candidates []catalog.Candidate, query string) Outcome {
	triggers := r.Triggers()
	if len(triggers) == 0 {
		return Outcome{Candidates: candidates}
	}

	q := strings.ToLower(query)
	for _, word := range triggers {
		if !strings.Contains(q, strings.ToLower(word)) {
			continue
		}
		b := r.Actions().Banner()
		if b == nil {
			return Outcome{Candidates: candidates}
		}
		emitted := *b
		return Outcome{Candidates: candidates, Applied: true, Banner: &emitted}
	}
	return Outcome{Candidates: candidates}
}
