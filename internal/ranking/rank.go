package ranking

import (
	"sort"

	"github.com/kailas-cloud/shelfsearch/internal/domain/catalog"
	"github.com/kailas-cloud/shelfsearch/internal/domain/rule"
)

// Step records what a single rule did during Rank.
type Step struct {
	Rule    string
	Type    rule.Type
	Applied bool
	Before  int
	After   int
}

// Result is the ranked candidate list with the rules and banners that fired.
type Result struct {
	Candidates   []catalog.Candidate
	AppliedRules []string
	AppliedTypes []rule.Type
	Banners      []rule.Banner
	Steps        []Step
}

// Active returns the active rules ordered by ascending priority, keeping the
// input order between equal priorities.
func Active(rules []rule.Rule) []rule.Rule {
	active := make([]rule.Rule, 0, len(rules))
	for i := range rules {
		if rules[i].IsActive() {
			active = append(active, rules[i])
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority() < active[j].Priority()
	})
	return active
}

// Rank folds the active rules over candidates in priority order, then sorts the
// survivors by score, highest first. PIN placement does not survive that sort
// unless the pinned candidate already has the top remaining score.
func Rank(rules []rule.Rule, candidates []catalog.Candidate, query string) Result {
	ordered := Active(rules)

	res := Result{
		Candidates:   candidates,
		AppliedRules: []string{},
		Banners:      []rule.Banner{},
		Steps:        make([]Step, 0, len(ordered)),
	}
	for i := range ordered {
		r := &ordered[i]
		before := len(res.Candidates)
		out := Apply(r, res.Candidates, query)
		res.Candidates = out.Candidates

		if out.Applied {
			res.AppliedRules = append(res.AppliedRules, r.Name())
			res.AppliedTypes = append(res.AppliedTypes, r.Type())
		}
		if out.Banner != nil {
			res.Banners = append(res.Banners, *out.Banner)
		}
		res.Steps = append(res.Steps, Step{
			Rule:    r.Name(),
			Type:    r.Type(),
			Applied: out.Applied,
			Before:  before,
			After:   len(out.Candidates),
		})
	}

	res.Candidates = SortByScore(res.Candidates)
	return res
}

// SortByScore returns a copy of candidates ordered by score descending, stable on ties.
func SortByScore(candidates []catalog.Candidate) []catalog.Candidate {
	out := make([]catalog.Candidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Truncate returns at most limit candidates. A non-positive limit yields none.
func Truncate(candidates []catalog.Candidate, limit int) []catalog.Candidate {
	if limit <= 0 {
		return candidates[:0]
	}
	if len(candidates) > limit {
		return candidates[:limit]
	}
	return candidates
}
