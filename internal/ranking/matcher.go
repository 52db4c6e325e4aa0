// Package ranking reshapes similarity-ranked candidates with merchant rules.
package ranking

import (
	"github.com/kailas-cloud/shelfsearch/internal/domain/catalog"
	"github.com/kailas-cloud/shelfsearch/internal/domain/rule"
)

// Matches reports whether c satisfies every condition in set.
func Matches(c *catalog.Candidate, set rule.ConditionSet) bool {
	for _, cond := range set.Conditions() {
		if !matchOne(c, cond) {
			return false
		}
	}
	return true
}

func matchOne(c *catalog.Candidate, cond rule.Condition) bool {
	attrs := &c.Attributes
	switch cond.Kind() {
	case rule.KindCollection:
		return attrs.HasCollection(cond.Text())
	case rule.KindCategory:
		return present(attrs.Category) && attrs.Category == cond.Text()
	case rule.KindBrand:
		return present(attrs.Brand) && attrs.Brand == cond.Text()
	case rule.KindStock, rule.KindInStock:
		return attrs.InStock == cond.WantInStock()
	case rule.KindPrice:
		return matchPrice(attrs.Price, cond.Price())
	default:
		return false
	}
}

// present treats an empty attribute as missing, so it never equals a condition value.
func present(attr string) bool { return attr != "" }

func matchPrice(price float64, bound rule.PriceSpec) bool {
	if bound.Exact != nil {
		return price == *bound.Exact
	}
	if bound.LT != nil && price >= *bound.LT {
		return false
	}
	if bound.GT != nil && price <= *bound.GT {
		return false
	}
	if bound.LTE != nil && price > *bound.LTE {
		return false
	}
	if bound.GTE != nil && price < *bound.GTE {
		return false
	}
	return true
}
