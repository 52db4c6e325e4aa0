// Package catalog holds the product-side value types that flow through a search request.
package catalog

// Attributes is the index payload carried alongside a candidate.
type Attributes struct {
	MerchantID  string
	Category    string
	Brand       string
	Price       float64
	InStock     bool
	Collections []string
	Title       string
	Image       string
	URL         string
}

// HasCollection reports whether the candidate belongs to the named collection.
func (a *Attributes) HasCollection(name string) bool {
	for _, c := range a.Collections {
		if c == name {
			return true
		}
	}
	return false
}

// Candidate is a product returned by the vector index together with its similarity score.
// Score is rewritten by boost and bury rules within a single request only.
type Candidate struct {
	ID         string
	Score      float64
	Attributes Attributes
}

// IDs returns candidate ids in list order.
func IDs(cs []Candidate) []string {
	ids := make([]string, len(cs))
	for i := range cs {
		ids[i] = cs[i].ID
	}
	return ids
}
