package rule

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Kind tags the variant held by a Condition.
type Kind int

// Condition variants, one per recognized condition key.
const (
	// KindUnrecognized never matches. Unknown keys and malformed values land here.
	KindUnrecognized Kind = iota
	KindCollection
	KindCategory
	KindBrand
	KindStock
	KindPrice
	KindInStock
)

// Condition is a single parsed entry of a rule's condition map.
type Condition struct {
	kind  Kind
	key   string
	text  string
	flag  bool
	price PriceSpec
}

// Kind returns the variant tag.
func (c Condition) Kind() Kind { return c.kind }

// Key returns the condition key as written in the rule.
func (c Condition) Key() string { return c.key }

// Text returns the string operand of collection, category and brand conditions.
func (c Condition) Text() string { return c.text }

// WantInStock returns the required in-stock flag of stock and in_stock conditions.
func (c Condition) WantInStock() bool { return c.flag }

// Price returns the price operand.
func (c Condition) Price() PriceSpec { return c.price }

// PriceSpec is either an exact price or a set of range bounds, all ANDed.
type PriceSpec struct {
	Exact *float64
	LT    *float64
	GT    *float64
	LTE   *float64
	GTE   *float64
}

// ConditionSet is the AND of its conditions. An empty set matches every candidate.
type ConditionSet struct {
	conds []Condition
}

// NewConditionSet builds a set from already parsed conditions.
func NewConditionSet(conds ...Condition) ConditionSet {
	return ConditionSet{conds: conds}
}

// Conditions returns the parsed entries in key order.
func (s ConditionSet) Conditions() []Condition { return s.conds }

// Len returns the number of entries.
func (s ConditionSet) Len() int { return len(s.conds) }

// parseConditions parses a raw condition map. A missing map is empty; any JSON value
// other than an object yields a set that never matches.
func parseConditions(raw json.RawMessage) ConditionSet {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ConditionSet{}
	}
	if trimmed[0] != '{' {
		return NewConditionSet(unrecognized(""))
	}
	fields := decodeObject(trimmed)
	if fields == nil {
		return NewConditionSet(unrecognized(""))
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]Condition, 0, len(keys))
	for _, k := range keys {
		conds = append(conds, ParseCondition(k, fields[k]))
	}
	return ConditionSet{conds: conds}
}

// ParseCondition parses one key/value entry of a condition map.
func ParseCondition(key string, value json.RawMessage) Condition {
	switch key {
	case "collection":
		return textCondition(KindCollection, key, value)
	case "category":
		return textCondition(KindCategory, key, value)
	case "brand":
		return textCondition(KindBrand, key, value)
	case "stock":
		return stockCondition(key, value)
	case "price":
		return priceCondition(key, value)
	case "in_stock":
		var b bool
		if !isKind(value, 't', 'f') || json.Unmarshal(value, &b) != nil {
			return unrecognized(key)
		}
		return Condition{kind: KindInStock, key: key, flag: b}
	default:
		return unrecognized(key)
	}
}

func unrecognized(key string) Condition {
	return Condition{kind: KindUnrecognized, key: key}
}

func textCondition(kind Kind, key string, value json.RawMessage) Condition {
	var s string
	if !isKind(value, '"') || json.Unmarshal(value, &s) != nil {
		return unrecognized(key)
	}
	return Condition{kind: kind, key: key, text: s}
}

// stockCondition maps a range spec onto the boolean stock flag:
// eq:0 or any lt bound means out of stock, any gt bound means in stock.
func stockCondition(key string, value json.RawMessage) Condition {
	fields := decodeObject(value)
	if fields == nil || !isKind(value, '{') {
		return unrecognized(key)
	}
	if raw, ok := fields["eq"]; ok {
		if n, isNum := number(raw); isNum && n == 0 {
			return Condition{kind: KindStock, key: key, flag: false}
		}
	}
	if _, ok := fields["lt"]; ok {
		return Condition{kind: KindStock, key: key, flag: false}
	}
	if _, ok := fields["gt"]; ok {
		return Condition{kind: KindStock, key: key, flag: true}
	}
	return unrecognized(key)
}

func priceCondition(key string, value json.RawMessage) Condition {
	if n, ok := number(value); ok {
		return Condition{kind: KindPrice, key: key, price: PriceSpec{Exact: &n}}
	}
	if !isKind(value, '{') {
		return unrecognized(key)
	}
	fields := decodeObject(value)
	if fields == nil {
		return unrecognized(key)
	}

	var spec PriceSpec
	bounds := []struct {
		name string
		dst  **float64
	}{
		{"lt", &spec.LT},
		{"gt", &spec.GT},
		{"lte", &spec.LTE},
		{"gte", &spec.GTE},
	}
	for _, b := range bounds {
		raw, ok := fields[b.name]
		if !ok {
			continue
		}
		n, isNum := number(raw)
		if !isNum {
			return unrecognized(key)
		}
		*b.dst = &n
	}
	return Condition{kind: KindPrice, key: key, price: spec}
}

// number decodes a JSON number literal.
func number(raw json.RawMessage) (float64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, false
	}
	if c := trimmed[0]; c != '-' && (c < '0' || c > '9') {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return 0, false
	}
	return n, true
}

// isKind reports whether the JSON value starts with one of the given bytes.
func isKind(raw json.RawMessage, first ...byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	for _, f := range first {
		if trimmed[0] == f {
			return true
		}
	}
	return false
}
