// Package rule models merchant merchandising rules: the persisted record and its parsed,
// evaluation-ready form.
package rule

import (
	"encoding/json"
	"time"
)

// Type selects how a rule reshapes the candidate list.
type Type string

// Rule types as stored by the merchandising dashboard.
const (
	TypeBoost    Type = "BOOST"
	TypeBury     Type = "BURY"
	TypePin      Type = "PIN"
	TypeFilter   Type = "FILTER"
	TypeBanner   Type = "BANNER"
	TypeRedirect Type = "REDIRECT"
)

// IsValid reports whether t is one of the known rule types.
func (t Type) IsValid() bool {
	switch t {
	case TypeBoost, TypeBury, TypePin, TypeFilter, TypeBanner, TypeRedirect:
		return true
	}
	return false
}

// Defaults applied where persisted data enters the pipeline.
const (
	DefaultPriority    = 100
	DefaultBoostFactor = 1.5
	DefaultBuryFactor  = 0.5
	DefaultPinPosition = 1
)

// Record is the persisted rule shape owned by the merchant configuration store.
type Record struct {
	ID          string          `json:"id"`
	MerchantID  string          `json:"merchantId"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Type        string          `json:"type"`
	Conditions  json.RawMessage `json:"conditions"`
	Actions     json.RawMessage `json:"actions"`
	Priority    *int            `json:"priority"`
	IsActive    *bool           `json:"isActive"`
	StartsAt    *time.Time      `json:"startsAt,omitempty"`
	EndsAt      *time.Time      `json:"endsAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Rule is a parsed, read-only merchandising rule.
// StartsAt and EndsAt are carried for callers but never affect evaluation.
type Rule struct {
	id         string
	name       string
	ruleType   Type
	priority   int
	active     bool
	conditions ConditionSet
	actions    Actions
	pinTarget  string
	triggers   []string
	startsAt   *time.Time
	endsAt     *time.Time
}

// Parse converts a persisted record. It never fails: malformed conditions and actions
// become variants that never match or actions that do nothing.
func Parse(rec *Record) Rule {
	priority := DefaultPriority
	if rec.Priority != nil {
		priority = *rec.Priority
	}

	fields := decodeObject(rec.Conditions)
	typ := Type(rec.Type)

	r := Rule{
		id:         rec.ID,
		name:       rec.Name,
		ruleType:   typ,
		priority:   priority,
		active:     rec.IsActive != nil && *rec.IsActive,
		conditions: parseConditions(rec.Conditions),
		actions:    parseActions(typ, rec.Actions),
		startsAt:   rec.StartsAt,
		endsAt:     rec.EndsAt,
	}
	if raw, ok := fields["productId"]; ok {
		_ = json.Unmarshal(raw, &r.pinTarget)
	}
	if raw, ok := fields["queryContains"]; ok {
		r.triggers = parseTriggers(raw)
	}
	return r
}

// ID returns the rule identifier.
func (r *Rule) ID() string { return r.id }

// Name returns the merchant-facing rule name reported in appliedRules.
func (r *Rule) Name() string { return r.name }

// Type returns the rule type.
func (r *Rule) Type() Type { return r.ruleType }

// Priority returns the effective priority (lower runs first).
func (r *Rule) Priority() int { return r.priority }

// IsActive reports whether the rule takes part in ranking.
func (r *Rule) IsActive() bool { return r.active }

// Conditions returns the parsed match conditions.
func (r *Rule) Conditions() ConditionSet { return r.conditions }

// Actions returns the parsed actions.
func (r *Rule) Actions() Actions { return r.actions }

// PinTarget returns the product id a PIN rule moves, empty when absent or malformed.
func (r *Rule) PinTarget() string { return r.pinTarget }

// Triggers returns the BANNER trigger words.
func (r *Rule) Triggers() []string { return r.triggers }

// StartsAt returns the declared schedule start.
func (r *Rule) StartsAt() *time.Time { return r.startsAt }

// EndsAt returns the declared schedule end.
func (r *Rule) EndsAt() *time.Time { return r.endsAt }

// parseTriggers accepts only an array of strings; anything else disables the banner.
func parseTriggers(raw json.RawMessage) []string {
	var words []string
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil
	}
	return words
}

// decodeObject returns the top-level members of a JSON object, or nil for any other shape.
func decodeObject(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
