package rule

import (
	"bytes"
	"encoding/json"
)

// BannerPosition places a banner relative to the result list.
type BannerPosition string

// Banner positions.
const (
	BannerTop    BannerPosition = "top"
	BannerBottom BannerPosition = "bottom"
)

// Banner is a merchandising message emitted by a BANNER rule.
type Banner struct {
	Text     string
	Link     string
	Position BannerPosition
}

// Actions holds the typed action payload of a rule.
type Actions struct {
	factor     float64
	factorOK   bool
	position   float64
	positionOK bool
	banner     *Banner
}

// Factor returns the score multiplier of BOOST and BURY rules.
// ok is false when the stored boostFactor is not a number.
func (a Actions) Factor() (factor float64, ok bool) { return a.factor, a.factorOK }

// Position returns the 1-based PIN position. ok is false when the stored value is not a number.
func (a Actions) Position() (position float64, ok bool) { return a.position, a.positionOK }

// Banner returns the banner payload, nil when absent or not an object.
func (a Actions) Banner() *Banner { return a.banner }

// parseActions reads the action keys used by typ. BURY shares the boostFactor key with BOOST.
func parseActions(typ Type, raw json.RawMessage) Actions {
	trimmed := bytes.TrimSpace(raw)
	var fields map[string]json.RawMessage
	if len(trimmed) > 0 {
		if !isKind(trimmed, '{') {
			return Actions{}
		}
		fields = decodeObject(trimmed)
	}

	var a Actions

	defFactor := DefaultBoostFactor
	if typ == TypeBury {
		defFactor = DefaultBuryFactor
	}
	a.factor, a.factorOK = numberOrDefault(fields["boostFactor"], defFactor)
	a.position, a.positionOK = numberOrDefault(fields["position"], DefaultPinPosition)

	if raw, ok := fields["banner"]; ok {
		a.banner = parseBanner(raw)
	}
	return a
}

// numberOrDefault treats an absent or null value as def and rejects non-numbers.
func numberOrDefault(raw json.RawMessage, def float64) (float64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return def, true
	}
	return number(trimmed)
}

func parseBanner(raw json.RawMessage) *Banner {
	if !isKind(raw, '{') {
		return nil
	}
	var dto struct {
		Text     any `json:"text"`
		Link     any `json:"link"`
		Position any `json:"position"`
	}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil
	}

	b := &Banner{Position: BannerTop}
	if s, ok := dto.Text.(string); ok {
		b.Text = s
	}
	if s, ok := dto.Link.(string); ok {
		b.Link = s
	}
	if s, ok := dto.Position.(string); ok && BannerPosition(s) == BannerBottom {
		b.Position = BannerBottom
	}
	return b
}
