// Package schema is the static slot registry and the deterministic validator.
// It never does I/O; the orchestrator and tests rely on it being pure.
package schema

import (
	"strings"

	"github.com/elliotchance/pie/v2"

	"parley/agent/contract"
)

// Kind is the semantic type of a slot value, used to shape-check extractor
// output before it reaches conversation state.
type Kind string

const (
	KindText     Kind = "text"
	KindSymbol   Kind = "symbol"
	KindExchange Kind = "exchange"
)

// Slot describes one required field of an intent. Question is the clarifying
// question asked when the slot is missing; keeping it here means the
// orchestrator never composes language.
type Slot struct {
	Name     string
	Kind     Kind
	Question string
}

const (
	SlotLocation = "location"
	SlotSymbol   = "symbol"
	SlotExchange = "exchange"
)

// required holds the ordered required slots per intent. Order matters: the
// first missing slot is the one the user is asked about.
var required = map[contract.Intent][]Slot{
	contract.IntentWeather: {
		{Name: SlotLocation, Kind: KindText, Question: "Which city would you like the weather for?"},
	},
	contract.IntentStock: {
		{Name: SlotSymbol, Kind: KindSymbol, Question: "Which stock would you like to check? Please provide the symbol (e.g., TSLA for Tesla)."},
		{Name: SlotExchange, Kind: KindExchange, Question: "Which exchange? (e.g., NASDAQ, NYSE)"},
	},
}

// Required returns the ordered required slots for an intent, or nil when the
// intent has no schema.
func Required(intent contract.Intent) []Slot {
	return required[intent]
}

// Missing returns the required slots not present (or empty after trimming) in
// slots, preserving schema order.
func Missing(intent contract.Intent, slots map[string]string) []Slot {
	return pie.Filter(required[intent], func(s Slot) bool {
		return strings.TrimSpace(slots[s.Name]) == ""
	})
}

// Names projects slots to their names, preserving order.
func Names(slots []Slot) []string {
	return pie.Map(slots, func(s Slot) string { return s.Name })
}

// Sanitize filters raw extractor output down to the intent's schema: keys
// outside the schema are dropped, values are normalized per slot kind, and
// values failing the shape check are dropped. The extractor is untrusted; this
// is the only path by which its output may reach state.
func Sanitize(intent contract.Intent, raw map[string]string) map[string]string {
	defs := required[intent]
	if len(defs) == 0 || len(raw) == 0 {
		return nil
	}

	clean := make(map[string]string, len(raw))
	for _, def := range defs {
		val, ok := raw[def.Name]
		if !ok {
			continue
		}
		norm := normalize(def.Kind, val)
		if !validShape(def.Kind, norm) {
			continue
		}
		clean[def.Name] = norm
	}
	if len(clean) == 0 {
		return nil
	}
	return clean
}
