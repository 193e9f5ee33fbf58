package schema

import (
	"testing"

	"parley/agent/contract"
)

func TestRequiredOrder(t *testing.T) {
	t.Parallel()

	weather := Required(contract.IntentWeather)
	if len(weather) != 1 || weather[0].Name != SlotLocation {
		t.Fatalf("unexpected weather schema: %+v", weather)
	}

	stock := Required(contract.IntentStock)
	if len(stock) != 2 {
		t.Fatalf("expected two stock slots, got %+v", stock)
	}
	if stock[0].Name != SlotSymbol || stock[1].Name != SlotExchange {
		t.Fatalf("stock slots out of order: %v", Names(stock))
	}

	if got := Required(contract.IntentUnknown); got != nil {
		t.Fatalf("expected no schema for unknown intent, got %+v", got)
	}
}

func TestMissingTreatsBlankAsAbsent(t *testing.T) {
	t.Parallel()

	missing := Missing(contract.IntentStock, map[string]string{
		SlotSymbol:   "TSLA",
		SlotExchange: "   ",
	})
	if len(missing) != 1 || missing[0].Name != SlotExchange {
		t.Fatalf("expected only exchange missing, got %v", Names(missing))
	}

	missing = Missing(contract.IntentStock, nil)
	if got := Names(missing); len(got) != 2 || got[0] != SlotSymbol {
		t.Fatalf("expected symbol first for empty slots, got %v", got)
	}

	if missing := Missing(contract.IntentWeather, map[string]string{SlotLocation: "Tokyo"}); len(missing) != 0 {
		t.Fatalf("expected nothing missing, got %v", Names(missing))
	}
}

func TestSanitizeDropsOutOfSchemaKeys(t *testing.T) {
	t.Parallel()

	clean := Sanitize(contract.IntentWeather, map[string]string{
		SlotLocation: "  New   York  ",
		SlotSymbol:   "AAPL",
		"mood":       "great",
	})
	if len(clean) != 1 {
		t.Fatalf("expected one surviving key, got %+v", clean)
	}
	if clean[SlotLocation] != "New York" {
		t.Fatalf("expected collapsed location, got %q", clean[SlotLocation])
	}
}

func TestSanitizeShapeChecks(t *testing.T) {
	t.Parallel()

	clean := Sanitize(contract.IntentStock, map[string]string{
		SlotSymbol:   "tsla",
		SlotExchange: "nasdaq",
	})
	if clean[SlotSymbol] != "TSLA" || clean[SlotExchange] != "NASDAQ" {
		t.Fatalf("expected normalized values, got %+v", clean)
	}

	// A symbol that normalizes to empty must be dropped, not stored empty.
	clean = Sanitize(contract.IntentStock, map[string]string{
		SlotSymbol: "???",
	})
	if clean != nil {
		t.Fatalf("expected nil for all-dropped input, got %+v", clean)
	}

	clean = Sanitize(contract.IntentStock, map[string]string{
		SlotExchange: "X",
	})
	if clean != nil {
		t.Fatalf("expected one-letter exchange to fail shape check, got %+v", clean)
	}

	if got := Sanitize(contract.IntentUnknown, map[string]string{SlotLocation: "Paris"}); got != nil {
		t.Fatalf("expected nil for schemaless intent, got %+v", got)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		" tsla ":  "TSLA",
		"BRK.B":   "BRKB",
		"aapl!":   "AAPL",
		"  ":      "",
		"7203.T":  "7203T",
		"nvda\n":  "NVDA",
		"$GOOGL ": "GOOGL",
	}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Fatalf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeExchange(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"nasdaq":   "NASDAQ",
		" NYSE ":   "NYSE",
		"hkex":     "HKEX",
		"Euronext": "EURONEXT",
	}
	for in, want := range cases {
		if got := NormalizeExchange(in); got != want {
			t.Fatalf("NormalizeExchange(%q) = %q, want %q", in, got, want)
		}
	}
}
