package schema

import (
	"strings"
	"unicode"
)

// knownExchanges maps common spellings to canonical exchange codes.
var knownExchanges = map[string]string{
	"NASDAQ": "NASDAQ",
	"NYSE":   "NYSE",
	"NSE":    "NSE",
	"BSE":    "BSE",
	"LSE":    "LSE",
	"HKEX":   "HKEX",
}

func normalize(kind Kind, val string) string {
	switch kind {
	case KindSymbol:
		return NormalizeSymbol(val)
	case KindExchange:
		return NormalizeExchange(val)
	default:
		return strings.Join(strings.Fields(val), " ")
	}
}

func validShape(kind Kind, val string) bool {
	if val == "" {
		return false
	}
	switch kind {
	case KindSymbol:
		return len(val) <= 12 && isAlnumUpper(val)
	case KindExchange:
		return len(val) >= 2 && len(val) <= 10 && isAlphaUpper(val)
	default:
		return len(val) <= 200
	}
}

// NormalizeSymbol uppercases a ticker and strips everything that is not a
// letter or digit.
func NormalizeSymbol(symbol string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(symbol)) {
		if unicode.IsUpper(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeExchange canonicalizes an exchange code. Unrecognized codes pass
// through uppercased; the shape check decides whether they are usable.
func NormalizeExchange(exchange string) string {
	code := strings.ToUpper(strings.TrimSpace(exchange))
	if canonical, ok := knownExchanges[code]; ok {
		return canonical
	}
	return code
}

func isAlnumUpper(s string) bool {
	for _, r := range s {
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

func isAlphaUpper(s string) bool {
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return len(s) > 0
}
