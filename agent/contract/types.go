package contract

// Intent is the closed set of user goals the agent can fulfil.
type Intent string

const (
	IntentWeather Intent = "weather"
	IntentStock   Intent = "stock"
	IntentUnknown Intent = "unknown"
)

// Known reports whether the intent maps to a slot schema and a data service.
func (i Intent) Known() bool {
	return i == IntentWeather || i == IntentStock
}

// Classification is the result of one classifier call. It is consumed once per
// turn and never persisted.
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Extraction is a partial slot mapping produced by one extractor call. A key
// absent from Slots means "nothing learned about this slot"; an empty-string
// value is present-but-empty and is dropped before merge.
type Extraction struct {
	Slots map[string]string `json:"slots"`
}

type OutcomeKind string

const (
	// OutcomeClarify asks the user for exactly one missing slot.
	OutcomeClarify OutcomeKind = "clarify"
	// OutcomeWeather carries a fulfilled weather dispatch.
	OutcomeWeather OutcomeKind = "weather"
	// OutcomeStock carries a fulfilled stock dispatch.
	OutcomeStock OutcomeKind = "stock"
	// OutcomeFallback is the generic capabilities reply when classification is
	// unknown and no intent is stored.
	OutcomeFallback OutcomeKind = "fallback"
	// OutcomeError surfaces an external-service failure.
	OutcomeError OutcomeKind = "error"
)

// Outcome is the tagged result of one dialogue turn and the only input the
// formatter accepts. Exactly one payload field is set for its kind.
type Outcome struct {
	Kind OutcomeKind

	Question string
	Weather  *WeatherReport
	Stock    *StockQuote
	ErrKind  ServiceErrorKind
}

// WeatherReport is the provider-agnostic result shape for a weather dispatch.
type WeatherReport struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	TempC       float64 `json:"temp_c"`
	FeelsLikeC  float64 `json:"feels_like_c"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}

// StockQuote is the provider-agnostic result shape for a stock dispatch.
type StockQuote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Exchange      string  `json:"exchange"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percent_change"`
	MarketOpen    bool    `json:"market_open"`
}
