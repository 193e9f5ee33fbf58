package contract

import "context"

// Classifier maps raw user text to an intent with a confidence score.
// Implementations must degrade to {IntentUnknown, 0} on timeout or malformed
// model output instead of returning an error; classification failure never
// blocks a turn.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// Extractor pulls slot values for the given intent out of user text. The prior
// slots are context only; implementations return newly learned values and must
// degrade to an empty Extraction on timeout or malformed output. Keys outside
// the intent's schema are dropped by the caller before merge.
type Extractor interface {
	Extract(ctx context.Context, intent Intent, text string, prior map[string]string) (Extraction, error)
}

// WeatherService resolves a validated location slot into a report.
// Failures are *ServiceError.
type WeatherService interface {
	Fetch(ctx context.Context, location string) (*WeatherReport, error)
}

// StockService resolves validated symbol/exchange slots into a quote.
// Failures are *ServiceError.
type StockService interface {
	Fetch(ctx context.Context, symbol, exchange string) (*StockQuote, error)
}
