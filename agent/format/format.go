// Package format renders dialogue outcomes to user-facing text and streams it
// in chunks. Rendering is total: every outcome, including malformed ones, maps
// to a non-empty message, and provider error detail never appears in output.
package format

import (
	"fmt"

	"parley/agent/contract"
)

const fallbackMessage = "I can help you with weather forecasts or stock prices. Which would you like?"

const genericErrorMessage = "I encountered an error processing your request. Please try again."

// errorTemplates is the closed set of user-facing messages for external
// service failures. One fixed template per kind; no provider text.
var errorTemplates = map[contract.ServiceErrorKind]string{
	contract.ServiceNotFound: "I couldn't find anything matching that. " +
		"Could you check the spelling, or try a nearby city or a different stock symbol?",
	contract.ServiceRateLimited: "The data service is handling too many requests right now. " +
		"Please try again in a moment.",
	contract.ServiceUnsupportedRegion: "I can't fetch live prices for that exchange with the current data plan.\n\n" +
		"I can provide:\n" +
		"• US markets like NASDAQ or NYSE\n\n" +
		"Would you like to try a US exchange instead?",
	contract.ServiceTimeout: "The service is taking too long to respond. Please try again in a moment.",
	contract.ServiceUnknown: genericErrorMessage,
}

// Render resolves an outcome to one coherent message.
func Render(out contract.Outcome) string {
	switch out.Kind {
	case contract.OutcomeClarify:
		if out.Question != "" {
			return out.Question
		}
		return "Could you provide more information?"
	case contract.OutcomeFallback:
		return fallbackMessage
	case contract.OutcomeWeather:
		if out.Weather != nil {
			return renderWeather(out.Weather)
		}
	case contract.OutcomeStock:
		if out.Stock != nil {
			return renderStock(out.Stock)
		}
	case contract.OutcomeError:
		if msg, ok := errorTemplates[out.ErrKind]; ok {
			return msg
		}
	}
	return genericErrorMessage
}

func renderWeather(w *contract.WeatherReport) string {
	return fmt.Sprintf(
		"Weather in %s, %s:\n"+
			"• Condition: %s\n"+
			"• Temperature: %.1f°C (feels like %.1f°C)\n"+
			"• Humidity: %d%%\n"+
			"• Wind speed: %.1f m/s",
		w.City, w.Country, w.Condition, w.TempC, w.FeelsLikeC, w.Humidity, w.WindSpeed,
	)
}

func renderStock(q *contract.StockQuote) string {
	status := "Closed"
	if q.MarketOpen {
		status = "Open"
	}
	return fmt.Sprintf(
		"%s (%s) is trading at $%.2f %s on %s.\n"+
			"Today's change: %+.2f%%.\n"+
			"Market status: %s.",
		q.Name, q.Symbol, q.Price, q.Currency, q.Exchange, q.PercentChange, status,
	)
}
