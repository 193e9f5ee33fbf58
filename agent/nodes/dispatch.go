package dialognode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"parley/agent/contract"
	schemax "parley/agent/schema"
)

// Dispatch calls the data service for the turn's intent exactly once, with
// the complete slot set. Success clears the intent's slots (the conversation
// returns to neutral, keeping the intent for short follow-ups); failure maps
// to an error outcome and preserves the slots so the user can retry without
// repeating themselves.
func Dispatch(
	ctx context.Context,
	in *GraphState,
	weatherSvc contract.WeatherService,
	stockSvc contract.StockService,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contract.ErrValidation)
	}
	if in.resolved() {
		return in, nil
	}

	switch in.Intent {
	case contract.IntentWeather:
		report, err := weatherSvc.Fetch(ctx, in.Session.Slots[schemax.SlotLocation])
		if err != nil {
			in.Outcome = serviceErrorOutcome(in, err)
			return in, nil
		}
		in.Outcome = contract.Outcome{Kind: contract.OutcomeWeather, Weather: report}
	case contract.IntentStock:
		quote, err := stockSvc.Fetch(ctx,
			in.Session.Slots[schemax.SlotSymbol],
			in.Session.Slots[schemax.SlotExchange],
		)
		if err != nil {
			in.Outcome = serviceErrorOutcome(in, err)
			return in, nil
		}
		in.Outcome = contract.Outcome{Kind: contract.OutcomeStock, Stock: quote}
	default:
		return nil, fmt.Errorf("%w: %q", contract.ErrNoDataService, in.Intent)
	}

	in.Session.ResetSlots()
	in.Session.Touch(in.Now)
	return in, nil
}

func serviceErrorOutcome(in *GraphState, err error) contract.Outcome {
	kind := contract.ServiceErrorKindOf(err)
	log.Warn().
		Err(err).
		Str("turn_id", in.TurnID).
		Str("session_id", in.SessionID).
		Str("intent", string(in.Intent)).
		Str("error_kind", string(kind)).
		Msg("data service dispatch failed")
	return contract.Outcome{Kind: contract.OutcomeError, ErrKind: kind}
}
