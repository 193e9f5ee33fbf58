package dialognode

import (
	"fmt"

	"parley/agent/contract"
)

// ApplyIntentSwitch reconciles the classification with the stored intent.
// Rules, in order:
//   - no stored intent + unknown classification: the turn resolves to the
//     generic capabilities reply without extraction or dispatch;
//   - no stored intent + known classification: adopt it (the threshold only
//     guards evicting an existing intent);
//   - known classification differing from the stored intent at or above the
//     switch threshold: clear all slots, then record the new intent;
//   - anything else (unknown follow-up, same intent, low-confidence change):
//     keep the stored intent so short answers like "NASDAQ" stay attributable.
func ApplyIntentSwitch(in *GraphState, switchThreshold float64) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contract.ErrValidation)
	}

	cls := in.Classification
	stored := in.Session.Intent

	switch {
	case !stored.Known() && !cls.Intent.Known():
		in.Outcome = contract.Outcome{Kind: contract.OutcomeFallback}
	case !stored.Known():
		in.Session.SwitchIntent(cls.Intent, in.Now)
	case cls.Intent.Known() && cls.Intent != stored && cls.Confidence >= switchThreshold:
		in.Session.SwitchIntent(cls.Intent, in.Now)
	}

	in.Intent = in.Session.Intent
	return in, nil
}
