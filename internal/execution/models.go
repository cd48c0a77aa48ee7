// Package execution holds the static execution-model registry: which trade
// setup templates exist, which market state unlocks them, and the entry
// checklist each one requires. The registry is immutable reference data.
package execution

import (
	"strings"

	"edgeday-journal/internal/models"
)

// Model identifies one execution model. Trend models apply out of balance,
// mean-reversion models in balance.
type Model string

const (
	TrendImpulsePB      Model = "TREND_IMPULSE_PB"
	TrendVWAPSigma      Model = "TREND_VWAP_SIGMA"
	TrendValueMigration Model = "TREND_VALUE_MIGRATION"
	MRFailBreakoutPOC   Model = "MR_FAIL_BREAKOUT_POC"
	MRVAFade            Model = "MR_VA_FADE"
	MRVWAPRevert        Model = "MR_VWAP_REVERT"
)

type detail struct {
	label     string
	checklist []string
}

var modelsByState = map[models.MarketState][]Model{
	models.StateOutOfBalance: {
		TrendImpulsePB,
		TrendVWAPSigma,
		TrendValueMigration,
	},
	models.StateInBalance: {
		MRFailBreakoutPOC,
		MRVAFade,
		MRVWAPRevert,
	},
}

var details = map[Model]detail{
	TrendImpulsePB: {
		label: "Trend • Impulse Pullback",
		checklist: []string{
			"HTF aligns with OOB direction",
			"Price outside value with trend control",
			"Impulse leg followed by shallow pullback",
			"CVD & imbalances backing the move",
			"No opposite absorption at point of interest",
			"Risk defined behind impulse origin",
		},
	},
	TrendVWAPSigma: {
		label: "Trend • VWAP σ Ride",
		checklist: []string{
			"VWAP posture aligned with trend",
			"Holding above σ1 and pressing toward σ2",
			"No heavy counter absorption",
			"Liquidity target remains ahead",
			"Risk tucked under VWAP/σ reclaim",
		},
	},
	TrendValueMigration: {
		label: "Trend • Value Migration",
		checklist: []string{
			"POC / value shifting in trend direction",
			"Pullback respects migrated value area",
			"Continuation prints confirming migration",
			"No topping divergence into entry",
			"Risk placed behind migrated value",
		},
	},
	MRFailBreakoutPOC: {
		label: "MR • Failed Breakout to POC",
		checklist: []string{
			"Edge breakout failed and reclaimed",
			"Acceptance building back inside value",
			"Exhaustion where breakout failed",
			"Primary target set to session POC",
			"Risk placed beyond failed extreme",
		},
	},
	MRVAFade: {
		label: "MR • Value Area Fade",
		checklist: []string{
			"Test & rejection of VAH/VAL",
			"Day type showing non-trend behavior",
			"Lack of aggression through the edge",
			"Target planned toward mid / POC",
			"Risk tucked beyond the value edge",
		},
	},
	MRVWAPRevert: {
		label: "MR • VWAP Revert",
		checklist: []string{
			"Stretch extended from VWAP",
			"Momentum waning / divergence showing",
			"Entry planned on VWAP reclaim",
			"Target anchored at VWAP",
			"Risk set beyond stretch extreme",
		},
	},
}

// ModelsFor returns the models selectable under the given market state, in
// registry order. A nil or unknown state yields no models.
func ModelsFor(state *models.MarketState) []Model {
	if state == nil {
		return nil
	}
	ms, ok := modelsByState[*state]
	if !ok {
		return nil
	}
	out := make([]Model, len(ms))
	copy(out, ms)
	return out
}

// AllModels returns every registered model, trend family first.
func AllModels() []Model {
	out := make([]Model, 0, len(details))
	oob := models.StateOutOfBalance
	ib := models.StateInBalance
	out = append(out, ModelsFor(&oob)...)
	out = append(out, ModelsFor(&ib)...)
	return out
}

// Label returns the display label for a model, falling back to the raw
// identifier for unknown models.
func Label(m Model) string {
	if d, ok := details[m]; ok {
		return d.label
	}
	return string(m)
}

// Checklist returns a copy of the model's entry checklist, empty for
// unknown models.
func Checklist(m Model) []string {
	d, ok := details[m]
	if !ok {
		return nil
	}
	out := make([]string, len(d.checklist))
	copy(out, d.checklist)
	return out
}

// Allowed reports whether m is selectable under the given market state.
func Allowed(m Model, state *models.MarketState) bool {
	for _, candidate := range ModelsFor(state) {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsTrend reports whether the model identifier belongs to the trend family.
func IsTrend(m string) bool {
	return strings.HasPrefix(m, "TREND")
}

// IsMeanReversion reports whether the model identifier belongs to the
// mean-reversion family.
func IsMeanReversion(m string) bool {
	return strings.HasPrefix(m, "MR_")
}
