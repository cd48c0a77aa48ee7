// Package journal implements the trade journal: entry validation, the
// daily stop rule, close-out math, aggregate statistics, and exports.
package journal

import "edgeday-journal/internal/models"

// Fixed option lists presented by the entry form. Free-text values are not
// accepted for these fields.
var (
	Assets = []string{"EURUSD", "GBPUSD", "USDJPY", "XAUUSD", "NQ", "ES", "BTCUSD"}

	Locations = []string{"LVN", "POC", "OB", "FVG", "IFVG", "Breaker"}

	AggressionTypes = []string{"Big Print", "Imbalance", "Delta Push", "Absorption", "Exhaustion"}

	Scenarios = []string{"Move to BE", "BE Hit", "Partial @X", "Full TP", "Manual Exit", "Re-entry", "News", "Slippage"}

	Externals = []string{"Sleep<6h", "Distraction", "Family stress", "Illness", "Caffeine"}

	MistakeTags = []string{"Overtrade", "FOMO", "Chased", "Skipped Aggression", "Fought Balance"}
)

// RiskAmounts maps each risk tier to its fixed dollar risk.
var RiskAmounts = map[models.RiskTier]float64{
	models.RiskTierA: 100,
	models.RiskTierB: 50,
	models.RiskTierC: 25,
}

// DailyLossLimit is the number of losing closes that disables new entries
// for the rest of the day unless the trader records an override reason.
const DailyLossLimit = 3

// DefaultEmotions returns the slider defaults used when the trader leaves
// the psychology section untouched.
func DefaultEmotions() models.Emotions {
	return models.Emotions{CalmStressed: 5, Focus: 7, UrgeRecover: 3}
}
