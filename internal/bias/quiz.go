// Package bias implements the bias quiz: the fixed answer options and the
// pure classifier that maps a completed quiz to a directional bias and
// market state.
package bias

// The quiz presents fixed option lists; answers are matched by exact string.
const (
	LocationOutsideValue = "Outside value & holding beyond edge (σ1→σ2)"
	LocationInsideValue  = "Inside value / reclaimed VAH/VAL"
	LocationVWAPReclaim  = "Just reclaimed VWAP after stretch"
	LocationUndecided    = "Undecided (skip)"

	OrderFlowCVDWithMove   = "CVD with move"
	OrderFlowImbalances    = "Footprint imbalances with move"
	OrderFlowAbsorption    = "Absorption/exhaustion against move"
	OrderFlowBigPrints     = "Big prints in trend direction"
	OrderFlowNoneUnclear   = "None/unclear"

	StructureImpulse        = "Impulse + shallow PB"
	StructureFailedBreakout = "Failed breakout & reclaim"
	StructureRangeRotation  = "Range rotation"
)

// LocationOptions lists the step-one choices in presentation order.
var LocationOptions = []string{
	LocationOutsideValue,
	LocationInsideValue,
	LocationVWAPReclaim,
	LocationUndecided,
}

// OrderFlowOptions lists the step-two choices in presentation order.
var OrderFlowOptions = []string{
	OrderFlowCVDWithMove,
	OrderFlowImbalances,
	OrderFlowAbsorption,
	OrderFlowBigPrints,
	OrderFlowNoneUnclear,
}

// StructureOptions lists the step-three choices in presentation order.
var StructureOptions = []string{
	StructureImpulse,
	StructureFailedBreakout,
	StructureRangeRotation,
}

// ToggleOrderFlow returns the order-flow selection after toggling choice.
// "None/unclear" is mutually exclusive with every other flag: selecting it
// clears the rest, and selecting anything else clears it.
func ToggleOrderFlow(selected []string, choice string) []string {
	exists := false
	next := make([]string, 0, len(selected)+1)
	for _, s := range selected {
		if s == choice {
			exists = true
			continue
		}
		next = append(next, s)
	}
	if !exists {
		next = append(next, choice)
	}

	if choice == OrderFlowNoneUnclear {
		if exists {
			return []string{}
		}
		return []string{OrderFlowNoneUnclear}
	}

	filtered := next[:0]
	for _, s := range next {
		if s != OrderFlowNoneUnclear {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// Complete reports whether every required quiz step has been answered.
// Confidence is optional.
func (a Answers) Complete() bool {
	return a.Location != "" && len(a.OrderFlow) > 0 && a.Structure != "" && a.Direction != nil
}
