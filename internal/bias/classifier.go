package bias

import (
	"strings"

	"edgeday-journal/internal/models"
)

// Answers holds the five quiz steps. Zero values stand for unanswered steps;
// Classify tolerates any combination.
type Answers struct {
	Location   string
	OrderFlow  []string
	Structure  string
	Session    string
	Direction  *models.Direction
	Confidence *models.Confidence
}

// Classify derives the bias and market state from a set of quiz answers.
// It is pure and never fails: missing or contradictory answers degrade to
// {NONE, nil}. Same input always yields the same output.
//
// Decision order:
//  1. OUT_OF_BALANCE requires outside-value location, order flow with the
//     move, impulse structure, and no opposing absorption.
//  2. Otherwise failed breakout, inside-value location, absorption, or
//     range rotation all read as IN_BALANCE.
//  3. No direction, or an everywhere-undecided quiz, forces NONE.
//  4. A NONE bias never carries a market state.
func Classify(a Answers) models.BiasResult {
	outsideValue := strings.HasPrefix(a.Location, "Outside value")
	insideValue := strings.HasPrefix(a.Location, "Inside value")
	failedBreakout := a.Structure == StructureFailedBreakout
	impulse := a.Structure == StructureImpulse
	rangeRotation := a.Structure == StructureRangeRotation

	ofWithMove := false
	ofAbsorption := false
	ofNone := false
	for _, o := range a.OrderFlow {
		switch o {
		case OrderFlowCVDWithMove, OrderFlowImbalances:
			ofWithMove = true
		case OrderFlowAbsorption:
			ofAbsorption = true
		case OrderFlowNoneUnclear:
			ofNone = true
		}
	}

	undecidedEverywhere := a.Location == LocationUndecided &&
		(len(a.OrderFlow) == 0 || ofNone) &&
		rangeRotation

	var state *models.MarketState
	if outsideValue && ofWithMove && impulse && !ofAbsorption {
		s := models.StateOutOfBalance
		state = &s
	} else if failedBreakout || insideValue || ofAbsorption || rangeRotation {
		s := models.StateInBalance
		state = &s
	}

	b := models.BiasNone
	switch {
	case a.Direction == nil || undecidedEverywhere:
		b = models.BiasNone
	case state != nil && *state == models.StateOutOfBalance:
		if *a.Direction == models.DirectionLong {
			b = models.BiasOOBLong
		} else {
			b = models.BiasOOBShort
		}
	case state != nil && *state == models.StateInBalance:
		if *a.Direction == models.DirectionLong {
			b = models.BiasMRLong
		} else {
			b = models.BiasMRShort
		}
	}

	// A NONE bias never carries a market state.
	if b == models.BiasNone {
		state = nil
	}

	tags := make([]string, 0, len(a.OrderFlow)+3)
	if a.Location != "" && a.Location != LocationUndecided {
		tags = append(tags, a.Location)
	}
	for _, o := range a.OrderFlow {
		if o != OrderFlowNoneUnclear && o != "" {
			tags = append(tags, o)
		}
	}
	if a.Structure != "" {
		tags = append(tags, a.Structure)
	}
	if a.Session != "" {
		tags = append(tags, a.Session)
	}

	return models.BiasResult{
		Bias:        b,
		MarketState: state,
		Confidence:  a.Confidence,
		Tags:        tags,
	}
}
