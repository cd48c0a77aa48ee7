// Package models defines the core domain types for the trading journal.
package models

import "time"

// Bias is the trader's directional conviction for the day.
type Bias string

const (
	BiasOOBLong  Bias = "OOB_LONG"
	BiasOOBShort Bias = "OOB_SHORT"
	BiasMRLong   Bias = "MR_LONG"
	BiasMRShort  Bias = "MR_SHORT"
	BiasNone     Bias = "NONE"
)

// IsValid reports whether b is one of the five enumerated bias values.
func (b Bias) IsValid() bool {
	switch b {
	case BiasOOBLong, BiasOOBShort, BiasMRLong, BiasMRShort, BiasNone:
		return true
	}
	return false
}

// Label returns the display label for a bias value.
func (b Bias) Label() string {
	switch b {
	case BiasOOBLong:
		return "Bias: OOB Long"
	case BiasOOBShort:
		return "Bias: OOB Short"
	case BiasMRLong:
		return "Bias: MR Long"
	case BiasMRShort:
		return "Bias: MR Short"
	case BiasNone:
		return "Bias: None"
	}
	return string(b)
}

// MarketState is the balance judgement that gates execution models.
type MarketState string

const (
	StateOutOfBalance MarketState = "OUT_OF_BALANCE"
	StateInBalance    MarketState = "IN_BALANCE"
)

// IsValid reports whether m is one of the two enumerated market states.
func (m MarketState) IsValid() bool {
	return m == StateOutOfBalance || m == StateInBalance
}

// Label returns the display label for a market state.
func (m MarketState) Label() string {
	switch m {
	case StateOutOfBalance:
		return "State: Out of Balance"
	case StateInBalance:
		return "State: In Balance"
	}
	return string(m)
}

// Confidence is the optional conviction level attached to a bias.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// Direction is the trade or bias direction.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// BiasResult is the outcome of one run of the bias quiz.
// Invariant: MarketState is non-nil only when Bias != NONE.
type BiasResult struct {
	Bias        Bias         `json:"bias"`
	MarketState *MarketState `json:"market_state"`
	Confidence  *Confidence  `json:"confidence"`
	Tags        []string     `json:"tags"`
}

// BiasStateSnapshot is a persisted bias-of-the-day record. At most one
// snapshot per user per day is active; superseded rows are kept inactive.
type BiasStateSnapshot struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	DayKey      string       `json:"day_key"`
	Bias        Bias         `json:"bias"`
	MarketState *MarketState `json:"market_state"`
	Confidence  *Confidence  `json:"confidence"`
	Tags        []string     `json:"tags"`
	SelectedAt  time.Time    `json:"selected_at"`
	SelectedBy  string       `json:"selected_by,omitempty"`
	Session     *string      `json:"session,omitempty"`
	Active      bool         `json:"active"`
}

// HasContext reports whether the snapshot carries a usable bias and market
// state, i.e. whether execution models are unlocked.
func (s *BiasStateSnapshot) HasContext() bool {
	return s != nil && s.Bias != BiasNone && s.MarketState != nil && s.MarketState.IsValid()
}

// DayKeyFor formats t as the calendar day key scoping one active snapshot.
func DayKeyFor(t time.Time) string {
	return t.Format("2006-01-02")
}
