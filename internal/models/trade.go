package models

import "time"

// TradeStatus tracks a trade through its lifecycle.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "open"
	TradeClosed TradeStatus = "closed"
)

// RiskTier maps a tier letter to a fixed dollar risk amount.
type RiskTier string

const (
	RiskTierA RiskTier = "a"
	RiskTierB RiskTier = "b"
	RiskTierC RiskTier = "c"
)

// ChecklistItem is one prerequisite condition of an execution model,
// captured at entry time with its checked state.
type ChecklistItem struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// Emotions holds the psychology sliders recorded with each trade (0-10).
type Emotions struct {
	CalmStressed int `json:"calm_stressed"`
	Focus        int `json:"focus"`
	UrgeRecover  int `json:"urge_recover"`
}

// Trade is the journal record. It is created on submission and mutated only
// to transition open -> closed, never otherwise.
type Trade struct {
	ID                string             `json:"id"`
	UserID            string             `json:"user_id"`
	Asset             string             `json:"asset"`
	Direction         Direction          `json:"direction"`
	Model             string             `json:"model"`
	Locations         []string           `json:"locations"`
	Aggression        []string           `json:"aggression"`
	RiskTier          RiskTier           `json:"risk_tier"`
	RiskAmount        float64            `json:"risk_amount"`
	EntryPrice        float64            `json:"entry_price"`
	StopLoss          float64            `json:"stop_loss"`
	ExitPrice         *float64           `json:"exit_price"`
	EntryTime         time.Time          `json:"entry_time"`
	ExitTime          *time.Time         `json:"exit_time"`
	CloseDayKey       *string            `json:"close_day_key"`
	Session           *string            `json:"session"`
	Scenarios         []string           `json:"scenarios"`
	Emotions          Emotions           `json:"emotions"`
	Externals         []string           `json:"externals"`
	MistakeTags       []string           `json:"mistake_tags"`
	ScreenshotURL     *string            `json:"screenshot_url"`
	Notes             *string            `json:"notes"`
	IsExperimental    bool               `json:"is_experimental"`
	HypothesisID      *string            `json:"hypothesis_id"`
	OverrideReason    *string            `json:"override_reason"`
	BiasSnapshot      *BiasStateSnapshot `json:"bias_snapshot"`
	Checklist         []ChecklistItem    `json:"checklist"`
	ChecklistComplete bool               `json:"checklist_complete"`
	PnL               *float64           `json:"pnl"`
	RMultiple         *float64           `json:"r_multiple"`
	DurationMinutes   *int               `json:"duration_minutes"`
	Status            TradeStatus        `json:"status"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// IsWin reports whether a closed trade finished with positive P&L.
func (t *Trade) IsWin() bool {
	return t.PnL != nil && *t.PnL > 0
}

// IsLoss reports whether a closed trade finished with negative P&L.
func (t *Trade) IsLoss() bool {
	return t.PnL != nil && *t.PnL < 0
}

// Hypothesis is a named experiment that experimental trades attach to for
// A/B comparison against the regular playbook.
type Hypothesis struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserSettings stores sticky form defaults and the daily wrap time.
type UserSettings struct {
	UserID        string    `json:"user_id"`
	DailyWrapTime string    `json:"daily_wrap_time"`
	LastModel     *string   `json:"last_model"`
	LastRiskTier  *RiskTier `json:"last_risk_tier"`
	LastLocations []string  `json:"last_locations"`
	UpdatedAt     time.Time `json:"updated_at"`
}
