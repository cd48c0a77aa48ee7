package models

import "time"

// KPIStats is the aggregate performance summary over a set of closed trades.
type KPIStats struct {
	TotalTrades  int     `json:"total_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	TotalPnL     float64 `json:"total_pnl"`
	TotalR       float64 `json:"total_r"`
	AvgR         float64 `json:"avg_r"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	ProfitFactor float64 `json:"profit_factor"`
	Expectancy   float64 `json:"expectancy"`
}

// HourBucket aggregates closed-trade performance for one hour of the day.
type HourBucket struct {
	Hour   int     `json:"hour"`
	Trades int     `json:"trades"`
	Wins   int     `json:"wins"`
	PnL    float64 `json:"pnl"`
	TotalR float64 `json:"total_r"`
}

// MistakeImpact aggregates the cost of one mistake tag.
type MistakeImpact struct {
	Tag    string  `json:"tag"`
	Count  int     `json:"count"`
	TotalR float64 `json:"total_r"`
	PnL    float64 `json:"total_pnl"`
}

// EmotionAverage is the mean slider value for one emotion dimension.
type EmotionAverage struct {
	Emotion string  `json:"emotion"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// ModelFamilyStats compares performance of one execution-model family.
type ModelFamilyStats struct {
	Family   string  `json:"family"`
	Trades   int     `json:"trades"`
	WinRate  float64 `json:"win_rate"`
	AvgR     float64 `json:"avg_r"`
	TotalPnL float64 `json:"total_pnl"`
}

// DailyStats is the persisted end-of-day rollup written at wrap time.
type DailyStats struct {
	UserID            string    `json:"user_id"`
	Date              string    `json:"date"`
	TotalTrades       int       `json:"total_trades"`
	WinningTrades     int       `json:"winning_trades"`
	LosingTrades      int       `json:"losing_trades"`
	WinRate           float64   `json:"win_rate"`
	TotalPnL          float64   `json:"total_pnl"`
	TotalR            float64   `json:"total_r"`
	AvgR              float64   `json:"avg_r"`
	BestTradeR        float64   `json:"best_trade_r"`
	WorstTradeR       float64   `json:"worst_trade_r"`
	BestHour          *int      `json:"best_hour"`
	WorstHour         *int      `json:"worst_hour"`
	ConsecutiveLosses int       `json:"consecutive_losses"`
	DayDisabled       bool      `json:"day_disabled"`
	UpdatedAt         time.Time `json:"updated_at"`
}
