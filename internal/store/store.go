// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"edgeday-journal/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// DataStore defines the interface for journal persistence.
type DataStore interface {
	// Trades
	SaveTrade(ctx context.Context, trade *models.Trade) error
	UpdateTrade(ctx context.Context, trade *models.Trade) error
	GetTrade(ctx context.Context, id string) (*models.Trade, error)
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	OpenTrades(ctx context.Context, userID string) ([]models.Trade, error)
	LossesOnDay(ctx context.Context, userID, dayKey string) (int, error)

	// Hypotheses
	SaveHypothesis(ctx context.Context, h *models.Hypothesis) error
	GetHypothesis(ctx context.Context, id string) (*models.Hypothesis, error)
	GetHypotheses(ctx context.Context, userID string) ([]models.Hypothesis, error)

	// Settings
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	SaveSettings(ctx context.Context, s *models.UserSettings) error

	// Daily stats
	SaveDailyStats(ctx context.Context, stats *models.DailyStats) error
	GetDailyStats(ctx context.Context, userID, date string) (*models.DailyStats, error)

	// Lifecycle
	Close() error
}

// TradeFilter represents filters for querying trades.
type TradeFilter struct {
	UserID         string
	Asset          string
	Model          string
	Direction      string
	Status         models.TradeStatus
	DayKey         string
	StartDate      time.Time
	EndDate        time.Time
	IsExperimental *bool
	HypothesisID   string
	Limit          int
}
