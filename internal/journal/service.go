package journal

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	domainerrors "edgeday-journal/internal/errors"
	"edgeday-journal/internal/execution"
	"edgeday-journal/internal/models"
	"edgeday-journal/internal/sessions"
	"edgeday-journal/internal/store"
	"edgeday-journal/internal/stream"
)

// ContextProvider supplies the day's active bias snapshot. The bias gate
// implements it; tests substitute fixtures.
type ContextProvider interface {
	Current(ctx context.Context) (*models.BiasStateSnapshot, error)
}

// Service owns journal writes: new entries pass the execution-context gate
// and the daily stop rule before they reach the store.
type Service struct {
	store  store.DataStore
	bias   ContextProvider
	feed   *stream.Feed
	log    zerolog.Logger
	userID string
	now    func() time.Time
}

// NewService wires a journal service. feed may be nil.
func NewService(s store.DataStore, bias ContextProvider, feed *stream.Feed, userID string, log zerolog.Logger) *Service {
	return &Service{
		store:  s,
		bias:   bias,
		feed:   feed,
		log:    log,
		userID: userID,
		now:    time.Now,
	}
}

// SetNow overrides the service clock. Test hook.
func (s *Service) SetNow(now func() time.Time) { s.now = now }

// AddTradeInput carries everything the entry form collects.
type AddTradeInput struct {
	Asset          string
	Direction      models.Direction
	Model          execution.Model
	Checklist      []models.ChecklistItem
	Locations      []string
	Aggression     []string
	RiskTier       models.RiskTier
	EntryPrice     float64
	StopLoss       float64
	EntryTime      time.Time
	Scenarios      []string
	Emotions       *models.Emotions
	Externals      []string
	MistakeTags    []string
	ScreenshotURL  *string
	Notes          *string
	IsExperimental bool
	HypothesisID   *string
	OverrideReason *string
}

func (in *AddTradeInput) validate() error {
	if strings.TrimSpace(in.Asset) == "" {
		return domainerrors.NewValidationError("asset", in.Asset, "asset is required")
	}
	if in.Direction != models.DirectionLong && in.Direction != models.DirectionShort {
		return domainerrors.NewValidationError("direction", in.Direction, "direction must be long or short")
	}
	if in.EntryPrice <= 0 {
		return domainerrors.NewValidationError("entry_price", in.EntryPrice, "entry price must be positive")
	}
	if in.StopLoss <= 0 {
		return domainerrors.NewValidationError("stop_loss", in.StopLoss, "stop loss must be positive")
	}
	if len(in.Locations) == 0 {
		return domainerrors.NewValidationError("locations", in.Locations, "at least one location is required")
	}
	if len(in.Aggression) == 0 {
		return domainerrors.NewValidationError("aggression", in.Aggression, "at least one aggression type is required")
	}
	if _, ok := RiskAmounts[in.RiskTier]; !ok {
		return domainerrors.NewValidationError("risk_tier", in.RiskTier, "unknown risk tier")
	}
	return nil
}

func checklistComplete(items []models.ChecklistItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.Checked {
			return false
		}
	}
	return true
}

// AddTrade validates the entry against the execution-context gate and the
// daily stop rule, then persists it as an open trade.
func (s *Service) AddTrade(ctx context.Context, in AddTradeInput) (*models.Trade, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	snap, err := s.bias.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve bias context: %w", err)
	}
	if snap == nil || !snap.HasContext() {
		return nil, domainerrors.ErrNoBiasContext
	}
	if !execution.Allowed(in.Model, snap.MarketState) {
		return nil, domainerrors.ErrModelNotAllowed
	}
	if !checklistComplete(in.Checklist) {
		return nil, domainerrors.ErrChecklistOpen
	}

	entryTime := in.EntryTime
	if entryTime.IsZero() {
		entryTime = s.now()
	}

	losses, err := s.store.LossesOnDay(ctx, s.userID, models.DayKeyFor(entryTime))
	if err != nil {
		return nil, fmt.Errorf("check daily losses: %w", err)
	}
	if losses >= DailyLossLimit {
		if in.OverrideReason == nil || strings.TrimSpace(*in.OverrideReason) == "" {
			return nil, domainerrors.ErrDailyLossLimit
		}
		s.log.Warn().Int("losses", losses).Str("reason", *in.OverrideReason).
			Msg("daily loss limit overridden")
	}

	emotions := DefaultEmotions()
	if in.Emotions != nil {
		emotions = *in.Emotions
	}

	var session *string
	if active := sessions.Active(entryTime); active != nil {
		name := active.Name
		session = &name
	}

	snapCopy := *snap
	trade := &models.Trade{
		UserID:            s.userID,
		Asset:             in.Asset,
		Direction:         in.Direction,
		Model:             string(in.Model),
		Locations:         in.Locations,
		Aggression:        in.Aggression,
		RiskTier:          in.RiskTier,
		RiskAmount:        RiskAmounts[in.RiskTier],
		EntryPrice:        in.EntryPrice,
		StopLoss:          in.StopLoss,
		EntryTime:         entryTime.UTC(),
		Session:           session,
		Scenarios:         in.Scenarios,
		Emotions:          emotions,
		Externals:         in.Externals,
		MistakeTags:       in.MistakeTags,
		ScreenshotURL:     in.ScreenshotURL,
		Notes:             in.Notes,
		IsExperimental:    in.IsExperimental,
		HypothesisID:      in.HypothesisID,
		OverrideReason:    in.OverrideReason,
		BiasSnapshot:      &snapCopy,
		Checklist:         in.Checklist,
		ChecklistComplete: true,
		Status:            models.TradeOpen,
	}

	if err := s.store.SaveTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("save trade: %w", err)
	}

	s.rememberFormDefaults(ctx, in)
	s.publish(stream.TopicTrades)

	s.log.Info().Str("trade_id", trade.ID).Str("asset", trade.Asset).
		Str("model", trade.Model).Str("bias", string(snap.Bias)).
		Msg("trade opened")
	return trade, nil
}

// CloseTradeInput carries the close-out form.
type CloseTradeInput struct {
	TradeID     string
	ExitPrice   float64
	ExitTime    *time.Time
	MistakeTags []string
	Notes       *string
}

// CloseTrade transitions an open trade to closed, computing P&L, R multiple,
// and duration from the recorded entry.
func (s *Service) CloseTrade(ctx context.Context, in CloseTradeInput) (*models.Trade, error) {
	if in.ExitPrice <= 0 {
		return nil, domainerrors.NewValidationError("exit_price", in.ExitPrice, "exit price must be positive")
	}

	trade, err := s.store.GetTrade(ctx, in.TradeID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.ErrTradeNotFound
		}
		return nil, fmt.Errorf("load trade: %w", err)
	}
	if trade.Status == models.TradeClosed {
		return nil, domainerrors.ErrTradeClosed
	}

	// The close day key is derived from the trader's wall clock before the
	// exit instant is normalized to UTC, so the stop rule counts the loss
	// against the local day it was realized on.
	localExit := s.now()
	if in.ExitTime != nil {
		localExit = *in.ExitTime
	}
	exitTime := localExit.UTC()
	closeDay := models.DayKeyFor(localExit)

	pnl, rMultiple := CloseMath(trade.Direction, trade.EntryPrice, trade.StopLoss, in.ExitPrice, trade.RiskAmount)
	duration := int(math.Round(exitTime.Sub(trade.EntryTime).Minutes()))

	trade.ExitPrice = &in.ExitPrice
	trade.ExitTime = &exitTime
	trade.CloseDayKey = &closeDay
	trade.PnL = &pnl
	trade.RMultiple = &rMultiple
	trade.DurationMinutes = &duration
	trade.Status = models.TradeClosed
	if len(in.MistakeTags) > 0 {
		trade.MistakeTags = in.MistakeTags
	}
	if in.Notes != nil {
		trade.Notes = in.Notes
	}

	if err := s.store.UpdateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("close trade: %w", err)
	}

	s.publish(stream.TopicTrades)
	s.log.Info().Str("trade_id", trade.ID).Float64("pnl", pnl).
		Float64("r", rMultiple).Int("duration_min", duration).
		Msg("trade closed")
	return trade, nil
}

// CloseMath computes P&L and R multiple for a close-out. The price move is
// signed by direction; P&L scales the move against the risked amount and R
// measures it against the stop distance. A zero stop distance yields R 0.
func CloseMath(direction models.Direction, entry, stop, exit, riskAmount float64) (pnl, rMultiple float64) {
	priceDiff := exit - entry
	if direction == models.DirectionShort {
		priceDiff = entry - exit
	}

	pnl = (priceDiff / entry) * riskAmount

	stopDistance := math.Abs(entry - stop)
	if stopDistance > 0 {
		rMultiple = priceDiff / stopDistance
	}

	return round(pnl, 2), round(rMultiple, 3)
}

func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

// Trades returns the user's trades matching the filter.
func (s *Service) Trades(ctx context.Context, filter store.TradeFilter) ([]models.Trade, error) {
	filter.UserID = s.userID
	return s.store.GetTrades(ctx, filter)
}

// OpenTrades returns the user's open trades, oldest first.
func (s *Service) OpenTrades(ctx context.Context) ([]models.Trade, error) {
	return s.store.OpenTrades(ctx, s.userID)
}

// DailyLosses returns how many losing trades closed on the given day.
func (s *Service) DailyLosses(ctx context.Context, dayKey string) (int, error) {
	return s.store.LossesOnDay(ctx, s.userID, dayKey)
}

// CanAddTrade reports whether the stop rule still permits new entries today.
func (s *Service) CanAddTrade(ctx context.Context) (bool, error) {
	losses, err := s.store.LossesOnDay(ctx, s.userID, models.DayKeyFor(s.now()))
	if err != nil {
		return false, err
	}
	return losses < DailyLossLimit, nil
}

// AddHypothesis records a new experiment hypothesis.
func (s *Service) AddHypothesis(ctx context.Context, title string, description *string) (*models.Hypothesis, error) {
	if strings.TrimSpace(title) == "" {
		return nil, domainerrors.NewValidationError("title", title, "title is required")
	}
	h := &models.Hypothesis{UserID: s.userID, Title: title, Description: description}
	if err := s.store.SaveHypothesis(ctx, h); err != nil {
		return nil, fmt.Errorf("save hypothesis: %w", err)
	}
	return h, nil
}

// Hypotheses lists the user's hypotheses, newest first.
func (s *Service) Hypotheses(ctx context.Context) ([]models.Hypothesis, error) {
	return s.store.GetHypotheses(ctx, s.userID)
}

// Settings returns the user's settings, creating defaults on first use.
func (s *Service) Settings(ctx context.Context) (*models.UserSettings, error) {
	return s.store.GetSettings(ctx, s.userID)
}

// SaveSettings persists the user's settings and announces the change.
func (s *Service) SaveSettings(ctx context.Context, settings *models.UserSettings) error {
	settings.UserID = s.userID
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return err
	}
	s.publish(stream.TopicSettings)
	return nil
}

// rememberFormDefaults keeps the sticky entry-form values. Failures only
// cost convenience, so they are logged and swallowed.
func (s *Service) rememberFormDefaults(ctx context.Context, in AddTradeInput) {
	settings, err := s.store.GetSettings(ctx, s.userID)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load settings for sticky defaults")
		return
	}
	model := string(in.Model)
	tier := in.RiskTier
	settings.LastModel = &model
	settings.LastRiskTier = &tier
	settings.LastLocations = in.Locations
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		s.log.Warn().Err(err).Msg("failed to save sticky defaults")
		return
	}
	s.publish(stream.TopicSettings)
}

func (s *Service) publish(topic stream.Topic) {
	if s.feed != nil {
		s.feed.Publish(topic)
	}
}
