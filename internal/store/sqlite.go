package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"edgeday-journal/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based journal store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Journal trades
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		day_key TEXT NOT NULL,
		asset TEXT NOT NULL,
		direction TEXT NOT NULL,
		model TEXT NOT NULL,
		locations TEXT NOT NULL DEFAULT '[]',
		aggression TEXT NOT NULL DEFAULT '[]',
		risk_tier TEXT NOT NULL,
		risk_amount REAL NOT NULL,
		entry_price REAL NOT NULL,
		stop_loss REAL NOT NULL,
		exit_price REAL,
		entry_time DATETIME NOT NULL,
		exit_time DATETIME,
		close_day_key TEXT,
		session TEXT,
		scenarios TEXT NOT NULL DEFAULT '[]',
		emotions TEXT NOT NULL DEFAULT '{}',
		externals TEXT NOT NULL DEFAULT '[]',
		mistake_tags TEXT NOT NULL DEFAULT '[]',
		screenshot_url TEXT,
		notes TEXT,
		is_experimental INTEGER NOT NULL DEFAULT 0,
		hypothesis_id TEXT,
		override_reason TEXT,
		bias_snapshot TEXT,
		checklist TEXT NOT NULL DEFAULT '[]',
		checklist_complete INTEGER NOT NULL DEFAULT 0,
		pnl REAL,
		r_multiple REAL,
		duration_minutes INTEGER,
		status TEXT NOT NULL DEFAULT 'open',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_user_day ON trades(user_id, day_key);
	CREATE INDEX IF NOT EXISTS idx_trades_user_close_day ON trades(user_id, close_day_key);
	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(user_id, status);

	-- Experiment hypotheses
	CREATE TABLE IF NOT EXISTS hypotheses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Sticky form defaults and wrap time
	CREATE TABLE IF NOT EXISTS user_settings (
		user_id TEXT PRIMARY KEY,
		daily_wrap_time TEXT NOT NULL DEFAULT '21:00',
		last_model TEXT,
		last_risk_tier TEXT,
		last_locations TEXT NOT NULL DEFAULT '[]',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- End-of-day rollups
	CREATE TABLE IF NOT EXISTS daily_stats (
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		total_trades INTEGER NOT NULL DEFAULT 0,
		winning_trades INTEGER NOT NULL DEFAULT 0,
		losing_trades INTEGER NOT NULL DEFAULT 0,
		win_rate REAL NOT NULL DEFAULT 0,
		total_pnl REAL NOT NULL DEFAULT 0,
		total_r REAL NOT NULL DEFAULT 0,
		avg_r REAL NOT NULL DEFAULT 0,
		best_trade_r REAL NOT NULL DEFAULT 0,
		worst_trade_r REAL NOT NULL DEFAULT 0,
		best_hour INTEGER,
		worst_hour INTEGER,
		consecutive_losses INTEGER NOT NULL DEFAULT 0,
		day_disabled INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, date)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const tradeColumns = `id, user_id, day_key, asset, direction, model, locations, aggression,
	risk_tier, risk_amount, entry_price, stop_loss, exit_price, entry_time, exit_time,
	close_day_key, session, scenarios, emotions, externals, mistake_tags, screenshot_url, notes,
	is_experimental, hypothesis_id, override_reason, bias_snapshot, checklist,
	checklist_complete, pnl, r_multiple, duration_minutes, status, created_at, updated_at`

// SaveTrade inserts a new trade record.
func (s *SQLiteStore) SaveTrade(ctx context.Context, trade *models.Trade) error {
	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = now
	}
	trade.UpdatedAt = now
	if trade.Status == "" {
		trade.Status = models.TradeOpen
	}

	locations, err := jsonEncode(trade.Locations)
	if err != nil {
		return err
	}
	aggression, err := jsonEncode(trade.Aggression)
	if err != nil {
		return err
	}
	scenarios, err := jsonEncode(trade.Scenarios)
	if err != nil {
		return err
	}
	emotions, err := jsonEncode(trade.Emotions)
	if err != nil {
		return err
	}
	externals, err := jsonEncode(trade.Externals)
	if err != nil {
		return err
	}
	mistakes, err := jsonEncode(trade.MistakeTags)
	if err != nil {
		return err
	}
	checklist, err := jsonEncode(trade.Checklist)
	if err != nil {
		return err
	}
	var biasSnapshot interface{}
	if trade.BiasSnapshot != nil {
		encoded, err := jsonEncode(trade.BiasSnapshot)
		if err != nil {
			return err
		}
		biasSnapshot = encoded
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trades (`+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.ID, trade.UserID, models.DayKeyFor(trade.EntryTime), trade.Asset,
		string(trade.Direction), trade.Model, locations, aggression,
		string(trade.RiskTier), trade.RiskAmount, trade.EntryPrice, trade.StopLoss,
		trade.ExitPrice, trade.EntryTime, trade.ExitTime, trade.CloseDayKey, trade.Session,
		scenarios, emotions, externals, mistakes, trade.ScreenshotURL, trade.Notes,
		boolToInt(trade.IsExperimental), trade.HypothesisID, trade.OverrideReason,
		biasSnapshot, checklist, boolToInt(trade.ChecklistComplete),
		trade.PnL, trade.RMultiple, trade.DurationMinutes, string(trade.Status),
		trade.CreatedAt, trade.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}
	return nil
}

// UpdateTrade rewrites the mutable fields of an existing trade. The journal
// only mutates trades to close them, so the update covers the exit fields.
func (s *SQLiteStore) UpdateTrade(ctx context.Context, trade *models.Trade) error {
	trade.UpdatedAt = time.Now().UTC()

	mistakes, err := jsonEncode(trade.MistakeTags)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE trades SET
			exit_price = ?, exit_time = ?, close_day_key = ?, pnl = ?, r_multiple = ?,
			duration_minutes = ?, mistake_tags = ?, notes = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		trade.ExitPrice, trade.ExitTime, trade.CloseDayKey, trade.PnL, trade.RMultiple,
		trade.DurationMinutes, mistakes, trade.Notes, string(trade.Status),
		trade.UpdatedAt, trade.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTrade returns one trade by id.
func (s *SQLiteStore) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE id = ?`, id)
	trade, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return trade, nil
}

// GetTrades returns trades matching the filter, newest first.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE 1=1`
	var args []interface{}
	var conds []string

	if filter.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Asset != "" {
		conds = append(conds, "asset = ?")
		args = append(args, filter.Asset)
	}
	if filter.Model != "" {
		conds = append(conds, "model = ?")
		args = append(args, filter.Model)
	}
	if filter.Direction != "" {
		conds = append(conds, "direction = ?")
		args = append(args, filter.Direction)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.DayKey != "" {
		conds = append(conds, "day_key = ?")
		args = append(args, filter.DayKey)
	}
	if !filter.StartDate.IsZero() {
		conds = append(conds, "entry_time >= ?")
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		conds = append(conds, "entry_time <= ?")
		args = append(args, filter.EndDate)
	}
	if filter.IsExperimental != nil {
		conds = append(conds, "is_experimental = ?")
		args = append(args, boolToInt(*filter.IsExperimental))
	}
	if filter.HypothesisID != "" {
		conds = append(conds, "hypothesis_id = ?")
		args = append(args, filter.HypothesisID)
	}

	if len(conds) > 0 {
		query += " AND " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY entry_time DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, *trade)
	}
	return trades, rows.Err()
}

// OpenTrades returns the user's open trades, oldest first.
func (s *SQLiteStore) OpenTrades(ctx context.Context, userID string) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM trades
		 WHERE user_id = ? AND status = 'open' ORDER BY entry_time ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, *trade)
	}
	return trades, rows.Err()
}

// LossesOnDay counts the user's losing trades closed on the given day.
// The day of the exit is what matters for the stop rule, not the entry.
// close_day_key carries the trader's local day of the exit, so the count
// stays aligned with the local day keys the stop rule is evaluated against
// even though exit_time itself is stored UTC.
func (s *SQLiteStore) LossesOnDay(ctx context.Context, userID, dayKey string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trades
		 WHERE user_id = ? AND status = 'closed' AND pnl < 0 AND close_day_key = ?`,
		userID, dayKey,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count losses: %w", err)
	}
	return n, nil
}

// SaveHypothesis inserts or updates a hypothesis.
func (s *SQLiteStore) SaveHypothesis(ctx context.Context, h *models.Hypothesis) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	h.UpdatedAt = now
	if h.Status == "" {
		h.Status = "active"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hypotheses (id, user_id, title, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		h.ID, h.UserID, h.Title, h.Description, h.Status, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save hypothesis: %w", err)
	}
	return nil
}

// GetHypothesis returns one hypothesis by id.
func (s *SQLiteStore) GetHypothesis(ctx context.Context, id string) (*models.Hypothesis, error) {
	var h models.Hypothesis
	var description sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, status, created_at, updated_at
		 FROM hypotheses WHERE id = ?`, id,
	).Scan(&h.ID, &h.UserID, &h.Title, &description, &h.Status, &h.CreatedAt, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hypothesis: %w", err)
	}
	if description.Valid {
		h.Description = &description.String
	}
	return &h, nil
}

// GetHypotheses returns the user's hypotheses, newest first.
func (s *SQLiteStore) GetHypotheses(ctx context.Context, userID string) ([]models.Hypothesis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, status, created_at, updated_at
		 FROM hypotheses WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query hypotheses: %w", err)
	}
	defer rows.Close()

	var out []models.Hypothesis
	for rows.Next() {
		var h models.Hypothesis
		var description sql.NullString
		if err := rows.Scan(&h.ID, &h.UserID, &h.Title, &description, &h.Status,
			&h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		if description.Valid {
			h.Description = &description.String
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetSettings returns the user's settings, creating defaults on first use.
func (s *SQLiteStore) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	var settings models.UserSettings
	var lastModel, lastRiskTier sql.NullString
	var lastLocations string

	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, daily_wrap_time, last_model, last_risk_tier, last_locations, updated_at
		 FROM user_settings WHERE user_id = ?`, userID,
	).Scan(&settings.UserID, &settings.DailyWrapTime, &lastModel, &lastRiskTier,
		&lastLocations, &settings.UpdatedAt)
	if err == sql.ErrNoRows {
		defaults := &models.UserSettings{
			UserID:        userID,
			DailyWrapTime: "21:00",
			UpdatedAt:     time.Now().UTC(),
		}
		if err := s.SaveSettings(ctx, defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	if lastModel.Valid {
		settings.LastModel = &lastModel.String
	}
	if lastRiskTier.Valid {
		tier := models.RiskTier(lastRiskTier.String)
		settings.LastRiskTier = &tier
	}
	if err := json.Unmarshal([]byte(lastLocations), &settings.LastLocations); err != nil {
		return nil, fmt.Errorf("failed to decode last locations: %w", err)
	}
	return &settings, nil
}

// SaveSettings upserts the user's settings.
func (s *SQLiteStore) SaveSettings(ctx context.Context, settings *models.UserSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	locations, err := jsonEncode(settings.LastLocations)
	if err != nil {
		return err
	}

	var tier interface{}
	if settings.LastRiskTier != nil {
		tier = string(*settings.LastRiskTier)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, daily_wrap_time, last_model, last_risk_tier, last_locations, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			daily_wrap_time = excluded.daily_wrap_time,
			last_model = excluded.last_model,
			last_risk_tier = excluded.last_risk_tier,
			last_locations = excluded.last_locations,
			updated_at = excluded.updated_at`,
		settings.UserID, settings.DailyWrapTime, settings.LastModel, tier,
		locations, settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// SaveDailyStats upserts one day's rollup.
func (s *SQLiteStore) SaveDailyStats(ctx context.Context, stats *models.DailyStats) error {
	stats.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_stats
		(user_id, date, total_trades, winning_trades, losing_trades, win_rate,
		 total_pnl, total_r, avg_r, best_trade_r, worst_trade_r, best_hour,
		 worst_hour, consecutive_losses, day_disabled, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			total_trades = excluded.total_trades,
			winning_trades = excluded.winning_trades,
			losing_trades = excluded.losing_trades,
			win_rate = excluded.win_rate,
			total_pnl = excluded.total_pnl,
			total_r = excluded.total_r,
			avg_r = excluded.avg_r,
			best_trade_r = excluded.best_trade_r,
			worst_trade_r = excluded.worst_trade_r,
			best_hour = excluded.best_hour,
			worst_hour = excluded.worst_hour,
			consecutive_losses = excluded.consecutive_losses,
			day_disabled = excluded.day_disabled,
			updated_at = excluded.updated_at`,
		stats.UserID, stats.Date, stats.TotalTrades, stats.WinningTrades,
		stats.LosingTrades, stats.WinRate, stats.TotalPnL, stats.TotalR,
		stats.AvgR, stats.BestTradeR, stats.WorstTradeR, stats.BestHour,
		stats.WorstHour, stats.ConsecutiveLosses, boolToInt(stats.DayDisabled),
		stats.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save daily stats: %w", err)
	}
	return nil
}

// GetDailyStats returns one day's rollup.
func (s *SQLiteStore) GetDailyStats(ctx context.Context, userID, date string) (*models.DailyStats, error) {
	var stats models.DailyStats
	var bestHour, worstHour sql.NullInt64
	var dayDisabled int

	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, date, total_trades, winning_trades, losing_trades, win_rate,
		        total_pnl, total_r, avg_r, best_trade_r, worst_trade_r, best_hour,
		        worst_hour, consecutive_losses, day_disabled, updated_at
		 FROM daily_stats WHERE user_id = ? AND date = ?`, userID, date,
	).Scan(&stats.UserID, &stats.Date, &stats.TotalTrades, &stats.WinningTrades,
		&stats.LosingTrades, &stats.WinRate, &stats.TotalPnL, &stats.TotalR,
		&stats.AvgR, &stats.BestTradeR, &stats.WorstTradeR, &bestHour,
		&worstHour, &stats.ConsecutiveLosses, &dayDisabled, &stats.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}

	if bestHour.Valid {
		h := int(bestHour.Int64)
		stats.BestHour = &h
	}
	if worstHour.Valid {
		h := int(worstHour.Int64)
		stats.WorstHour = &h
	}
	stats.DayDisabled = dayDisabled == 1
	return &stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(r rowScanner) (*models.Trade, error) {
	var t models.Trade
	var dayKey, direction, riskTier, status string
	var locations, aggression, scenarios, emotions, externals, mistakes, checklist string
	var exitPrice, pnl, rMultiple sql.NullFloat64
	var exitTime sql.NullTime
	var closeDayKey, session, screenshot, notes, hypothesisID, overrideReason, biasSnapshot sql.NullString
	var durationMinutes sql.NullInt64
	var isExperimental, checklistComplete int

	err := r.Scan(&t.ID, &t.UserID, &dayKey, &t.Asset, &direction, &t.Model,
		&locations, &aggression, &riskTier, &t.RiskAmount, &t.EntryPrice,
		&t.StopLoss, &exitPrice, &t.EntryTime, &exitTime, &closeDayKey, &session,
		&scenarios, &emotions, &externals, &mistakes, &screenshot, &notes,
		&isExperimental, &hypothesisID, &overrideReason, &biasSnapshot,
		&checklist, &checklistComplete, &pnl, &rMultiple, &durationMinutes,
		&status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.Direction = models.Direction(direction)
	t.RiskTier = models.RiskTier(riskTier)
	t.Status = models.TradeStatus(status)
	t.IsExperimental = isExperimental == 1
	t.ChecklistComplete = checklistComplete == 1

	if exitPrice.Valid {
		t.ExitPrice = &exitPrice.Float64
	}
	if exitTime.Valid {
		t.ExitTime = &exitTime.Time
	}
	if closeDayKey.Valid {
		t.CloseDayKey = &closeDayKey.String
	}
	if session.Valid {
		t.Session = &session.String
	}
	if screenshot.Valid {
		t.ScreenshotURL = &screenshot.String
	}
	if notes.Valid {
		t.Notes = &notes.String
	}
	if hypothesisID.Valid {
		t.HypothesisID = &hypothesisID.String
	}
	if overrideReason.Valid {
		t.OverrideReason = &overrideReason.String
	}
	if pnl.Valid {
		t.PnL = &pnl.Float64
	}
	if rMultiple.Valid {
		t.RMultiple = &rMultiple.Float64
	}
	if durationMinutes.Valid {
		d := int(durationMinutes.Int64)
		t.DurationMinutes = &d
	}

	for _, pair := range []struct {
		raw  string
		dest interface{}
	}{
		{locations, &t.Locations},
		{aggression, &t.Aggression},
		{scenarios, &t.Scenarios},
		{emotions, &t.Emotions},
		{externals, &t.Externals},
		{mistakes, &t.MistakeTags},
		{checklist, &t.Checklist},
	} {
		if err := json.Unmarshal([]byte(pair.raw), pair.dest); err != nil {
			return nil, fmt.Errorf("failed to decode trade field: %w", err)
		}
	}
	if biasSnapshot.Valid && biasSnapshot.String != "" {
		var snap models.BiasStateSnapshot
		if err := json.Unmarshal([]byte(biasSnapshot.String), &snap); err != nil {
			return nil, fmt.Errorf("failed to decode bias snapshot: %w", err)
		}
		t.BiasSnapshot = &snap
	}

	return &t, nil
}

func jsonEncode(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode field: %w", err)
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
