package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"edgeday-journal/internal/models"
)

// SQLiteBackend implements every tier against a local SQLite file. The
// schema mirrors the hosted layout: a bias_state table, a v_current_bias
// view, and a set function realized as a single transaction.
//
// Provisioning is configurable so a database can genuinely lack a tier:
// a backend opened without the view raises "no such table: v_current_bias"
// exactly like a half-migrated server would.
type SQLiteBackend struct {
	db         *sql.DB
	rpcEnabled bool
}

// Provisioning selects which tiers the opened database carries.
type Provisioning struct {
	RPC   bool
	View  bool
	Table bool
}

// FullProvisioning enables every tier.
func FullProvisioning() Provisioning {
	return Provisioning{RPC: true, View: true, Table: true}
}

const biasStateSchema = `
CREATE TABLE IF NOT EXISTS bias_state (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	day_key TEXT NOT NULL,
	bias TEXT NOT NULL,
	market_state TEXT,
	confidence TEXT,
	tags TEXT NOT NULL DEFAULT '[]',
	session TEXT,
	selected_at DATETIME NOT NULL,
	selected_by TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_bias_state_day ON bias_state(user_id, day_key, active);
`

const currentBiasView = `
CREATE VIEW IF NOT EXISTS v_current_bias AS
SELECT id, user_id, day_key, bias, market_state, confidence, tags, session,
       selected_at, selected_by, active
FROM bias_state
WHERE active = 1;
`

// NewSQLiteBackend opens (or creates) the database at path with the given
// provisioning. Tiers left out of the provisioning are simply not created.
func NewSQLiteBackend(path string, prov Provisioning) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	b := &SQLiteBackend{db: db, rpcEnabled: prov.RPC}

	if prov.Table {
		if _, err := db.Exec(biasStateSchema); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	if prov.View {
		if _, err := db.Exec(currentBiasView); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create view: %w", err)
		}
	}

	return b, nil
}

// Close releases the underlying database handle.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// SetDailyBias implements the RPC tier: retire-and-insert in one transaction.
func (b *SQLiteBackend) SetDailyBias(ctx context.Context, snap models.BiasStateSnapshot) (models.BiasStateSnapshot, error) {
	if !b.rpcEnabled {
		return models.BiasStateSnapshot{}, ErrFunctionMissing
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return models.BiasStateSnapshot{}, fmt.Errorf("begin set_daily_bias: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE bias_state SET active = 0 WHERE user_id = ? AND day_key = ? AND active = 1`,
		snap.UserID, snap.DayKey,
	); err != nil {
		return models.BiasStateSnapshot{}, fmt.Errorf("deactivate previous snapshot: %w", err)
	}

	stored, err := insertSnapshotTx(ctx, tx, snap)
	if err != nil {
		return models.BiasStateSnapshot{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.BiasStateSnapshot{}, fmt.Errorf("commit set_daily_bias: %w", err)
	}
	return stored, nil
}

// CurrentBias implements the View tier. When the view was never provisioned
// the query still runs, so the caller sees the genuine "no such table" error.
func (b *SQLiteBackend) CurrentBias(ctx context.Context, userID, dayKey string) (*models.BiasStateSnapshot, error) {
	return b.queryOne(ctx,
		`SELECT id, user_id, day_key, bias, market_state, confidence, tags, session,
		        selected_at, selected_by, active
		 FROM v_current_bias WHERE user_id = ? AND day_key = ?`,
		userID, dayKey)
}

// DeactivateDay implements the first half of the Table tier write path.
func (b *SQLiteBackend) DeactivateDay(ctx context.Context, userID, dayKey string) error {
	_, err := b.db.ExecContext(ctx,
		`UPDATE bias_state SET active = 0 WHERE user_id = ? AND day_key = ? AND active = 1`,
		userID, dayKey,
	)
	if err != nil {
		return fmt.Errorf("deactivate day %s: %w", dayKey, err)
	}
	return nil
}

// InsertSnapshot implements the second half of the Table tier write path.
func (b *SQLiteBackend) InsertSnapshot(ctx context.Context, snap models.BiasStateSnapshot) (models.BiasStateSnapshot, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return models.BiasStateSnapshot{}, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stored, err := insertSnapshotTx(ctx, tx, snap)
	if err != nil {
		return models.BiasStateSnapshot{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.BiasStateSnapshot{}, fmt.Errorf("commit insert: %w", err)
	}
	return stored, nil
}

// ActiveSnapshot implements the Table tier read path.
func (b *SQLiteBackend) ActiveSnapshot(ctx context.Context, userID, dayKey string) (*models.BiasStateSnapshot, error) {
	return b.queryOne(ctx,
		`SELECT id, user_id, day_key, bias, market_state, confidence, tags, session,
		        selected_at, selected_by, active
		 FROM bias_state WHERE user_id = ? AND day_key = ? AND active = 1
		 ORDER BY selected_at DESC LIMIT 1`,
		userID, dayKey)
}

// History returns the user's snapshots newest first, active or not.
func (b *SQLiteBackend) History(ctx context.Context, userID string, limit int) ([]models.BiasStateSnapshot, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, user_id, day_key, bias, market_state, confidence, tags, session,
		        selected_at, selected_by, active
		 FROM bias_state WHERE user_id = ?
		 ORDER BY selected_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []models.BiasStateSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func insertSnapshotTx(ctx context.Context, tx *sql.Tx, snap models.BiasStateSnapshot) (models.BiasStateSnapshot, error) {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.SelectedAt.IsZero() {
		snap.SelectedAt = time.Now().UTC()
	}
	snap.Active = true

	tags, err := json.Marshal(snap.Tags)
	if err != nil {
		return models.BiasStateSnapshot{}, fmt.Errorf("encode tags: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bias_state
		 (id, user_id, day_key, bias, market_state, confidence, tags, session, selected_at, selected_by, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		snap.ID, snap.UserID, snap.DayKey, string(snap.Bias),
		marketStateValue(snap.MarketState), confidenceValue(snap.Confidence),
		string(tags), snap.Session, snap.SelectedAt, snap.SelectedBy,
	)
	if err != nil {
		return models.BiasStateSnapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	return snap, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(r rowScanner) (models.BiasStateSnapshot, error) {
	var snap models.BiasStateSnapshot
	var bias string
	var marketState, confidence, session sql.NullString
	var tags string
	var active int

	err := r.Scan(&snap.ID, &snap.UserID, &snap.DayKey, &bias, &marketState,
		&confidence, &tags, &session, &snap.SelectedAt, &snap.SelectedBy, &active)
	if err != nil {
		return models.BiasStateSnapshot{}, err
	}

	snap.Bias = models.Bias(bias)
	snap.Active = active == 1
	if marketState.Valid && marketState.String != "" {
		ms := models.MarketState(marketState.String)
		snap.MarketState = &ms
	}
	if confidence.Valid && confidence.String != "" {
		c := models.Confidence(confidence.String)
		snap.Confidence = &c
	}
	if session.Valid && session.String != "" {
		s := session.String
		snap.Session = &s
	}
	if err := json.Unmarshal([]byte(tags), &snap.Tags); err != nil {
		return models.BiasStateSnapshot{}, fmt.Errorf("decode tags: %w", err)
	}
	return snap, nil
}

func (b *SQLiteBackend) queryOne(ctx context.Context, query string, args ...interface{}) (*models.BiasStateSnapshot, error) {
	row := b.db.QueryRowContext(ctx, query, args...)
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func marketStateValue(s *models.MarketState) interface{} {
	if s == nil {
		return nil
	}
	return string(*s)
}

func confidenceValue(c *models.Confidence) interface{} {
	if c == nil {
		return nil
	}
	return string(*c)
}
