// Package biasstate maintains the day's active bias snapshot: selecting it,
// reading it back through a degrading cascade of backend tiers, and gating
// execution-model selection on it.
package biasstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"edgeday-journal/internal/backend"
	"edgeday-journal/internal/models"
)

// Capabilities latches which backend tiers are still worth calling. A tier
// that reports a missing function or relation stays down for the rest of the
// session; transient failures propagate to the caller and never latch.
type Capabilities struct {
	RPC   bool
	View  bool
	Table bool
}

// AllCapabilities assumes every tier is up until proven otherwise.
func AllCapabilities() *Capabilities {
	return &Capabilities{RPC: true, View: true, Table: true}
}

// Advisory is invoked once per capability downgrade and whenever the gate
// serves degraded data, with a user-facing message.
type Advisory func(msg string)

// Gate owns the current-day bias snapshot for one user. Writes prefer the
// atomic server function, then direct table statements, then the local
// cache; reads prefer the view, then the table, then the cache.
type Gate struct {
	backend  backend.Backend
	cache    *backend.LocalCache
	caps     *Capabilities
	userID   string
	advise   Advisory
	log      zerolog.Logger
	now      func() time.Time
	onChange func()
}

// NewGate wires a gate over one backend and local cache. advise may be nil.
func NewGate(b backend.Backend, cache *backend.LocalCache, caps *Capabilities, userID string, advise Advisory, log zerolog.Logger) *Gate {
	if caps == nil {
		caps = AllCapabilities()
	}
	if advise == nil {
		advise = func(string) {}
	}
	return &Gate{
		backend: b,
		cache:   cache,
		caps:    caps,
		userID:  userID,
		advise:  advise,
		log:     log,
		now:     time.Now,
	}
}

// SetNow overrides the gate's clock. Test hook.
func (g *Gate) SetNow(now func() time.Time) { g.now = now }

// SetOnChange registers a callback invoked after every successful SetBias,
// regardless of which tier took the write. Listeners re-fetch; the callback
// carries no payload.
func (g *Gate) SetOnChange(fn func()) { g.onChange = fn }

func (g *Gate) changed() {
	if g.onChange != nil {
		g.onChange()
	}
}

// Capabilities returns the live capability state.
func (g *Gate) Capabilities() Capabilities { return *g.caps }

// SetBias persists result as today's single active snapshot and returns the
// stored row. The write cascades: server function, direct table statements,
// then the local cache once every server tier is confirmed missing.
func (g *Gate) SetBias(ctx context.Context, result models.BiasResult, session *string) (models.BiasStateSnapshot, error) {
	now := g.now()
	snap := models.BiasStateSnapshot{
		ID:          uuid.NewString(),
		UserID:      g.userID,
		DayKey:      models.DayKeyFor(now),
		Bias:        result.Bias,
		MarketState: result.MarketState,
		Confidence:  result.Confidence,
		Tags:        result.Tags,
		Session:     session,
		SelectedAt:  now.UTC(),
		SelectedBy:  g.userID,
		Active:      true,
	}

	if g.caps.RPC {
		stored, err := g.backend.SetDailyBias(ctx, snap)
		if err == nil {
			g.confirmServerWrite(stored)
			g.changed()
			return stored, nil
		}
		// Only a confirmed-missing function advances the cascade. Transient
		// failures propagate: the caller must not assume any mutation.
		if backend.Classify(err) != backend.KindMissingFunction {
			return models.BiasStateSnapshot{}, fmt.Errorf("set daily bias: %w", err)
		}
		g.downgrade("RPC", &g.caps.RPC, err)
	}

	if g.caps.Table {
		stored, err := g.setViaTable(ctx, snap)
		if err == nil {
			g.confirmServerWrite(stored)
			g.changed()
			return stored, nil
		}
		if kind := backend.Classify(err); kind == backend.KindMissingRelation {
			g.downgrade("table", &g.caps.Table, err)
		} else {
			return models.BiasStateSnapshot{}, err
		}
	}

	// Every server tier is gone: keep the selection locally so the session
	// still has an execution context.
	if err := g.cache.Save(snap); err != nil {
		return models.BiasStateSnapshot{}, fmt.Errorf("cache bias snapshot: %w", err)
	}
	g.advise("Bias saved locally only; the server is unavailable.")
	g.log.Warn().Str("day", snap.DayKey).Msg("bias snapshot stored in local cache only")
	g.changed()
	return snap, nil
}

// setViaTable replays the server function as two statements. If the insert
// fails after the deactivate succeeded the day is left with no active
// snapshot; the error propagates and the session falls back to no-bias
// rather than resurrecting the retired snapshot.
func (g *Gate) setViaTable(ctx context.Context, snap models.BiasStateSnapshot) (models.BiasStateSnapshot, error) {
	if err := g.backend.DeactivateDay(ctx, snap.UserID, snap.DayKey); err != nil {
		return models.BiasStateSnapshot{}, fmt.Errorf("deactivate previous bias: %w", err)
	}
	stored, err := g.backend.InsertSnapshot(ctx, snap)
	if err != nil {
		return models.BiasStateSnapshot{}, fmt.Errorf("insert bias snapshot: %w", err)
	}
	return stored, nil
}

// Current returns today's active snapshot, or nil when the day has none.
// Reads cascade view, table, local cache; the cache is reached only when
// both server tiers are confirmed missing, and that path reports stale data
// through the advisory.
func (g *Gate) Current(ctx context.Context) (*models.BiasStateSnapshot, error) {
	dayKey := models.DayKeyFor(g.now())

	if g.caps.View {
		snap, err := g.backend.CurrentBias(ctx, g.userID, dayKey)
		if err == nil {
			return snap, nil
		}
		if errors.Is(err, backend.ErrNoSnapshot) {
			return nil, nil
		}
		if backend.Classify(err) != backend.KindMissingRelation {
			return nil, fmt.Errorf("read current bias: %w", err)
		}
		g.downgrade("view", &g.caps.View, err)
	}

	if g.caps.Table {
		snap, err := g.backend.ActiveSnapshot(ctx, g.userID, dayKey)
		if err == nil {
			return snap, nil
		}
		if errors.Is(err, backend.ErrNoSnapshot) {
			return nil, nil
		}
		if backend.Classify(err) != backend.KindMissingRelation {
			return nil, fmt.Errorf("read active bias: %w", err)
		}
		g.downgrade("table", &g.caps.Table, err)
	}

	snap, err := g.cache.Load(g.userID, dayKey)
	if errors.Is(err, backend.ErrNoSnapshot) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached bias: %w", err)
	}
	g.advise("Showing locally cached bias; the server is unavailable.")
	return snap, nil
}

// History returns recent snapshots, newest first. History has no cache
// tier: when the table is gone there is nothing meaningful to show.
func (g *Gate) History(ctx context.Context, limit int) ([]models.BiasStateSnapshot, error) {
	if !g.caps.Table {
		return nil, backend.ErrRelationMissing
	}
	snaps, err := g.backend.History(ctx, g.userID, limit)
	if err != nil {
		if backend.Classify(err) == backend.KindMissingRelation {
			g.downgrade("table", &g.caps.Table, err)
		}
		return nil, fmt.Errorf("read bias history: %w", err)
	}
	return snaps, nil
}

// confirmServerWrite clears the local cache entry once the server holds the
// authoritative snapshot for the day.
func (g *Gate) confirmServerWrite(snap models.BiasStateSnapshot) {
	if err := g.cache.Clear(snap.UserID, snap.DayKey); err != nil {
		g.log.Warn().Err(err).Msg("failed to clear cached bias snapshot")
	}
}

// downgrade latches a tier off for the rest of the session.
func (g *Gate) downgrade(tier string, flag *bool, err error) {
	if !*flag {
		return
	}
	*flag = false
	g.log.Warn().Err(err).Str("tier", tier).Msg("backend tier unavailable, latched off for this session")
	g.advise(fmt.Sprintf("Backend %s tier unavailable; running degraded for this session.", tier))
}
