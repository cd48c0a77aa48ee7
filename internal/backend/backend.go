// Package backend defines the persistence tiers behind the daily bias state
// and the error classification the fallback cascade relies on. Each tier is
// its own interface so the gate can probe and abandon them independently.
package backend

import (
	"context"

	"edgeday-journal/internal/models"
)

// RPC is the preferred tier: one server-side call that atomically retires
// the day's previous snapshot and activates the new one.
type RPC interface {
	// SetDailyBias deactivates every snapshot for the snapshot's (user, day)
	// and inserts snap as the single active row, returning the stored row.
	SetDailyBias(ctx context.Context, snap models.BiasStateSnapshot) (models.BiasStateSnapshot, error)
}

// View is the read-optimized tier over the active snapshot per day.
type View interface {
	// CurrentBias returns the day's active snapshot, or ErrNoSnapshot.
	CurrentBias(ctx context.Context, userID, dayKey string) (*models.BiasStateSnapshot, error)
}

// Table is the raw tier: explicit statements against the snapshot table.
// The gate composes DeactivateDay and InsertSnapshot when the RPC tier is
// unavailable, accepting the loss of atomicity between the two.
type Table interface {
	DeactivateDay(ctx context.Context, userID, dayKey string) error
	InsertSnapshot(ctx context.Context, snap models.BiasStateSnapshot) (models.BiasStateSnapshot, error)
	// ActiveSnapshot returns the day's active snapshot, or ErrNoSnapshot.
	ActiveSnapshot(ctx context.Context, userID, dayKey string) (*models.BiasStateSnapshot, error)
	// History returns recent snapshots for the user, newest first.
	History(ctx context.Context, userID string, limit int) ([]models.BiasStateSnapshot, error)
}

// Backend bundles all three tiers of one storage endpoint.
type Backend interface {
	RPC
	View
	Table
	Close() error
}
