package biasstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"edgeday-journal/internal/backend"
	"edgeday-journal/internal/models"
)

// fakeBackend scripts per-tier failures and counts calls so tests can assert
// which tiers the cascade actually touched.
type fakeBackend struct {
	rpcErr   error
	viewErr  error
	tableErr error

	rpcCalls   int
	viewCalls  int
	tableCalls int

	active map[string]models.BiasStateSnapshot // keyed user|day
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{active: make(map[string]models.BiasStateSnapshot)}
}

func key(userID, dayKey string) string { return userID + "|" + dayKey }

func (f *fakeBackend) SetDailyBias(_ context.Context, snap models.BiasStateSnapshot) (models.BiasStateSnapshot, error) {
	f.rpcCalls++
	if f.rpcErr != nil {
		return models.BiasStateSnapshot{}, f.rpcErr
	}
	f.active[key(snap.UserID, snap.DayKey)] = snap
	return snap, nil
}

func (f *fakeBackend) CurrentBias(_ context.Context, userID, dayKey string) (*models.BiasStateSnapshot, error) {
	f.viewCalls++
	if f.viewErr != nil {
		return nil, f.viewErr
	}
	snap, ok := f.active[key(userID, dayKey)]
	if !ok {
		return nil, backend.ErrNoSnapshot
	}
	return &snap, nil
}

func (f *fakeBackend) DeactivateDay(_ context.Context, userID, dayKey string) error {
	f.tableCalls++
	if f.tableErr != nil {
		return f.tableErr
	}
	delete(f.active, key(userID, dayKey))
	return nil
}

func (f *fakeBackend) InsertSnapshot(_ context.Context, snap models.BiasStateSnapshot) (models.BiasStateSnapshot, error) {
	f.tableCalls++
	if f.tableErr != nil {
		return models.BiasStateSnapshot{}, f.tableErr
	}
	f.active[key(snap.UserID, snap.DayKey)] = snap
	return snap, nil
}

func (f *fakeBackend) ActiveSnapshot(_ context.Context, userID, dayKey string) (*models.BiasStateSnapshot, error) {
	f.tableCalls++
	if f.tableErr != nil {
		return nil, f.tableErr
	}
	snap, ok := f.active[key(userID, dayKey)]
	if !ok {
		return nil, backend.ErrNoSnapshot
	}
	return &snap, nil
}

func (f *fakeBackend) History(_ context.Context, userID string, _ int) ([]models.BiasStateSnapshot, error) {
	f.tableCalls++
	if f.tableErr != nil {
		return nil, f.tableErr
	}
	var out []models.BiasStateSnapshot
	for _, snap := range f.active {
		if snap.UserID == userID {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (f *fakeBackend) Close() error { return nil }

func testGate(t *testing.T, fb *fakeBackend) (*Gate, *[]string) {
	t.Helper()
	cache, err := backend.NewLocalCache(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	var advisories []string
	g := NewGate(fb, cache, AllCapabilities(), "u1",
		func(msg string) { advisories = append(advisories, msg) }, zerolog.Nop())
	g.SetNow(func() time.Time {
		return time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)
	})
	return g, &advisories
}

func oobLongResult() models.BiasResult {
	ms := models.StateOutOfBalance
	conf := models.ConfidenceHigh
	return models.BiasResult{
		Bias:        models.BiasOOBLong,
		MarketState: &ms,
		Confidence:  &conf,
		Tags:        []string{"CVD with move"},
	}
}

func TestGate_SetAndReadHappyPath(t *testing.T) {
	fb := newFakeBackend()
	g, advisories := testGate(t, fb)
	ctx := context.Background()

	stored, err := g.SetBias(ctx, oobLongResult(), nil)
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if stored.DayKey != "2026-08-28" {
		t.Errorf("day key = %s, want 2026-08-28", stored.DayKey)
	}

	got, err := g.Current(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got == nil || got.ID != stored.ID {
		t.Fatalf("current = %+v, want snapshot %s", got, stored.ID)
	}
	if fb.tableCalls != 0 {
		t.Errorf("table tier touched %d times on the happy path", fb.tableCalls)
	}
	if len(*advisories) != 0 {
		t.Errorf("unexpected advisories: %v", *advisories)
	}
}

func TestGate_MissingFunctionLatchesRPC(t *testing.T) {
	fb := newFakeBackend()
	fb.rpcErr = backend.ErrFunctionMissing
	g, advisories := testGate(t, fb)
	ctx := context.Background()

	if _, err := g.SetBias(ctx, oobLongResult(), nil); err != nil {
		t.Fatalf("set should fall back to the table tier: %v", err)
	}
	if fb.rpcCalls != 1 {
		t.Fatalf("rpc calls = %d, want 1", fb.rpcCalls)
	}
	if g.Capabilities().RPC {
		t.Error("RPC capability should be latched off")
	}

	// The second set must not touch the RPC tier at all.
	if _, err := g.SetBias(ctx, oobLongResult(), nil); err != nil {
		t.Fatalf("second set failed: %v", err)
	}
	if fb.rpcCalls != 1 {
		t.Errorf("rpc calls after latch = %d, want 1", fb.rpcCalls)
	}
	if len(*advisories) != 1 {
		t.Errorf("advisories = %v, want exactly one downgrade notice", *advisories)
	}
}

func TestGate_TransientRPCFailurePropagates(t *testing.T) {
	fb := newFakeBackend()
	fb.rpcErr = errors.New("database is locked")
	g, _ := testGate(t, fb)
	ctx := context.Background()

	if _, err := g.SetBias(ctx, oobLongResult(), nil); err == nil {
		t.Fatal("transient failure must propagate, not cascade")
	}
	if g.Capabilities().RPC != true {
		t.Error("transient failure must not latch the RPC tier")
	}
	if fb.tableCalls != 0 {
		t.Errorf("table tier touched %d times on a transient RPC failure", fb.tableCalls)
	}

	// Once the failure clears, the RPC tier is used again.
	fb.rpcErr = nil
	if _, err := g.SetBias(ctx, oobLongResult(), nil); err != nil {
		t.Fatalf("set after recovery failed: %v", err)
	}
	if fb.rpcCalls != 2 {
		t.Errorf("rpc calls = %d, want 2", fb.rpcCalls)
	}
}

func TestGate_TransientReadFailurePropagates(t *testing.T) {
	fb := newFakeBackend()
	fb.viewErr = errors.New("connection refused")
	fb.tableErr = errors.New("connection refused")
	g, _ := testGate(t, fb)
	ctx := context.Background()

	// A backend outage must never look like "no bias set today".
	snap, err := g.Current(ctx)
	if err == nil {
		t.Fatalf("Current returned snap=%v err=nil, want a propagated error", snap)
	}
	if fb.tableCalls != 0 {
		t.Errorf("table tier touched %d times on a transient view failure", fb.tableCalls)
	}
	caps := g.Capabilities()
	if !caps.View || !caps.Table {
		t.Errorf("transient failures must not latch: %+v", caps)
	}
}

func TestGate_TransientTableReadDoesNotServeCache(t *testing.T) {
	fb := newFakeBackend()
	fb.viewErr = errors.New("no such table: v_current_bias")
	fb.tableErr = errors.New("connection reset")
	g, advisories := testGate(t, fb)
	ctx := context.Background()

	// Seed the cache with a stale snapshot; the transient table failure
	// must not surface it.
	stale := models.BiasStateSnapshot{ID: "stale", UserID: "u1", DayKey: "2026-08-28"}
	if err := g.cache.Save(stale); err != nil {
		t.Fatal(err)
	}

	if _, err := g.Current(ctx); err == nil {
		t.Fatal("transient table failure must propagate, not fall to the cache")
	}
	for _, msg := range *advisories {
		if msg == "Showing locally cached bias; the server is unavailable." {
			t.Error("cache advisory raised on a transient failure")
		}
	}
	if g.Capabilities().Table != true {
		t.Error("transient failure must not latch the table tier")
	}
}

func TestGate_TransientWriteDoesNotLandInCache(t *testing.T) {
	fb := newFakeBackend()
	fb.rpcErr = backend.ErrFunctionMissing
	fb.tableErr = errors.New("connection refused")
	g, _ := testGate(t, fb)
	ctx := context.Background()

	if _, err := g.SetBias(ctx, oobLongResult(), nil); err == nil {
		t.Fatal("transient table failure must propagate, not save locally")
	}
	if _, err := g.cache.Load("u1", "2026-08-28"); !errors.Is(err, backend.ErrNoSnapshot) {
		t.Errorf("snapshot must not land in the cache on a transient failure, got %v", err)
	}
}

func TestGate_MissingViewFallsToTable(t *testing.T) {
	fb := newFakeBackend()
	fb.viewErr = errors.New("no such table: v_current_bias")
	g, _ := testGate(t, fb)
	ctx := context.Background()

	stored, err := g.SetBias(ctx, oobLongResult(), nil)
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := g.Current(ctx)
	if err != nil {
		t.Fatalf("read should fall back to the table: %v", err)
	}
	if got == nil || got.ID != stored.ID {
		t.Fatalf("current = %+v, want %s", got, stored.ID)
	}
	if g.Capabilities().View {
		t.Error("view capability should be latched off")
	}

	viewCalls := fb.viewCalls
	if _, err := g.Current(ctx); err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if fb.viewCalls != viewCalls {
		t.Error("view tier called again after latch")
	}
}

func TestGate_AllServerTiersDownServesCache(t *testing.T) {
	fb := newFakeBackend()
	fb.rpcErr = backend.ErrFunctionMissing
	fb.viewErr = errors.New("no such table: v_current_bias")
	fb.tableErr = errors.New("no such table: bias_state")
	g, advisories := testGate(t, fb)
	ctx := context.Background()

	stored, err := g.SetBias(ctx, oobLongResult(), nil)
	if err != nil {
		t.Fatalf("set should land in the local cache: %v", err)
	}

	got, err := g.Current(ctx)
	if err != nil {
		t.Fatalf("read should come from the cache: %v", err)
	}
	if got == nil || got.ID != stored.ID {
		t.Fatalf("current = %+v, want cached %s", got, stored.ID)
	}

	caps := g.Capabilities()
	if caps.RPC || caps.Table {
		t.Errorf("write tiers should be latched off: %+v", caps)
	}
	if len(*advisories) == 0 {
		t.Error("degraded operation should raise advisories")
	}
}

func TestGate_ServerWriteClearsCache(t *testing.T) {
	fb := newFakeBackend()
	g, _ := testGate(t, fb)
	ctx := context.Background()

	// Seed a stale cache entry, then confirm a server write removes it.
	cache, err := backend.NewLocalCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	g.cache = cache
	stale := models.BiasStateSnapshot{ID: "stale", UserID: "u1", DayKey: "2026-08-28"}
	if err := cache.Save(stale); err != nil {
		t.Fatal(err)
	}

	if _, err := g.SetBias(ctx, oobLongResult(), nil); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, err := cache.Load("u1", "2026-08-28"); !errors.Is(err, backend.ErrNoSnapshot) {
		t.Errorf("cache entry should be cleared after a server write, got %v", err)
	}
}

func TestGate_OnChangeFiresOnEverySuccessfulWrite(t *testing.T) {
	fb := newFakeBackend()
	g, _ := testGate(t, fb)
	ctx := context.Background()

	changes := 0
	g.SetOnChange(func() { changes++ })

	if _, err := g.SetBias(ctx, oobLongResult(), nil); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if changes != 1 {
		t.Errorf("changes after server write = %d, want 1", changes)
	}

	// A failed write must not announce a change.
	fb.rpcErr = errors.New("connection refused")
	if _, err := g.SetBias(ctx, oobLongResult(), nil); err == nil {
		t.Fatal("expected the transient failure to propagate")
	}
	if changes != 1 {
		t.Errorf("changes after failed write = %d, want 1", changes)
	}

	// The cache-only path is still a change for listeners.
	fb.rpcErr = backend.ErrFunctionMissing
	fb.tableErr = errors.New("no such table: bias_state")
	if _, err := g.SetBias(ctx, oobLongResult(), nil); err != nil {
		t.Fatalf("cache-only set failed: %v", err)
	}
	if changes != 2 {
		t.Errorf("changes after cache write = %d, want 2", changes)
	}
}

func TestGate_NoSnapshotMeansNoBias(t *testing.T) {
	fb := newFakeBackend()
	g, _ := testGate(t, fb)

	got, err := g.Current(context.Background())
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected no snapshot, got %+v", got)
	}
}

func TestGate_InsertFailureAfterDeactivatePropagates(t *testing.T) {
	fb := newFakeBackend()
	fb.rpcErr = backend.ErrFunctionMissing
	g, _ := testGate(t, fb)
	ctx := context.Background()

	// First write succeeds through the table tier.
	if _, err := g.SetBias(ctx, oobLongResult(), nil); err != nil {
		t.Fatalf("first set failed: %v", err)
	}

	// Now fail the insert half. The fake deactivates (removing the active
	// row) before the insert errors, mirroring the non-atomic write path.
	fb.tableErr = errors.New("disk I/O error")
	deactivated := &countingBackend{fakeBackend: fb}
	g.backend = deactivated

	if _, err := g.SetBias(ctx, oobLongResult(), nil); err == nil {
		t.Fatal("expected the insert failure to propagate")
	}

	// The day is left without an active snapshot: fail-safe to no bias.
	fb.tableErr = nil
	got, err := g.Current(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected no active snapshot after the failed replace, got %+v", got)
	}
}

// countingBackend lets DeactivateDay succeed while InsertSnapshot fails.
type countingBackend struct {
	*fakeBackend
}

func (c *countingBackend) DeactivateDay(ctx context.Context, userID, dayKey string) error {
	delete(c.active, key(userID, dayKey))
	return nil
}
