package journal

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	domainerrors "edgeday-journal/internal/errors"
	"edgeday-journal/internal/execution"
	"edgeday-journal/internal/models"
	"edgeday-journal/internal/store"
)

// fixedBias serves a canned snapshot as the day's execution context.
type fixedBias struct {
	snap *models.BiasStateSnapshot
	err  error
}

func (f *fixedBias) Current(context.Context) (*models.BiasStateSnapshot, error) {
	return f.snap, f.err
}

func oobSnapshot() *models.BiasStateSnapshot {
	ms := models.StateOutOfBalance
	return &models.BiasStateSnapshot{
		ID:          "snap-1",
		UserID:      "u1",
		DayKey:      "2026-08-28",
		Bias:        models.BiasOOBLong,
		MarketState: &ms,
		Active:      true,
	}
}

func testService(t *testing.T, bias ContextProvider) (*Service, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "journal_test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	svc := NewService(st, bias, nil, "u1", zerolog.Nop())
	svc.SetNow(func() time.Time {
		return time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)
	})
	return svc, st
}

func completeChecklist(m execution.Model) []models.ChecklistItem {
	items := execution.Checklist(m)
	out := make([]models.ChecklistItem, len(items))
	for i, text := range items {
		out[i] = models.ChecklistItem{Text: text, Checked: true}
	}
	return out
}

func validInput() AddTradeInput {
	return AddTradeInput{
		Asset:      "EURUSD",
		Direction:  models.DirectionLong,
		Model:      execution.TrendImpulsePB,
		Checklist:  completeChecklist(execution.TrendImpulsePB),
		Locations:  []string{"POC"},
		Aggression: []string{"Delta Push"},
		RiskTier:   models.RiskTierA,
		EntryPrice: 1.1000,
		StopLoss:   1.0950,
	}
}

func TestAddTrade_HappyPath(t *testing.T) {
	svc, _ := testService(t, &fixedBias{snap: oobSnapshot()})

	trade, err := svc.AddTrade(context.Background(), validInput())
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if trade.Status != models.TradeOpen {
		t.Errorf("status = %s, want open", trade.Status)
	}
	if trade.RiskAmount != 100 {
		t.Errorf("risk amount = %v, want 100 for tier a", trade.RiskAmount)
	}
	if trade.BiasSnapshot == nil || trade.BiasSnapshot.ID != "snap-1" {
		t.Error("trade did not capture the bias snapshot")
	}
	if !trade.ChecklistComplete {
		t.Error("checklist complete flag not set")
	}
	if trade.Emotions != DefaultEmotions() {
		t.Errorf("emotions = %+v, want defaults", trade.Emotions)
	}
	if trade.Session == nil {
		t.Error("session not derived from entry time")
	}
}

func TestAddTrade_ValidationFailures(t *testing.T) {
	svc, _ := testService(t, &fixedBias{snap: oobSnapshot()})
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*AddTradeInput)
	}{
		{"missing asset", func(in *AddTradeInput) { in.Asset = " " }},
		{"bad direction", func(in *AddTradeInput) { in.Direction = "sideways" }},
		{"zero entry", func(in *AddTradeInput) { in.EntryPrice = 0 }},
		{"zero stop", func(in *AddTradeInput) { in.StopLoss = 0 }},
		{"no locations", func(in *AddTradeInput) { in.Locations = nil }},
		{"no aggression", func(in *AddTradeInput) { in.Aggression = nil }},
		{"bad tier", func(in *AddTradeInput) { in.RiskTier = "x" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.AddTrade(ctx, in)
			var verr *domainerrors.ValidationError
			if !domainerrors.As(err, &verr) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestAddTrade_RequiresBiasContext(t *testing.T) {
	svc, _ := testService(t, &fixedBias{snap: nil})
	_, err := svc.AddTrade(context.Background(), validInput())
	if !domainerrors.Is(err, domainerrors.ErrNoBiasContext) {
		t.Errorf("expected ErrNoBiasContext, got %v", err)
	}

	// A NONE snapshot is not a context either.
	none := &models.BiasStateSnapshot{ID: "s0", Bias: models.BiasNone, Active: true}
	svc, _ = testService(t, &fixedBias{snap: none})
	_, err = svc.AddTrade(context.Background(), validInput())
	if !domainerrors.Is(err, domainerrors.ErrNoBiasContext) {
		t.Errorf("expected ErrNoBiasContext for NONE snapshot, got %v", err)
	}
}

func TestAddTrade_EnforcesModelGating(t *testing.T) {
	svc, _ := testService(t, &fixedBias{snap: oobSnapshot()})

	in := validInput()
	in.Model = execution.MRVAFade
	in.Checklist = completeChecklist(execution.MRVAFade)
	_, err := svc.AddTrade(context.Background(), in)
	if !domainerrors.Is(err, domainerrors.ErrModelNotAllowed) {
		t.Errorf("expected ErrModelNotAllowed, got %v", err)
	}
}

func TestAddTrade_RequiresCompleteChecklist(t *testing.T) {
	svc, _ := testService(t, &fixedBias{snap: oobSnapshot()})

	in := validInput()
	in.Checklist[1].Checked = false
	_, err := svc.AddTrade(context.Background(), in)
	if !domainerrors.Is(err, domainerrors.ErrChecklistOpen) {
		t.Errorf("expected ErrChecklistOpen, got %v", err)
	}

	in = validInput()
	in.Checklist = nil
	_, err = svc.AddTrade(context.Background(), in)
	if !domainerrors.Is(err, domainerrors.ErrChecklistOpen) {
		t.Errorf("expected ErrChecklistOpen for empty checklist, got %v", err)
	}
}

func TestAddTrade_DailyLossLimit(t *testing.T) {
	svc, _ := testService(t, &fixedBias{snap: oobSnapshot()})
	ctx := context.Background()

	// Close three losers today.
	for i := 0; i < 3; i++ {
		in := validInput()
		in.EntryTime = time.Date(2026, 8, 28, 9+i, 0, 0, 0, time.UTC)
		trade, err := svc.AddTrade(ctx, in)
		if err != nil {
			t.Fatalf("add %d failed: %v", i, err)
		}
		exit := in.EntryTime.Add(20 * time.Minute)
		if _, err := svc.CloseTrade(ctx, CloseTradeInput{
			TradeID:   trade.ID,
			ExitPrice: 1.0950,
			ExitTime:  &exit,
		}); err != nil {
			t.Fatalf("close %d failed: %v", i, err)
		}
	}

	ok, err := svc.CanAddTrade(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("stop rule should block after three losses")
	}

	_, err = svc.AddTrade(ctx, validInput())
	if !domainerrors.Is(err, domainerrors.ErrDailyLossLimit) {
		t.Fatalf("expected ErrDailyLossLimit, got %v", err)
	}

	// An override reason re-opens the gate for this entry only.
	in := validInput()
	reason := "A+ setup, planned re-entry"
	in.OverrideReason = &reason
	if _, err := svc.AddTrade(ctx, in); err != nil {
		t.Errorf("override should be accepted: %v", err)
	}
}

func TestCloseTrade_WorkedExamples(t *testing.T) {
	tests := []struct {
		name      string
		direction models.Direction
		entry     float64
		stop      float64
		exit      float64
		risk      float64
		wantPnL   float64
		wantR     float64
	}{
		{
			// Long, one full stop distance in profit.
			name:      "long win at one R",
			direction: models.DirectionLong,
			entry:     1.1000, stop: 1.0950, exit: 1.1050, risk: 100,
			wantPnL: 0.45, wantR: 1.0,
		},
		{
			name:      "short win at one R",
			direction: models.DirectionShort,
			entry:     1.1000, stop: 1.1050, exit: 1.0950, risk: 100,
			wantPnL: 0.45, wantR: 1.0,
		},
		{
			name:      "long stopped out",
			direction: models.DirectionLong,
			entry:     1.1000, stop: 1.0950, exit: 1.0950, risk: 100,
			wantPnL: -0.45, wantR: -1.0,
		},
		{
			name:      "zero stop distance yields zero R",
			direction: models.DirectionLong,
			entry:     1.1000, stop: 1.1000, exit: 1.1050, risk: 100,
			wantPnL: 0.45, wantR: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pnl, r := CloseMath(tt.direction, tt.entry, tt.stop, tt.exit, tt.risk)
			if math.Abs(pnl-tt.wantPnL) > 1e-9 {
				t.Errorf("pnl = %v, want %v", pnl, tt.wantPnL)
			}
			if math.Abs(r-tt.wantR) > 1e-9 {
				t.Errorf("r = %v, want %v", r, tt.wantR)
			}
		})
	}
}

func TestCloseTrade_Lifecycle(t *testing.T) {
	svc, _ := testService(t, &fixedBias{snap: oobSnapshot()})
	ctx := context.Background()

	in := validInput()
	in.EntryTime = time.Date(2026, 8, 28, 13, 0, 0, 0, time.UTC)
	trade, err := svc.AddTrade(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	exit := in.EntryTime.Add(45 * time.Minute)
	notes := "clean continuation"
	closed, err := svc.CloseTrade(ctx, CloseTradeInput{
		TradeID:     trade.ID,
		ExitPrice:   1.1050,
		ExitTime:    &exit,
		MistakeTags: []string{"Chased"},
		Notes:       &notes,
	})
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if closed.Status != models.TradeClosed {
		t.Errorf("status = %s, want closed", closed.Status)
	}
	if closed.PnL == nil || math.Abs(*closed.PnL-0.45) > 1e-9 {
		t.Errorf("pnl = %v, want 0.45", closed.PnL)
	}
	if closed.RMultiple == nil || math.Abs(*closed.RMultiple-1.0) > 1e-9 {
		t.Errorf("r = %v, want 1.0", closed.RMultiple)
	}
	if closed.DurationMinutes == nil || *closed.DurationMinutes != 45 {
		t.Errorf("duration = %v, want 45", closed.DurationMinutes)
	}

	// Closing twice is rejected.
	_, err = svc.CloseTrade(ctx, CloseTradeInput{TradeID: trade.ID, ExitPrice: 1.1100})
	if !domainerrors.Is(err, domainerrors.ErrTradeClosed) {
		t.Errorf("expected ErrTradeClosed, got %v", err)
	}

	_, err = svc.CloseTrade(ctx, CloseTradeInput{TradeID: "missing", ExitPrice: 1.0})
	if !domainerrors.Is(err, domainerrors.ErrTradeNotFound) {
		t.Errorf("expected ErrTradeNotFound, got %v", err)
	}
}

func TestCloseTrade_CountsLossOnLocalDayAcrossUTCMidnight(t *testing.T) {
	svc, _ := testService(t, &fixedBias{snap: oobSnapshot()})
	ctx := context.Background()

	// Evening in New York is already the next calendar day in UTC. Losses
	// closed then must still count against the trader's day.
	newYork := time.FixedZone("EDT", -4*3600)
	svc.SetNow(func() time.Time {
		return time.Date(2026, 8, 28, 20, 30, 0, 0, newYork)
	})

	for i := 0; i < 3; i++ {
		in := validInput()
		in.EntryTime = time.Date(2026, 8, 28, 19, i*10, 0, 0, newYork)
		trade, err := svc.AddTrade(ctx, in)
		if err != nil {
			t.Fatalf("add %d failed: %v", i, err)
		}
		exit := time.Date(2026, 8, 28, 20, i*10, 0, 0, newYork) // 00:xx next day in UTC
		closed, err := svc.CloseTrade(ctx, CloseTradeInput{
			TradeID:   trade.ID,
			ExitPrice: 1.0950,
			ExitTime:  &exit,
		})
		if err != nil {
			t.Fatalf("close %d failed: %v", i, err)
		}
		if closed.CloseDayKey == nil || *closed.CloseDayKey != "2026-08-28" {
			t.Fatalf("close day key = %v, want 2026-08-28", closed.CloseDayKey)
		}
	}

	losses, err := svc.DailyLosses(ctx, "2026-08-28")
	if err != nil {
		t.Fatal(err)
	}
	if losses != 3 {
		t.Errorf("losses on the local day = %d, want 3", losses)
	}

	// The stop rule fires on the trader's day, not the UTC date.
	ok, err := svc.CanAddTrade(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("stop rule should block after three losses on the local day")
	}

	losses, err = svc.DailyLosses(ctx, "2026-08-29")
	if err != nil {
		t.Fatal(err)
	}
	if losses != 0 {
		t.Errorf("losses attributed to the UTC date = %d, want 0", losses)
	}
}

func TestAddTrade_StickyDefaults(t *testing.T) {
	svc, st := testService(t, &fixedBias{snap: oobSnapshot()})
	ctx := context.Background()

	in := validInput()
	in.RiskTier = models.RiskTierB
	in.Locations = []string{"LVN", "FVG"}
	if _, err := svc.AddTrade(ctx, in); err != nil {
		t.Fatal(err)
	}

	settings, err := st.GetSettings(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if settings.LastModel == nil || *settings.LastModel != string(execution.TrendImpulsePB) {
		t.Errorf("last model = %v", settings.LastModel)
	}
	if settings.LastRiskTier == nil || *settings.LastRiskTier != models.RiskTierB {
		t.Errorf("last tier = %v", settings.LastRiskTier)
	}
	if len(settings.LastLocations) != 2 {
		t.Errorf("last locations = %v", settings.LastLocations)
	}
}

// Property: for any prices, the long and short close-out math is symmetric:
// mirroring the direction and the price move yields the same P&L and R.
func TestProperty_CloseMathDirectionSymmetry(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	entryGen := gen.Float64Range(1.0, 1000.0)
	moveGen := gen.Float64Range(-50.0, 50.0)
	stopDistGen := gen.Float64Range(0.01, 20.0)
	riskGen := gen.OneConstOf(25.0, 50.0, 100.0)

	properties.Property("long and short mirror each other", prop.ForAll(
		func(entry, move, stopDist, risk float64) bool {
			longPnL, longR := CloseMath(models.DirectionLong, entry, entry-stopDist, entry+move, risk)
			shortPnL, shortR := CloseMath(models.DirectionShort, entry, entry+stopDist, entry-move, risk)
			return math.Abs(longPnL-shortPnL) <= 0.011 && math.Abs(longR-shortR) <= 0.0011
		},
		entryGen, moveGen, stopDistGen, riskGen,
	))

	properties.Property("a winning move yields positive R and a losing move negative", prop.ForAll(
		func(entry, move, stopDist, risk float64) bool {
			_, r := CloseMath(models.DirectionLong, entry, entry-stopDist, entry+move, risk)
			if move > 0.01 {
				return r > 0
			}
			if move < -0.01 {
				return r < 0
			}
			return true
		},
		entryGen, moveGen, stopDistGen, riskGen,
	))

	properties.TestingRun(t)
}
