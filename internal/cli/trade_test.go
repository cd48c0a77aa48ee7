package cli

import (
	"testing"

	"edgeday-journal/internal/execution"
	"edgeday-journal/internal/models"
)

func oobSnapshot(id string) *models.BiasStateSnapshot {
	state := models.StateOutOfBalance
	return &models.BiasStateSnapshot{
		ID:          id,
		UserID:      "u1",
		DayKey:      "2026-08-28",
		Bias:        models.BiasOOBLong,
		MarketState: &state,
		Active:      true,
	}
}

func TestConfirmedChecklist_ChecksEveryItem(t *testing.T) {
	items, err := confirmedChecklist(execution.TrendImpulsePB, oobSnapshot("s1"))
	if err != nil {
		t.Fatalf("confirmedChecklist: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected a non-empty checklist")
	}
	if len(items) != len(execution.Checklist(execution.TrendImpulsePB)) {
		t.Errorf("got %d items, want the full model checklist", len(items))
	}
	for i, item := range items {
		if !item.Checked {
			t.Errorf("item %d (%s) not checked", i, item.Text)
		}
	}
}

func TestConfirmedChecklist_RequiresContext(t *testing.T) {
	if _, err := confirmedChecklist(execution.TrendImpulsePB, nil); err == nil {
		t.Error("expected an error without an active snapshot")
	}

	noBias := &models.BiasStateSnapshot{ID: "s0", Bias: models.BiasNone, Active: true}
	if _, err := confirmedChecklist(execution.TrendImpulsePB, noBias); err == nil {
		t.Error("expected an error for a NONE snapshot")
	}
}

func TestConfirmedChecklist_EnforcesModelGating(t *testing.T) {
	if _, err := confirmedChecklist(execution.MRVAFade, oobSnapshot("s1")); err == nil {
		t.Error("mean-reversion model must be rejected out of balance")
	}
}
