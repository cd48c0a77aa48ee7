package biasstate

import (
	"fmt"

	"edgeday-journal/internal/execution"
	"edgeday-journal/internal/models"
)

// Selection tracks the execution model chosen for the current bias context
// and the progress through its checklist. It is bound to the snapshot it was
// chosen under: when the active snapshot changes identity, any model that is
// no longer allowed is dropped together with its checklist.
type Selection struct {
	snapshotID string
	model      execution.Model
	checklist  []models.ChecklistItem
}

// Model returns the selected model, empty when nothing is selected.
func (s *Selection) Model() execution.Model { return s.model }

// Checklist returns the live checklist items.
func (s *Selection) Checklist() []models.ChecklistItem { return s.checklist }

// Sync reconciles the selection with the active snapshot. Passing nil means
// the day has no execution context; any selection is discarded. A snapshot
// with a new identity keeps the selection only if the model is still allowed
// under the new market state.
func (s *Selection) Sync(snap *models.BiasStateSnapshot) {
	if snap == nil {
		s.reset("")
		return
	}
	if snap.ID == s.snapshotID {
		return
	}
	if s.model != "" && execution.Allowed(s.model, snap.MarketState) {
		// Same model remains legal under the new context; checklist
		// progress survives the snapshot change.
		s.snapshotID = snap.ID
		return
	}
	s.reset(snap.ID)
}

// Choose selects a model under the given snapshot, initializing a fresh
// checklist. It fails when the snapshot offers no execution context or the
// model is not allowed under its market state.
func (s *Selection) Choose(m execution.Model, snap *models.BiasStateSnapshot) error {
	if snap == nil || !snap.HasContext() {
		return fmt.Errorf("no active bias context for today")
	}
	if !execution.Allowed(m, snap.MarketState) {
		return fmt.Errorf("model %s is not allowed under the current market state", m)
	}
	items := execution.Checklist(m)
	checklist := make([]models.ChecklistItem, len(items))
	for i, text := range items {
		checklist[i] = models.ChecklistItem{Text: text}
	}
	s.snapshotID = snap.ID
	s.model = m
	s.checklist = checklist
	return nil
}

// Toggle flips one checklist item. Out-of-range indexes are ignored.
func (s *Selection) Toggle(i int) {
	if i < 0 || i >= len(s.checklist) {
		return
	}
	s.checklist[i].Checked = !s.checklist[i].Checked
}

// Complete reports whether a model is selected and every item is checked.
func (s *Selection) Complete() bool {
	if s.model == "" || len(s.checklist) == 0 {
		return false
	}
	for _, item := range s.checklist {
		if !item.Checked {
			return false
		}
	}
	return true
}

func (s *Selection) reset(snapshotID string) {
	s.snapshotID = snapshotID
	s.model = ""
	s.checklist = nil
}
