package journal

import (
	"context"
	"fmt"
	"math"
	"sort"

	"edgeday-journal/internal/execution"
	"edgeday-journal/internal/models"
	"edgeday-journal/internal/store"
)

// KPI aggregates performance over closed trades. Open trades are ignored.
func KPI(trades []models.Trade) models.KPIStats {
	var stats models.KPIStats
	var grossWin, grossLoss float64

	for i := range trades {
		t := &trades[i]
		if t.Status != models.TradeClosed || t.PnL == nil {
			continue
		}
		stats.TotalTrades++
		stats.TotalPnL += *t.PnL
		if t.RMultiple != nil {
			stats.TotalR += *t.RMultiple
		}
		if t.IsWin() {
			stats.Wins++
			grossWin += *t.PnL
		} else if t.IsLoss() {
			stats.Losses++
			grossLoss += -*t.PnL
		}
	}

	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.TotalTrades) * 100
		stats.AvgR = stats.TotalR / float64(stats.TotalTrades)
		stats.Expectancy = stats.TotalPnL / float64(stats.TotalTrades)
	}
	if stats.Wins > 0 {
		stats.AvgWin = grossWin / float64(stats.Wins)
	}
	if stats.Losses > 0 {
		stats.AvgLoss = -grossLoss / float64(stats.Losses)
	}
	if grossLoss > 0 {
		stats.ProfitFactor = grossWin / grossLoss
	}
	return stats
}

// HourHeatmap buckets closed trades by entry hour (UTC), returning only
// hours that saw trades, ordered by hour.
func HourHeatmap(trades []models.Trade) []models.HourBucket {
	byHour := make(map[int]*models.HourBucket)
	for i := range trades {
		t := &trades[i]
		if t.Status != models.TradeClosed || t.PnL == nil {
			continue
		}
		hour := t.EntryTime.UTC().Hour()
		bucket, ok := byHour[hour]
		if !ok {
			bucket = &models.HourBucket{Hour: hour}
			byHour[hour] = bucket
		}
		bucket.Trades++
		bucket.PnL += *t.PnL
		if t.RMultiple != nil {
			bucket.TotalR += *t.RMultiple
		}
		if t.IsWin() {
			bucket.Wins++
		}
	}

	out := make([]models.HourBucket, 0, len(byHour))
	for _, b := range byHour {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

// BestWorstHours returns the hours with the highest and lowest total P&L.
// Both are nil when no closed trades exist.
func BestWorstHours(trades []models.Trade) (best, worst *int) {
	buckets := HourHeatmap(trades)
	if len(buckets) == 0 {
		return nil, nil
	}
	bestIdx, worstIdx := 0, 0
	for i, b := range buckets {
		if b.PnL > buckets[bestIdx].PnL {
			bestIdx = i
		}
		if b.PnL < buckets[worstIdx].PnL {
			worstIdx = i
		}
	}
	b, w := buckets[bestIdx].Hour, buckets[worstIdx].Hour
	return &b, &w
}

// MistakeImpacts aggregates the cost of each mistake tag over closed trades,
// most costly first.
func MistakeImpacts(trades []models.Trade) []models.MistakeImpact {
	byTag := make(map[string]*models.MistakeImpact)
	for i := range trades {
		t := &trades[i]
		if t.Status != models.TradeClosed || t.PnL == nil {
			continue
		}
		for _, tag := range t.MistakeTags {
			impact, ok := byTag[tag]
			if !ok {
				impact = &models.MistakeImpact{Tag: tag}
				byTag[tag] = impact
			}
			impact.Count++
			impact.PnL += *t.PnL
			if t.RMultiple != nil {
				impact.TotalR += *t.RMultiple
			}
		}
	}

	out := make([]models.MistakeImpact, 0, len(byTag))
	for _, impact := range byTag {
		out = append(out, *impact)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PnL < out[j].PnL })
	return out
}

// EmotionAverages returns the mean slider values over closed trades, and
// separately over losing trades so the two can be compared side by side.
func EmotionAverages(trades []models.Trade) (all, losses []models.EmotionAverage) {
	type acc struct {
		sum   [3]int
		count int
	}
	var total, losing acc

	for i := range trades {
		t := &trades[i]
		if t.Status != models.TradeClosed || t.PnL == nil {
			continue
		}
		total.sum[0] += t.Emotions.CalmStressed
		total.sum[1] += t.Emotions.Focus
		total.sum[2] += t.Emotions.UrgeRecover
		total.count++
		if t.IsLoss() {
			losing.sum[0] += t.Emotions.CalmStressed
			losing.sum[1] += t.Emotions.Focus
			losing.sum[2] += t.Emotions.UrgeRecover
			losing.count++
		}
	}

	names := []string{"calm_stressed", "focus", "urge_recover"}
	build := func(a acc) []models.EmotionAverage {
		if a.count == 0 {
			return nil
		}
		out := make([]models.EmotionAverage, len(names))
		for i, name := range names {
			out[i] = models.EmotionAverage{
				Emotion: name,
				Average: float64(a.sum[i]) / float64(a.count),
				Count:   a.count,
			}
		}
		return out
	}
	return build(total), build(losing)
}

// FamilyComparison splits closed trades into trend and mean-reversion
// families and summarizes each.
func FamilyComparison(trades []models.Trade) []models.ModelFamilyStats {
	families := map[string][]models.Trade{}
	for _, t := range trades {
		if t.Status != models.TradeClosed || t.PnL == nil {
			continue
		}
		switch {
		case execution.IsTrend(t.Model):
			families["trend"] = append(families["trend"], t)
		case execution.IsMeanReversion(t.Model):
			families["mean_reversion"] = append(families["mean_reversion"], t)
		}
	}

	var out []models.ModelFamilyStats
	for _, family := range []string{"trend", "mean_reversion"} {
		ts, ok := families[family]
		if !ok {
			continue
		}
		kpi := KPI(ts)
		out = append(out, models.ModelFamilyStats{
			Family:   family,
			Trades:   kpi.TotalTrades,
			WinRate:  kpi.WinRate,
			AvgR:     kpi.AvgR,
			TotalPnL: kpi.TotalPnL,
		})
	}
	return out
}

// HypothesisComparison holds the A/B split for one experiment.
type HypothesisComparison struct {
	Hypothesis   models.Hypothesis `json:"hypothesis"`
	Experimental models.KPIStats   `json:"experimental"`
	Baseline     models.KPIStats   `json:"baseline"`
}

// CompareHypothesis summarizes the experiment's trades against the regular
// playbook over the same period.
func (s *Service) CompareHypothesis(ctx context.Context, hypothesisID string) (*HypothesisComparison, error) {
	h, err := s.store.GetHypothesis(ctx, hypothesisID)
	if err != nil {
		return nil, fmt.Errorf("load hypothesis: %w", err)
	}

	experimental, err := s.store.GetTrades(ctx, store.TradeFilter{
		UserID:       s.userID,
		HypothesisID: hypothesisID,
		Status:       models.TradeClosed,
	})
	if err != nil {
		return nil, fmt.Errorf("load experimental trades: %w", err)
	}

	regular := false
	baseline, err := s.store.GetTrades(ctx, store.TradeFilter{
		UserID:         s.userID,
		IsExperimental: &regular,
		Status:         models.TradeClosed,
		StartDate:      h.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("load baseline trades: %w", err)
	}

	return &HypothesisComparison{
		Hypothesis:   *h,
		Experimental: KPI(experimental),
		Baseline:     KPI(baseline),
	}, nil
}

// ComputeDailyStats builds the end-of-day rollup for one day from the
// trades closed that day.
func (s *Service) ComputeDailyStats(ctx context.Context, dayKey string) (*models.DailyStats, error) {
	trades, err := s.store.GetTrades(ctx, store.TradeFilter{
		UserID: s.userID,
		DayKey: dayKey,
	})
	if err != nil {
		return nil, fmt.Errorf("load day trades: %w", err)
	}

	kpi := KPI(trades)
	best, worst := BestWorstHours(trades)

	stats := &models.DailyStats{
		UserID:        s.userID,
		Date:          dayKey,
		TotalTrades:   kpi.TotalTrades,
		WinningTrades: kpi.Wins,
		LosingTrades:  kpi.Losses,
		WinRate:       kpi.WinRate,
		TotalPnL:      kpi.TotalPnL,
		TotalR:        kpi.TotalR,
		AvgR:          kpi.AvgR,
		BestHour:      best,
		WorstHour:     worst,
	}

	bestR := math.Inf(-1)
	worstR := math.Inf(1)
	streak := 0
	// Trades arrive newest first; walk oldest first for the streak.
	for i := len(trades) - 1; i >= 0; i-- {
		t := &trades[i]
		if t.Status != models.TradeClosed || t.RMultiple == nil {
			continue
		}
		if *t.RMultiple > bestR {
			bestR = *t.RMultiple
		}
		if *t.RMultiple < worstR {
			worstR = *t.RMultiple
		}
		if t.IsLoss() {
			streak++
		} else {
			streak = 0
		}
	}
	if !math.IsInf(bestR, -1) {
		stats.BestTradeR = bestR
		stats.WorstTradeR = worstR
	}
	stats.ConsecutiveLosses = streak
	stats.DayDisabled = kpi.Losses >= DailyLossLimit

	return stats, nil
}
