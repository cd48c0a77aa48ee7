package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"edgeday-journal/internal/models"
	"edgeday-journal/internal/store"
)

// csvTrade is the flat CSV row for one trade. Column order matches the
// header order here.
type csvTrade struct {
	Date      string  `csv:"Date"`
	Asset     string  `csv:"Asset"`
	Direction string  `csv:"Direction"`
	Model     string  `csv:"Model"`
	Entry     float64 `csv:"Entry"`
	Exit      string  `csv:"Exit"`
	Stop      float64 `csv:"Stop"`
	PnL       string  `csv:"P&L"`
	RMultiple string  `csv:"R Multiple"`
	RiskTier  string  `csv:"Risk Tier"`
	Duration  string  `csv:"Duration (min)"`
	Emotions  string  `csv:"Emotions"`
	Notes     string  `csv:"Notes"`
}

func toCSVTrade(t *models.Trade) (csvTrade, error) {
	emotions, err := json.Marshal(t.Emotions)
	if err != nil {
		return csvTrade{}, fmt.Errorf("encode emotions: %w", err)
	}

	row := csvTrade{
		Date:      t.EntryTime.UTC().Format("2006-01-02 15:04"),
		Asset:     t.Asset,
		Direction: string(t.Direction),
		Model:     t.Model,
		Entry:     t.EntryPrice,
		Stop:      t.StopLoss,
		RiskTier:  string(t.RiskTier),
		Emotions:  string(emotions),
	}
	if t.ExitPrice != nil {
		row.Exit = fmt.Sprintf("%g", *t.ExitPrice)
	}
	if t.PnL != nil {
		row.PnL = fmt.Sprintf("%.2f", *t.PnL)
	}
	if t.RMultiple != nil {
		row.RMultiple = fmt.Sprintf("%.3f", *t.RMultiple)
	}
	if t.DurationMinutes != nil {
		row.Duration = fmt.Sprintf("%d", *t.DurationMinutes)
	}
	if t.Notes != nil {
		row.Notes = *t.Notes
	}
	return row, nil
}

// ExportCSV writes the trades as CSV, newest first as given.
func ExportCSV(w io.Writer, trades []models.Trade) error {
	rows := make([]csvTrade, 0, len(trades))
	for i := range trades {
		row, err := toCSVTrade(&trades[i])
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return gocsv.Marshal(&rows, w)
}

// DailyWrap is the end-of-day report: a summary, the day's trades, and the
// derived analysis sections.
type DailyWrap struct {
	Date     string           `json:"date"`
	Summary  DailyWrapSummary `json:"summary"`
	Trades   []models.Trade   `json:"trades"`
	Analysis DailyWrapDetail  `json:"analysis"`
}

// DailyWrapSummary is the headline block of the wrap.
type DailyWrapSummary struct {
	TotalTrades int     `json:"total_trades"`
	TotalPnL    float64 `json:"total_pnl"`
	TotalR      float64 `json:"total_r"`
	WinRate     float64 `json:"win_rate"`
	AvgR        float64 `json:"avg_r"`
}

// DailyWrapDetail carries the analytical sections of the wrap.
type DailyWrapDetail struct {
	BestHour        *int                    `json:"best_hour"`
	WorstHour       *int                    `json:"worst_hour"`
	TopMistakes     []models.MistakeImpact  `json:"top_mistakes"`
	EmotionAverages []models.EmotionAverage `json:"emotion_averages"`
}

// BuildDailyWrap assembles the wrap for one day.
func (s *Service) BuildDailyWrap(ctx context.Context, dayKey string) (*DailyWrap, error) {
	trades, err := s.store.GetTrades(ctx, store.TradeFilter{
		UserID: s.userID,
		DayKey: dayKey,
	})
	if err != nil {
		return nil, fmt.Errorf("load day trades: %w", err)
	}

	kpi := KPI(trades)
	best, worst := BestWorstHours(trades)
	mistakes := MistakeImpacts(trades)
	if len(mistakes) > 3 {
		mistakes = mistakes[:3]
	}
	emotions, _ := EmotionAverages(trades)

	return &DailyWrap{
		Date: dayKey,
		Summary: DailyWrapSummary{
			TotalTrades: kpi.TotalTrades,
			TotalPnL:    kpi.TotalPnL,
			TotalR:      kpi.TotalR,
			WinRate:     kpi.WinRate,
			AvgR:        kpi.AvgR,
		},
		Trades: trades,
		Analysis: DailyWrapDetail{
			BestHour:        best,
			WorstHour:       worst,
			TopMistakes:     mistakes,
			EmotionAverages: emotions,
		},
	}, nil
}

// ExportDailyWrapJSON writes the wrap as indented JSON.
func ExportDailyWrapJSON(w io.Writer, wrap *DailyWrap) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(wrap)
}

// ExportDailyWrapMarkdown renders the wrap as a short markdown report.
func ExportDailyWrapMarkdown(w io.Writer, wrap *DailyWrap) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily Wrap %s\n\n", wrap.Date)
	fmt.Fprintf(&b, "| Trades | P&L | Total R | Win Rate | Avg R |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %.2f | %.2f | %.1f%% | %.2f |\n\n",
		wrap.Summary.TotalTrades, wrap.Summary.TotalPnL, wrap.Summary.TotalR,
		wrap.Summary.WinRate, wrap.Summary.AvgR)

	if wrap.Analysis.BestHour != nil {
		fmt.Fprintf(&b, "Best hour: %02d:00, worst hour: %02d:00.\n\n",
			*wrap.Analysis.BestHour, *wrap.Analysis.WorstHour)
	}

	if len(wrap.Analysis.TopMistakes) > 0 {
		fmt.Fprintf(&b, "## Mistakes\n\n")
		for _, m := range wrap.Analysis.TopMistakes {
			fmt.Fprintf(&b, "- %s: %d trade(s), %.2f P&L\n", m.Tag, m.Count, m.PnL)
		}
		fmt.Fprintf(&b, "\n")
	}

	if len(wrap.Trades) > 0 {
		fmt.Fprintf(&b, "## Trades\n\n")
		for i := range wrap.Trades {
			t := &wrap.Trades[i]
			line := fmt.Sprintf("- %s %s %s @ %g", t.Asset, t.Direction, t.Model, t.EntryPrice)
			if t.PnL != nil {
				line += fmt.Sprintf(" -> %.2f", *t.PnL)
			}
			fmt.Fprintln(&b, line)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WrapDay computes and persists the day's rollup, then builds the wrap
// report from the same trades.
func (s *Service) WrapDay(ctx context.Context, dayKey string) (*DailyWrap, error) {
	stats, err := s.ComputeDailyStats(ctx, dayKey)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveDailyStats(ctx, stats); err != nil {
		return nil, fmt.Errorf("save daily stats: %w", err)
	}
	wrap, err := s.BuildDailyWrap(ctx, dayKey)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("day", dayKey).
		Int("trades", wrap.Summary.TotalTrades).
		Float64("pnl", wrap.Summary.TotalPnL).
		Msg("Daily wrap computed")
	return wrap, nil
}

// ExportTradesCSV loads trades for the date range and writes them as CSV.
func (s *Service) ExportTradesCSV(ctx context.Context, w io.Writer, from, to time.Time) error {
	trades, err := s.store.GetTrades(ctx, store.TradeFilter{
		UserID:    s.userID,
		StartDate: from,
		EndDate:   to,
	})
	if err != nil {
		return fmt.Errorf("load trades: %w", err)
	}
	return ExportCSV(w, trades)
}
