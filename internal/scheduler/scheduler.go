// Package scheduler runs the timed jobs of the journal, currently the
// end-of-day wrap.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"edgeday-journal/internal/journal"
	"edgeday-journal/internal/models"
	"edgeday-journal/internal/notify"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron      *cron.Cron
	journal   *journal.Service
	notifier  notify.Notifier
	log       zerolog.Logger
	reportDir string
	now       func() time.Time
}

// New creates a Scheduler. notifier may be nil; reportDir may be empty to
// skip writing report files.
func New(svc *journal.Service, notifier notify.Notifier, reportDir string, log zerolog.Logger) *Scheduler {
	if notifier == nil {
		notifier = notify.NewNoOpNotifier()
	}
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		journal:   svc,
		notifier:  notifier,
		log:       log,
		reportDir: reportDir,
		now:       time.Now,
	}
}

// SetNow overrides the scheduler clock. Test hook.
func (s *Scheduler) SetNow(now func() time.Time) { s.now = now }

// RegisterDailyWrap schedules the wrap job at the given local time, given
// as "HH:MM".
func (s *Scheduler) RegisterDailyWrap(wrapTime string) error {
	spec, err := cronSpecFor(wrapTime)
	if err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(spec, s.dailyWrap); err != nil {
		return fmt.Errorf("register daily wrap: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("Scheduler stopped")
}

// RunWrapNow executes the wrap job immediately for today.
func (s *Scheduler) RunWrapNow(ctx context.Context) error {
	return s.wrapDay(ctx, models.DayKeyFor(s.now()))
}

func (s *Scheduler) dailyWrap() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dayKey := models.DayKeyFor(s.now())
	if err := s.wrapDay(ctx, dayKey); err != nil {
		s.log.Error().Err(err).Str("day", dayKey).Msg("Daily wrap failed")
		if nerr := s.notifier.SendError(ctx, err, "daily wrap"); nerr != nil {
			s.log.Warn().Err(nerr).Msg("Failed to send wrap error notification")
		}
	}
}

func (s *Scheduler) wrapDay(ctx context.Context, dayKey string) error {
	wrap, err := s.journal.WrapDay(ctx, dayKey)
	if err != nil {
		return err
	}

	if s.reportDir != "" {
		if err := s.writeReports(wrap); err != nil {
			s.log.Warn().Err(err).Msg("Failed to write wrap reports")
		}
	}

	if err := s.notifier.SendWrap(ctx, wrap); err != nil {
		s.log.Warn().Err(err).Msg("Failed to send wrap notification")
	}
	return nil
}

func (s *Scheduler) writeReports(wrap *journal.DailyWrap) error {
	if err := os.MkdirAll(s.reportDir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	jsonPath := filepath.Join(s.reportDir, fmt.Sprintf("wrap_%s.json", wrap.Date))
	f, err := os.Create(jsonPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", jsonPath, err)
	}
	if err := journal.ExportDailyWrapJSON(f, wrap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	mdPath := filepath.Join(s.reportDir, fmt.Sprintf("wrap_%s.md", wrap.Date))
	f, err = os.Create(mdPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", mdPath, err)
	}
	if err := journal.ExportDailyWrapMarkdown(f, wrap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// cronSpecFor translates an "HH:MM" wall time into a six-field cron spec.
func cronSpecFor(wrapTime string) (string, error) {
	parts := strings.Split(wrapTime, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid wrap time %q, want HH:MM", wrapTime)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid wrap hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid wrap minute %q", parts[1])
	}
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
