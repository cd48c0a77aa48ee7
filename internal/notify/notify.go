// Package notify delivers advisories and reports outside the normal
// command output: degraded-backend warnings, the daily wrap, errors.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"edgeday-journal/internal/journal"
	"edgeday-journal/pkg/utils"
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
	SendAdvisory(ctx context.Context, message string) error
	SendWrap(ctx context.Context, wrap *journal.DailyWrap) error
	SendError(ctx context.Context, err error, context string) error
}

// Channel is one delivery path for notifications.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
	IsEnabled() bool
}

// Notification represents a notification message.
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationAdvisory NotificationType = "advisory"
	NotificationWrap     NotificationType = "wrap"
	NotificationError    NotificationType = "error"
	NotificationInfo     NotificationType = "info"
)

// NotificationLevel filters which notification types go out.
type NotificationLevel string

const (
	LevelAll        NotificationLevel = "all"
	LevelWrapsOnly  NotificationLevel = "wraps_only"
	LevelErrorsOnly NotificationLevel = "errors_only"
)

// MultiNotifier sends notifications to multiple channels.
type MultiNotifier struct {
	channels []Channel
	level    NotificationLevel
	mu       sync.RWMutex
}

// NewMultiNotifier creates a MultiNotifier with the given level filter.
func NewMultiNotifier(level NotificationLevel) *MultiNotifier {
	if level == "" {
		level = LevelAll
	}
	return &MultiNotifier{level: level}
}

// AddChannel adds a notification channel.
func (mn *MultiNotifier) AddChannel(ch Channel) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels = append(mn.channels, ch)
}

func (mn *MultiNotifier) shouldSend(notifType NotificationType) bool {
	switch mn.level {
	case LevelWrapsOnly:
		return notifType == NotificationWrap
	case LevelErrorsOnly:
		return notifType == NotificationError
	default:
		return true
	}
}

// Send sends a notification to all enabled channels.
func (mn *MultiNotifier) Send(ctx context.Context, n Notification) error {
	if !mn.shouldSend(n.Type) {
		return nil
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	mn.mu.RLock()
	channels := mn.channels
	mn.mu.RUnlock()

	var errs []string
	for _, ch := range channels {
		if ch.IsEnabled() {
			if err := ch.Send(ctx, n); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SendAdvisory sends a degraded-mode advisory.
func (mn *MultiNotifier) SendAdvisory(ctx context.Context, message string) error {
	return mn.Send(ctx, Notification{
		Type:    NotificationAdvisory,
		Title:   "Backend degraded",
		Message: message,
	})
}

// SendWrap sends the end-of-day wrap summary.
func (mn *MultiNotifier) SendWrap(ctx context.Context, wrap *journal.DailyWrap) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Trades: %d\n", wrap.Summary.TotalTrades))
	sb.WriteString(fmt.Sprintf("P&L: %.2f | Total R: %.2f\n", wrap.Summary.TotalPnL, wrap.Summary.TotalR))
	sb.WriteString(fmt.Sprintf("Win rate: %.1f%% | Avg R: %.2f\n", wrap.Summary.WinRate, wrap.Summary.AvgR))
	if wrap.Analysis.BestHour != nil {
		sb.WriteString(fmt.Sprintf("Best hour %02d:00, worst hour %02d:00\n",
			*wrap.Analysis.BestHour, *wrap.Analysis.WorstHour))
	}
	for _, m := range wrap.Analysis.TopMistakes {
		sb.WriteString(fmt.Sprintf("Mistake %s: %d trade(s), %.2f P&L\n", m.Tag, m.Count, m.PnL))
	}

	return mn.Send(ctx, Notification{
		Type:    NotificationWrap,
		Title:   fmt.Sprintf("Daily Wrap %s", wrap.Date),
		Message: sb.String(),
		Data: map[string]interface{}{
			"date":         wrap.Date,
			"total_trades": wrap.Summary.TotalTrades,
			"total_pnl":    wrap.Summary.TotalPnL,
			"win_rate":     wrap.Summary.WinRate,
		},
	})
}

// SendError sends an error notification.
func (mn *MultiNotifier) SendError(ctx context.Context, err error, errContext string) error {
	return mn.Send(ctx, Notification{
		Type:    NotificationError,
		Title:   "Error",
		Message: fmt.Sprintf("Context: %s\nError: %v", errContext, err),
		Data: map[string]interface{}{
			"context": errContext,
			"error":   err.Error(),
		},
	})
}

// WebhookNotifier posts notifications to an HTTP endpoint as JSON.
type WebhookNotifier struct {
	url     string
	enabled bool
	client  *http.Client
	retry   utils.RetryConfig
}

// NewWebhookNotifier creates a WebhookNotifier. An empty URL disables it.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:     url,
		enabled: url != "",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		retry: utils.DefaultRetryConfig(),
	}
}

// Name returns the name of the notifier.
func (w *WebhookNotifier) Name() string { return "webhook" }

// IsEnabled returns whether the notifier is enabled.
func (w *WebhookNotifier) IsEnabled() bool { return w.enabled }

// Send posts the notification to the webhook.
func (w *WebhookNotifier) Send(ctx context.Context, n Notification) error {
	if !w.enabled {
		return nil
	}

	payload := map[string]interface{}{
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"data":      n.Data,
		"timestamp": n.Timestamp.Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	return utils.Retry(ctx, w.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			return fmt.Errorf("sending webhook: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil
	})
}

// NoOpNotifier discards everything. Used in tests and when notifications
// are disabled.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a NoOpNotifier.
func NewNoOpNotifier() *NoOpNotifier { return &NoOpNotifier{} }

func (n *NoOpNotifier) Send(ctx context.Context, notif Notification) error { return nil }

func (n *NoOpNotifier) SendAdvisory(ctx context.Context, message string) error { return nil }

func (n *NoOpNotifier) SendWrap(ctx context.Context, wrap *journal.DailyWrap) error { return nil }

func (n *NoOpNotifier) SendError(ctx context.Context, err error, context string) error { return nil }
