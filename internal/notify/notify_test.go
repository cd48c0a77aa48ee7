package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgeday-journal/pkg/utils"
)

type recordingChannel struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *recordingChannel) Name() string    { return "recording" }
func (r *recordingChannel) IsEnabled() bool { return true }

func (r *recordingChannel) Send(ctx context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingChannel) notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

func TestMultiNotifierLevelFiltering(t *testing.T) {
	tests := []struct {
		level     NotificationLevel
		notifType NotificationType
		delivered bool
	}{
		{LevelAll, NotificationAdvisory, true},
		{LevelAll, NotificationWrap, true},
		{LevelWrapsOnly, NotificationWrap, true},
		{LevelWrapsOnly, NotificationAdvisory, false},
		{LevelWrapsOnly, NotificationError, false},
		{LevelErrorsOnly, NotificationError, true},
		{LevelErrorsOnly, NotificationWrap, false},
	}

	for _, tt := range tests {
		ch := &recordingChannel{}
		mn := NewMultiNotifier(tt.level)
		mn.AddChannel(ch)

		err := mn.Send(context.Background(), Notification{Type: tt.notifType, Title: "t"})
		require.NoError(t, err)

		got := len(ch.notifications())
		if tt.delivered {
			assert.Equal(t, 1, got, "level %s should deliver %s", tt.level, tt.notifType)
		} else {
			assert.Equal(t, 0, got, "level %s should drop %s", tt.level, tt.notifType)
		}
	}
}

func TestMultiNotifierStampsTimestamp(t *testing.T) {
	ch := &recordingChannel{}
	mn := NewMultiNotifier(LevelAll)
	mn.AddChannel(ch)

	require.NoError(t, mn.SendAdvisory(context.Background(), "view tier unavailable"))

	sent := ch.notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, NotificationAdvisory, sent[0].Type)
	assert.Equal(t, "Backend degraded", sent[0].Title)
	assert.False(t, sent[0].Timestamp.IsZero())
}

func TestWebhookNotifierPostsJSON(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhookNotifier(srv.URL)
	require.True(t, wh.IsEnabled())

	err := wh.Send(context.Background(), Notification{
		Type:      NotificationWrap,
		Title:     "Daily Wrap 2026-08-28",
		Message:   "Trades: 2",
		Timestamp: time.Date(2026, 8, 28, 21, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "wrap", payload["type"])
	assert.Equal(t, "Daily Wrap 2026-08-28", payload["title"])
	assert.Equal(t, "2026-08-28T21:00:00Z", payload["timestamp"])
}

func TestWebhookNotifierRetriesTransientFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhookNotifier(srv.URL)
	wh.retry = utils.RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2.0,
	}

	err := wh.Send(context.Background(), Notification{Type: NotificationError, Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWebhookNotifierGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	wh := NewWebhookNotifier(srv.URL)
	wh.retry = utils.RetryConfig{
		MaxAttempts:   2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2.0,
	}

	err := wh.Send(context.Background(), Notification{Type: NotificationError, Title: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, 2, calls)
}

func TestWebhookNotifierDisabledWithoutURL(t *testing.T) {
	wh := NewWebhookNotifier("")
	assert.False(t, wh.IsEnabled())
	assert.NoError(t, wh.Send(context.Background(), Notification{Type: NotificationInfo}))
}
