package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// TerminalNotifier queues notifications for display in the terminal without
// blocking the caller. Handlers decide how each one is rendered.
type TerminalNotifier struct {
	notifications chan Notification
	handlers      []TerminalHandler
	mu            sync.RWMutex
	enabled       bool
	bellEnabled   bool
	colorEnabled  bool
}

// TerminalHandler is a function that handles terminal notifications.
type TerminalHandler func(n Notification)

// NewTerminalNotifier creates a TerminalNotifier.
func NewTerminalNotifier(bufferSize int) *TerminalNotifier {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &TerminalNotifier{
		notifications: make(chan Notification, bufferSize),
		enabled:       true,
		bellEnabled:   true,
		colorEnabled:  true,
	}
}

// SetBellEnabled enables or disables the terminal bell.
func (tn *TerminalNotifier) SetBellEnabled(enabled bool) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.bellEnabled = enabled
}

// SetColorEnabled enables or disables colored output.
func (tn *TerminalNotifier) SetColorEnabled(enabled bool) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.colorEnabled = enabled
}

// SetEnabled enables or disables the notifier.
func (tn *TerminalNotifier) SetEnabled(enabled bool) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.enabled = enabled
}

// AddHandler adds a notification handler.
func (tn *TerminalNotifier) AddHandler(handler TerminalHandler) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.handlers = append(tn.handlers, handler)
}

// Name returns the channel name.
func (tn *TerminalNotifier) Name() string { return "terminal" }

// IsEnabled returns whether the notifier is enabled.
func (tn *TerminalNotifier) IsEnabled() bool {
	tn.mu.RLock()
	defer tn.mu.RUnlock()
	return tn.enabled
}

// Send queues a notification. When the buffer is full the oldest entry is
// dropped so the caller never blocks.
func (tn *TerminalNotifier) Send(ctx context.Context, n Notification) error {
	if !tn.IsEnabled() {
		return nil
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	select {
	case tn.notifications <- n:
	default:
		select {
		case <-tn.notifications:
		default:
		}
		tn.notifications <- n
	}
	return nil
}

// Advise is the degraded-backend advisory hook. It matches the signature
// the bias gate expects for its advisory callback.
func (tn *TerminalNotifier) Advise(message string) {
	_ = tn.Send(context.Background(), Notification{
		Type:    NotificationAdvisory,
		Message: message,
	})
}

// Start begins processing queued notifications until the context ends.
func (tn *TerminalNotifier) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-tn.notifications:
				tn.process(n)
			}
		}
	}()
}

func (tn *TerminalNotifier) process(n Notification) {
	tn.mu.RLock()
	handlers := tn.handlers
	bellEnabled := tn.bellEnabled
	tn.mu.RUnlock()

	if bellEnabled && (n.Type == NotificationAdvisory || n.Type == NotificationError) {
		fmt.Print("\a")
	}

	for _, handler := range handlers {
		handler(n)
	}
}

// FormatNotification formats a notification for terminal display.
func FormatNotification(n Notification, colorEnabled bool) string {
	var sb strings.Builder

	timestamp := n.Timestamp.Format("15:04:05")

	var typeIndicator, color, resetColor string
	if colorEnabled {
		resetColor = "\033[0m"
	}

	switch n.Type {
	case NotificationAdvisory:
		typeIndicator = "ADVISORY"
		if colorEnabled {
			color = "\033[33m" // Yellow
		}
	case NotificationWrap:
		typeIndicator = "WRAP"
		if colorEnabled {
			color = "\033[36m" // Cyan
		}
	case NotificationError:
		typeIndicator = "ERROR"
		if colorEnabled {
			color = "\033[31m" // Red
		}
	default:
		typeIndicator = "INFO"
		if colorEnabled {
			color = "\033[37m" // White
		}
	}

	sb.WriteString(fmt.Sprintf("%s[%s] %s%s", color, timestamp, typeIndicator, resetColor))
	if n.Title != "" {
		sb.WriteString(fmt.Sprintf(" | %s", n.Title))
	}
	if n.Message != "" {
		sb.WriteString(fmt.Sprintf(" | %s", strings.TrimRight(n.Message, "\n")))
	}
	return sb.String()
}

// DefaultTerminalHandler returns a handler that prints to stdout.
func DefaultTerminalHandler(colorEnabled bool) TerminalHandler {
	return func(n Notification) {
		fmt.Println(FormatNotification(n, colorEnabled))
	}
}
