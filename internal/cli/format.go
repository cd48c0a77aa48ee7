package cli

import (
	"fmt"
	"strings"
	"time"
)

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatPnL formats P&L with sign.
func FormatPnL(pnl float64) string {
	if pnl > 0 {
		return fmt.Sprintf("+%.2f", pnl)
	}
	return fmt.Sprintf("%.2f", pnl)
}

// FormatR formats an R multiple with sign.
func FormatR(r float64) string {
	if r > 0 {
		return fmt.Sprintf("+%.2fR", r)
	}
	return fmt.Sprintf("%.2fR", r)
}

// FormatPrice formats a price with appropriate decimal places.
func FormatPrice(price float64) string {
	if price >= 10 {
		return fmt.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.4f", price)
}

// FormatTime formats a local wall-clock time.
func FormatTime(t time.Time) string {
	return t.Local().Format("15:04:05")
}

// FormatDate formats a date.
func FormatDate(t time.Time) string {
	return t.Local().Format("02-Jan-2006")
}

// FormatDateTime formats a datetime.
func FormatDateTime(t time.Time) string {
	return t.Local().Format("02-Jan-2006 15:04:05")
}

// FormatMinutes formats a minute count in human-readable form.
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// TruncateString truncates a string to maxLen, appending an ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// PadRight pads a string on the right to the given length.
func PadRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

// PadLeft pads a string on the left to the given length.
func PadLeft(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat(" ", length-len(s)) + s
}
