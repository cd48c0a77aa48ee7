// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrTradeNotFound    = errors.New("trade not found")
	ErrTradeClosed      = errors.New("trade already closed")
	ErrNoBiasContext    = errors.New("no active bias context for today")
	ErrModelNotAllowed  = errors.New("execution model not allowed under current market state")
	ErrChecklistOpen    = errors.New("model checklist incomplete")
	ErrDailyLossLimit   = errors.New("daily loss limit reached")
	ErrBackendDown      = errors.New("backend unavailable")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDataNotFound     = errors.New("data not found")
	ErrDatabaseError    = errors.New("database error")
	ErrInputValidation  = errors.New("input validation failed")
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// TradeError represents an error related to journal trade operations.
type TradeError struct {
	TradeID string
	Op      string
	Reason  string
	Err     error
}

func (e *TradeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("trade error [%s] %s: %s: %v", e.TradeID, e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("trade error [%s] %s: %s", e.TradeID, e.Op, e.Reason)
}

func (e *TradeError) Unwrap() error {
	return e.Err
}

// NewTradeError creates a new TradeError.
func NewTradeError(tradeID, op, reason string, err error) *TradeError {
	return &TradeError{
		TradeID: tradeID,
		Op:      op,
		Reason:  reason,
		Err:     err,
	}
}

// BackendError represents a failure of one backend tier.
type BackendError struct {
	Tier    string
	Op      string
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend error [%s] %s: %s: %v", e.Tier, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("backend error [%s] %s: %s", e.Tier, e.Op, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewBackendError creates a new BackendError.
func NewBackendError(tier, op, message string, err error) *BackendError {
	return &BackendError{
		Tier:    tier,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// ExportError represents a report or export failure.
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewExportError creates a new ExportError.
func NewExportError(format, path string, err error) *ExportError {
	return &ExportError{
		Format: format,
		Path:   path,
		Err:    err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
