package backend

import (
	"context"
	"errors"
	"strings"
)

// Kind buckets backend failures for the fallback cascade. The caller only
// ever needs to know three things about an error: the function is missing,
// the relation is missing, or the call might succeed if retried elsewhere.
type Kind int

const (
	KindUnknown Kind = iota
	KindMissingFunction
	KindMissingRelation
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindMissingFunction:
		return "missing_function"
	case KindMissingRelation:
		return "missing_relation"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Sentinel errors surfaced by backend implementations.
var (
	// ErrNoSnapshot means the day has no active bias snapshot. It is a
	// normal condition, not a failure.
	ErrNoSnapshot = errors.New("no active bias snapshot")

	// ErrFunctionMissing is returned when the server-side set function is
	// not provisioned and the caller must fall back to direct writes.
	ErrFunctionMissing = errors.New("bias function not provisioned")

	// ErrRelationMissing is returned when a required table or view does
	// not exist on the backend.
	ErrRelationMissing = errors.New("bias relation not provisioned")
)

// Postgres-style codes seen when the hosted backend rejects a call.
const (
	codeUndefinedFunction = "42883"
	codeUndefinedTable    = "42P01"
	codeFunctionNotFound  = "PGRST202"
)

// Classify maps an error from any backend tier into a Kind. Matching is
// centralized here so the cascade logic never inspects error strings itself.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, ErrFunctionMissing) {
		return KindMissingFunction
	}
	if errors.Is(err, ErrRelationMissing) {
		return KindMissingRelation
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, strings.ToLower(codeFunctionNotFound)),
		strings.Contains(msg, codeUndefinedFunction),
		strings.Contains(msg, "no such function"),
		strings.Contains(msg, "could not find the function"):
		return KindMissingFunction
	case strings.Contains(msg, codeUndefinedTable),
		strings.Contains(msg, "no such table"),
		strings.Contains(msg, "no such view"),
		strings.Contains(msg, "does not exist"):
		return KindMissingRelation
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "busy"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "temporarily unavailable"):
		return KindTransient
	default:
		return KindUnknown
	}
}
