package utils

import (
	"context"
	"errors"
	"strings"
)

// IsDBLockError reports whether err looks like lock contention or a busy database.
// Broad substring matching is intentional: the strings cover SQLite (SQLITE_BUSY),
// MySQL (lock wait timeout) and PostgreSQL (could not obtain lock), and a false
// positive only costs one extra retry.
func IsDBLockError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "busy") ||
		strings.Contains(msg, "lock wait timeout") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not obtain lock")
}

// IsTransientDBError reports whether err is likely transient
// (timeout, cancellation, lock contention).
func IsTransientDBError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	return IsDBLockError(err)
}

// IsConnectionRefused reports whether err looks like the database is not yet
// accepting connections. Used by the startup retry loop.
func IsConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "i/o timeout")
}
