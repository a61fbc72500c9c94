package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicateKeyErr reports whether err was caused by a unique constraint
// violation, across the dialects we support.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// PostgreSQL (error code 23505)
	if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
		return true
	}

	// MySQL (error code 1062)
	if strings.Contains(err.Error(), "Error 1062") {
		return true
	}

	// SQLite (error code 2067)
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return true
	}

	return false
}

// ConstraintName extracts the index or constraint name referenced by a
// duplicate-key error, so callers can map the violation back to a typed
// conflict error. Returns "" when the driver message carries no name.
func ConstraintName(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()

	// PostgreSQL: ... violates unique constraint "ux_organizations_code"
	if idx := strings.Index(msg, `unique constraint "`); idx >= 0 {
		rest := msg[idx+len(`unique constraint "`):]
		if end := strings.Index(rest, `"`); end > 0 {
			return rest[:end]
		}
	}

	// SQLite: UNIQUE constraint failed: organizations.code
	if idx := strings.Index(msg, "UNIQUE constraint failed: "); idx >= 0 {
		rest := msg[idx+len("UNIQUE constraint failed: "):]
		if end := strings.IndexAny(rest, " ,("); end > 0 {
			return rest[:end]
		}
		return strings.TrimSpace(rest)
	}

	// MySQL: Duplicate entry '...' for key 'ux_organizations_code'
	if idx := strings.Index(msg, "for key '"); idx >= 0 {
		rest := msg[idx+len("for key '"):]
		if end := strings.Index(rest, "'"); end > 0 {
			return rest[:end]
		}
	}

	return ""
}
