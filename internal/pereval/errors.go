package pereval

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound reports a record id with no pass record behind it.
var ErrNotFound = errors.New("object not found")

// ValidationError reports a malformed or unparsable submission field.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// PolicyError reports an update the moderation policy forbids: either the
// record is frozen, or an immutable submitter field was changed.
type PolicyError struct {
	Field  string
	Reason string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

const uniqueViolationCode = "23505"

// UniqueViolation reports whether err is a unique-constraint failure and
// names the violated constraint.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	return "", false
}
