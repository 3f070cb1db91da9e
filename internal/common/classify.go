package common

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the store cares about.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgConnectionClass      = "08"
)

// Classify maps a store error onto the service taxonomy. Errors that already
// carry a category are returned unchanged; otherwise the category is wrapped
// around the original, which stays reachable through errors.As.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, c := range []error{ErrorInvalidInput, ErrorConflict, ErrorUnauthorized, ErrorTransient, ErrorInternal} {
		if errors.Is(err, c) {
			return err
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return fmt.Errorf("%w: %w", ErrorConflict, err)
		case pgErr.Code == pgSerializationFailure, pgErr.Code == pgDeadlockDetected,
			strings.HasPrefix(pgErr.Code, pgConnectionClass):
			return fmt.Errorf("%w: %w", ErrorTransient, err)
		}
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %w", ErrorTransient, err)
	}

	return fmt.Errorf("%w: %w", ErrorInternal, err)
}

// IsConcurrentUpdate reports whether err is a serialization failure or a
// deadlock, i.e. the transaction lost a race with another writer of the
// same rows.
func IsConcurrentUpdate(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}
