package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vantigo/teamdb/internal/errs"
)

// PostgreSQL SQLSTATE codes the drivers care about.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeUniqueViolation = "23505"
	pgCodeDuplicateDB     = "42P04"
	pgCodeUndefinedTable  = "42P01"
	pgCodeInvalidCatalog  = "3D000" // connecting to a database that does not exist
)

// MapError translates pgx / pgconn native errors into *errs.Error.
// Shared by the self-hosted and supavisor drivers.
func MapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgCodeUniqueViolation, pgErr.Code == pgCodeDuplicateDB:
			return errs.Wrap(errs.ErrKindAlreadyExists, msg, err)
		case pgErr.Code == pgCodeUndefinedTable, pgErr.Code == pgCodeInvalidCatalog:
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08": // Class 08 — connection errors
			return errs.Wrap(errs.ErrKindExternal, msg, err)
		default:
			return errs.Wrap(errs.ErrKindQueryFailed,
				fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
		}
	}

	// Connection-level errors (TLS, network, auth).
	return errs.Wrap(errs.ErrKindExternal, msg, err)
}
