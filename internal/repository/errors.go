package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a keyed record does not exist.
	ErrNotFound = pgx.ErrNoRows
	// ErrDuplicate is returned when a uniqueness rule rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotPending is returned when a review targets a request that already left pending.
	ErrNotPending = errors.New("access request is not pending")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
