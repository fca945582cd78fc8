package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUnavailable marks driver-level connectivity failures so callers can
	// distinguish them from domain errors.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate row")

	// ErrInsufficientStock is returned when a stock reservation cannot be
	// satisfied by the quantity on hand.
	ErrInsufficientStock = errors.New("insufficient stock")
)

const uniqueViolation = "23505"

func wrapErr(op string, err error) error {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
