package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/Strob0t/ProposalForge/internal/domain"
)

// SQLSTATE codes with a dedicated domain mapping.
const (
	codeUniqueViolation = "23505"
)

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

// nullIfEmpty returns nil for empty strings (for nullable UUID columns).
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullTime converts a nil or zero time to nil for nullable DB columns.
func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}

// orEmpty returns items unchanged if non-nil, or an empty slice if nil.
// Useful to ensure JSON serialization produces [] instead of null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// parseDecimal reads a numeric column selected as text. NULL reads as zero.
func parseDecimal(s *string) (decimal.Decimal, error) {
	if s == nil || *s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*s)
}

// storeErr wraps err for operation op. Unique violations become
// domain.ErrConflict; other server errors become a *domain.StoreError
// carrying the SQLSTATE diagnostics.
func storeErr(err error, format string, args ...any) error {
	op := fmt.Sprintf(format, args...)

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if pgErr.Code == codeUniqueViolation {
		return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, domain.ErrConflict)
	}
	return &domain.StoreError{
		Stage:   op,
		Code:    pgErr.Code,
		Message: pgErr.Message,
		Detail:  pgErr.Detail,
		Hint:    pgErr.Hint,
		Err:     err,
	}
}

// notFoundWrap checks whether err is pgx.ErrNoRows and, if so, wraps
// domain.ErrNotFound with the given message. Otherwise it defers to storeErr.
func notFoundWrap(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrNotFound)
	}
	return storeErr(err, format, args...)
}

// execExpectOne verifies that an Exec affected exactly one row. If not
// (and err is nil), it returns domain.ErrNotFound with the given message.
func execExpectOne(tag pgconn.CommandTag, err error, format string, args ...any) error {
	if err != nil {
		return storeErr(err, format, args...)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrNotFound)
	}
	return nil
}
