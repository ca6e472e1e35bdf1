package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/ProposalForge/internal/domain"
	"github.com/Strob0t/ProposalForge/internal/domain/user"
)

// authenticate rejects a missing or incomplete caller identity.
func authenticate(c *user.Caller) error {
	if c == nil {
		return fmt.Errorf("no caller identity: %w", domain.ErrUnauthenticated)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	return nil
}

func errorCode(err error) string { return domain.Code(err) }

// logFailure records a failed operation at debug level. The transport that
// surfaces err to a client owns the error-level record.
func logFailure(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "code", errorCode(err), "error", err)
	var se *domain.StoreError
	if errors.As(err, &se) {
		args = append(args, "stage", se.Stage, "sqlstate", se.Code)
	}
	slog.DebugContext(ctx, msg, args...)
}
