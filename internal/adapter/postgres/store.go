package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/ProposalForge/internal/port/database"
)

var _ database.Store = (*Store)(nil)

// Store implements database.Store using PostgreSQL. Agency scoping is
// explicit in every method's arguments.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping checks connectivity for health reporting.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
