package postgres

import (
	"context"
	"time"

	"github.com/Strob0t/ProposalForge/internal/domain/unit"
)

const unitColumns = `id, agency_id, number, tower, floor, status, reserved_until, updated_at`

func scanUnit(row scannable) (*unit.Unit, error) {
	var u unit.Unit
	if err := row.Scan(&u.ID, &u.AgencyID, &u.Number, &u.Tower, &u.Floor, &u.Status,
		&u.ReservedUntil, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUnit(ctx context.Context, id string) (*unit.Unit, error) {
	u, err := scanUnit(s.pool.QueryRow(ctx,
		`SELECT `+unitColumns+` FROM units WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get unit %s", id)
	}
	return u, nil
}

// FindUnitByAddress matches all three address parts exactly.
func (s *Store) FindUnitByAddress(ctx context.Context, agencyID string, addr unit.Address) (*unit.Unit, error) {
	u, err := scanUnit(s.pool.QueryRow(ctx,
		`SELECT `+unitColumns+` FROM units
		 WHERE agency_id = $1 AND number = $2 AND tower = $3 AND floor = $4
		 ORDER BY id LIMIT 1`,
		agencyID, addr.Number, addr.Tower, addr.Floor))
	if err != nil {
		return nil, notFoundWrap(err, "find unit %s", addr)
	}
	return u, nil
}

func (s *Store) ReserveUnit(ctx context.Context, id, agencyID string, until time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE units SET status = $3, reserved_until = $4, updated_at = NOW()
		 WHERE id = $1 AND agency_id = $2`,
		id, agencyID, string(unit.StatusReserved), until)
	return execExpectOne(tag, err, "reserve unit %s", id)
}
