package postgres

import (
	"context"

	"github.com/Strob0t/ProposalForge/internal/domain/agency"
)

const agencyColumns = `id, location_id, name, created_at`

func scanAgency(row scannable) (*agency.Agency, error) {
	var a agency.Agency
	if err := row.Scan(&a.ID, &a.LocationID, &a.Name, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetAgency(ctx context.Context, id string) (*agency.Agency, error) {
	a, err := scanAgency(s.pool.QueryRow(ctx,
		`SELECT `+agencyColumns+` FROM agencies WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get agency %s", id)
	}
	return a, nil
}

func (s *Store) GetAgencyByLocation(ctx context.Context, locationID string) (*agency.Agency, error) {
	a, err := scanAgency(s.pool.QueryRow(ctx,
		`SELECT `+agencyColumns+` FROM agencies WHERE location_id = $1`, locationID))
	if err != nil {
		return nil, notFoundWrap(err, "get agency for location %s", locationID)
	}
	return a, nil
}
