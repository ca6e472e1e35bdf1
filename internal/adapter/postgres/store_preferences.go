package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/ProposalForge/internal/domain/preferences"
)

const preferencesColumns = `id, agency_id, view_proposals, manage_proposals, view_buildings,
	manage_buildings, restrict_proposals_to_creator, created_at, updated_at`

func scanPreferences(row scannable) (*preferences.Preferences, error) {
	var p preferences.Preferences
	var viewProp, manageProp, viewB, manB string
	if err := row.Scan(&p.ID, &p.AgencyID, &viewProp, &manageProp, &viewB, &manB,
		&p.RestrictProposalsToCreator, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		dst *preferences.PermissionSetting
		raw string
	}{
		{&p.ViewProposals, viewProp},
		{&p.ManageProposals, manageProp},
		{&p.ViewBuildings, viewB},
		{&p.ManageBuildings, manB},
	} {
		v, err := preferences.ParsePermissionSetting(f.raw)
		if err != nil {
			return nil, fmt.Errorf("preferences %s: %w", p.ID, err)
		}
		*f.dst = v
	}
	return &p, nil
}

func (s *Store) GetPreferences(ctx context.Context, agencyID string) (*preferences.Preferences, error) {
	p, err := scanPreferences(s.pool.QueryRow(ctx,
		`SELECT `+preferencesColumns+` FROM preferences WHERE agency_id = $1`, agencyID))
	if err != nil {
		return nil, notFoundWrap(err, "get preferences for agency %s", agencyID)
	}
	return p, nil
}

// CreatePreferences inserts a row carrying only the agency reference so
// every setting takes its schema default.
func (s *Store) CreatePreferences(ctx context.Context, agencyID string) (*preferences.Preferences, error) {
	p, err := scanPreferences(s.pool.QueryRow(ctx,
		`INSERT INTO preferences (agency_id) VALUES ($1) RETURNING `+preferencesColumns, agencyID))
	if err != nil {
		return nil, storeErr(err, "create preferences for agency %s", agencyID)
	}
	return p, nil
}

func (s *Store) UpdatePreferences(ctx context.Context, p *preferences.Preferences) (*preferences.Preferences, error) {
	out, err := scanPreferences(s.pool.QueryRow(ctx,
		`UPDATE preferences
		 SET view_proposals = $2, manage_proposals = $3, view_buildings = $4, manage_buildings = $5,
		     restrict_proposals_to_creator = $6, updated_at = NOW()
		 WHERE agency_id = $1
		 RETURNING `+preferencesColumns,
		p.AgencyID, p.ViewProposals.String(), p.ManageProposals.String(), p.ViewBuildings.String(),
		p.ManageBuildings.String(), p.RestrictProposalsToCreator))
	if err != nil {
		return nil, notFoundWrap(err, "update preferences for agency %s", p.AgencyID)
	}
	return out, nil
}
