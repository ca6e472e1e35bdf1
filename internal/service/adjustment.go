package service

import (
	"context"
	"fmt"

	"github.com/Strob0t/ProposalForge/internal/domain"
	"github.com/Strob0t/ProposalForge/internal/domain/adjustment"
	"github.com/Strob0t/ProposalForge/internal/domain/permission"
	"github.com/Strob0t/ProposalForge/internal/domain/preferences"
	"github.com/Strob0t/ProposalForge/internal/domain/user"
	"github.com/Strob0t/ProposalForge/internal/port/database"
)

// AdjustmentService serves the monthly adjustment-rate history of units.
// Reads require the view-buildings permission, writes manage-buildings.
type AdjustmentService struct {
	store database.Store
	prefs *PreferencesService
	units *UnitInventory
}

// NewAdjustmentService creates a new AdjustmentService.
func NewAdjustmentService(store database.Store, prefs *PreferencesService, units *UnitInventory) *AdjustmentService {
	return &AdjustmentService{store: store, prefs: prefs, units: units}
}

// Table returns the rendered rate history of a unit owned by the caller's
// agency.
func (s *AdjustmentService) Table(ctx context.Context, caller *user.Caller, locationID, unitID string) (*adjustment.Table, error) {
	agencyID, err := s.authorize(ctx, caller, locationID, permission.CanViewBuildings)
	if err != nil {
		return nil, err
	}
	if _, err := s.units.VerifyOwnership(ctx, unitID, agencyID); err != nil {
		return nil, err
	}
	return s.History(ctx, unitID)
}

// History renders a unit's rate history without authorization. Callers are
// trusted operators.
func (s *AdjustmentService) History(ctx context.Context, unitID string) (*adjustment.Table, error) {
	records, err := s.store.ListAdjustmentRates(ctx, unitID)
	if err != nil {
		return nil, domain.StageError("list adjustment rates", err)
	}
	t := adjustment.BuildTable(unitID, records)
	return &t, nil
}

// Upsert stores one year of rates for a unit owned by the caller's agency.
// Rates are rounded to adjustment.Scale decimals before storage.
func (s *AdjustmentService) Upsert(ctx context.Context, caller *user.Caller, locationID, unitID string, rate adjustment.MonthlyRate) (*adjustment.MonthlyRate, error) {
	agencyID, err := s.authorize(ctx, caller, locationID, permission.CanManageBuildings)
	if err != nil {
		return nil, err
	}
	if err := rate.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", &domain.ValidationError{Invalid: []string{"rates"}}, err)
	}
	if _, err := s.units.VerifyOwnership(ctx, unitID, agencyID); err != nil {
		return nil, err
	}

	months := rate.Months()
	for i := range months {
		months[i] = adjustment.Round8(months[i])
	}
	rate.SetMonths(months)
	rate.UnitID = unitID

	saved, err := s.store.UpsertAdjustmentRate(ctx, &rate)
	if err != nil {
		return nil, domain.StageError("upsert adjustment rate", err)
	}
	return saved, nil
}

func (s *AdjustmentService) authorize(
	ctx context.Context,
	caller *user.Caller,
	locationID string,
	allowed func(*preferences.Preferences, user.Role) bool,
) (string, error) {
	if err := authenticate(caller); err != nil {
		return "", err
	}
	a, p, err := s.prefs.GetForLocation(ctx, locationID)
	if err != nil {
		return "", err
	}
	if !allowed(p, caller.Role) {
		return "", fmt.Errorf("buildings: %w", domain.ErrForbidden)
	}
	return a.ID, nil
}
