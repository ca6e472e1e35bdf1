package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/ProposalForge/internal/domain"
	"github.com/Strob0t/ProposalForge/internal/domain/unit"
	"github.com/Strob0t/ProposalForge/internal/port/database"
)

// UnitInventory checks unit ownership and records reservations. A
// reservation is advisory: nothing stops a second proposal on a reserved
// unit, and verify-then-reserve is not atomic.
type UnitInventory struct {
	store database.Store
}

// NewUnitInventory creates a new UnitInventory.
func NewUnitInventory(store database.Store) *UnitInventory {
	return &UnitInventory{store: store}
}

// VerifyOwnership returns the unit when it exists and belongs to agencyID.
// A missing unit and a unit of another agency are reported identically.
func (u *UnitInventory) VerifyOwnership(ctx context.Context, unitID, agencyID string) (*unit.Unit, error) {
	if uuid.Validate(unitID) != nil {
		return nil, fmt.Errorf("unit %q: %w", unitID, domain.ErrUnitNotFoundForAgency)
	}
	found, err := u.store.GetUnit(ctx, unitID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unit %s: %w", unitID, domain.ErrUnitNotFoundForAgency)
		}
		return nil, domain.StageError("resolve unit", err)
	}
	if found.AgencyID != agencyID {
		return nil, fmt.Errorf("unit %s: %w", unitID, domain.ErrUnitNotFoundForAgency)
	}
	return found, nil
}

// FindByAddress resolves a unit by exact number, tower and floor within an
// agency.
func (u *UnitInventory) FindByAddress(ctx context.Context, agencyID string, addr unit.Address) (*unit.Unit, error) {
	found, err := u.store.FindUnitByAddress(ctx, agencyID, addr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", addr, domain.ErrUnitNotFound)
		}
		return nil, domain.StageError("resolve unit", err)
	}
	return found, nil
}

// Reserve marks the unit reserved until the given instant.
func (u *UnitInventory) Reserve(ctx context.Context, unitID, agencyID string, until time.Time) error {
	if err := u.store.ReserveUnit(ctx, unitID, agencyID, until); err != nil {
		return domain.StageError("reserve unit", err)
	}
	return nil
}
