package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Strob0t/ProposalForge/internal/domain"
	"github.com/Strob0t/ProposalForge/internal/domain/adjustment"
	"github.com/Strob0t/ProposalForge/internal/domain/preferences"
	"github.com/Strob0t/ProposalForge/internal/domain/unit"
)

func newAdjustmentFixture(t *testing.T) (*AdjustmentService, *mockStore, string, string) {
	t.Helper()
	store := newMockStore()
	agencyID := store.seedAgency("A1")
	unitID := store.seedUnit(agencyID, unit.Address{Number: "1", Tower: "A", Floor: "1"})
	prefs := NewPreferencesService(store, nil, time.Minute)
	return NewAdjustmentService(store, prefs, NewUnitInventory(store)), store, agencyID, unitID
}

func TestAdjustmentService_UpsertAndTable(t *testing.T) {
	svc, _, _, unitID := newAdjustmentFixture(t)
	ctx := context.Background()

	rate := adjustment.MonthlyRate{
		Year:     2024,
		January:  decimal.RequireFromString("0.01"),
		February: decimal.RequireFromString("0.02"),
	}
	saved, err := svc.Upsert(ctx, admin, "A1", unitID, rate)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if saved.UnitID != unitID {
		t.Errorf("expected unit id stamped, got %q", saved.UnitID)
	}

	table, err := svc.Table(ctx, admin, "A1", unitID)
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if table.TotalDisplay != "3.02%" {
		t.Errorf("expected 3.02%%, got %s", table.TotalDisplay)
	}
	if len(table.Rows) != 1 || table.Rows[0].Months[0] != "1.00%" || table.Rows[0].Months[2] != adjustment.Placeholder {
		t.Errorf("unexpected rows %+v", table.Rows)
	}
}

func TestAdjustmentService_UpsertRoundsToScale(t *testing.T) {
	svc, store, _, unitID := newAdjustmentFixture(t)

	_, err := svc.Upsert(context.Background(), admin, "A1", unitID, adjustment.MonthlyRate{
		Year:  2024,
		March: decimal.RequireFromString("0.123456785"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := store.rates[0].March; !got.Equal(decimal.RequireFromString("0.12345679")) {
		t.Errorf("expected half-up rounding to 0.12345679, got %s", got)
	}
}

func TestAdjustmentService_Permissions(t *testing.T) {
	svc, store, agencyID, unitID := newAdjustmentFixture(t)
	ctx := context.Background()

	if _, err := svc.Table(ctx, member, "A1", unitID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected view forbidden under admin-only, got %v", err)
	}

	store.seedPrefs(agencyID, func(p *preferences.Preferences) { p.ViewBuildings = preferences.AdminAndUser })

	if _, err := svc.Table(ctx, member, "A1", unitID); err != nil {
		t.Errorf("expected view allowed, got %v", err)
	}
	if _, err := svc.Upsert(ctx, member, "A1", unitID, adjustment.MonthlyRate{Year: 2024}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected manage forbidden, got %v", err)
	}
	if _, err := svc.Table(ctx, nil, "A1", unitID); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAdjustmentService_Rejections(t *testing.T) {
	svc, store, _, _ := newAdjustmentFixture(t)
	ctx := context.Background()
	b := store.seedAgency("B2")
	foreign := store.seedUnit(b, unit.Address{Number: "9", Tower: "Z", Floor: "9"})

	if _, err := svc.Table(ctx, admin, "A1", foreign); !errors.Is(err, domain.ErrUnitNotFoundForAgency) {
		t.Errorf("expected ErrUnitNotFoundForAgency, got %v", err)
	}

	_, err := svc.Upsert(ctx, admin, "A1", foreign, adjustment.MonthlyRate{Year: 1800})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for out-of-range year, got %v", err)
	}
}
