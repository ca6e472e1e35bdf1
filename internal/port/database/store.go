// Package database defines the database store port (interface).
package database

import (
	"context"
	"time"

	"github.com/Strob0t/ProposalForge/internal/domain/adjustment"
	"github.com/Strob0t/ProposalForge/internal/domain/agency"
	"github.com/Strob0t/ProposalForge/internal/domain/contact"
	"github.com/Strob0t/ProposalForge/internal/domain/preferences"
	"github.com/Strob0t/ProposalForge/internal/domain/proposal"
	"github.com/Strob0t/ProposalForge/internal/domain/unit"
)

// Store is the port interface for database operations.
// Lookups that find nothing return an error wrapping domain.ErrNotFound.
type Store interface {
	// Agencies
	GetAgency(ctx context.Context, id string) (*agency.Agency, error)
	GetAgencyByLocation(ctx context.Context, locationID string) (*agency.Agency, error)

	// Preferences. CreatePreferences returns domain.ErrConflict when a row
	// for the agency already exists.
	GetPreferences(ctx context.Context, agencyID string) (*preferences.Preferences, error)
	CreatePreferences(ctx context.Context, agencyID string) (*preferences.Preferences, error)
	UpdatePreferences(ctx context.Context, p *preferences.Preferences) (*preferences.Preferences, error)

	// Contacts. FindContactByName returns the oldest match.
	FindContactByExternalID(ctx context.Context, externalID string) (*contact.Contact, error)
	FindContactByName(ctx context.Context, name string) (*contact.Contact, error)
	CreateContact(ctx context.Context, in contact.Input) (*contact.Contact, error)
	UpdateContactName(ctx context.Context, id, name string) error

	// Units
	GetUnit(ctx context.Context, id string) (*unit.Unit, error)
	FindUnitByAddress(ctx context.Context, agencyID string, addr unit.Address) (*unit.Unit, error)
	ReserveUnit(ctx context.Context, id, agencyID string, until time.Time) error

	// Adjustment rates
	ListAdjustmentRates(ctx context.Context, unitID string) ([]adjustment.MonthlyRate, error)
	UpsertAdjustmentRate(ctx context.Context, r *adjustment.MonthlyRate) (*adjustment.MonthlyRate, error)

	// Proposals
	GetProposal(ctx context.Context, id string) (*proposal.Proposal, error)
	ListProposals(ctx context.Context, agencyID string, filter proposal.ListFilter) ([]proposal.Proposal, error)
	CreateProposal(ctx context.Context, p *proposal.Proposal) error
	UpdateProposal(ctx context.Context, p *proposal.Proposal) error

	// Installments
	ListInstallments(ctx context.Context, proposalID string) ([]proposal.Installment, error)
	DeleteInstallments(ctx context.Context, proposalID string) error
	InsertInstallments(ctx context.Context, proposalID string, items []proposal.Installment) error
}
