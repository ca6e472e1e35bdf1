// Package proposal defines sales proposals and their payment schedules.
package proposal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Strob0t/ProposalForge/internal/domain/contact"
	"github.com/Strob0t/ProposalForge/internal/domain/unit"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Proposal links an opportunity to a unit, contacts and a payment plan.
type Proposal struct {
	ID                 string        `json:"id"`
	AgencyID           string        `json:"agency_id"`
	OpportunityID      string        `json:"opportunity_id"`
	ProposalDate       string        `json:"proposal_date"`
	PrimaryContactID   string        `json:"primary_contact_id"`
	SecondaryContactID *string       `json:"secondary_contact_id,omitempty"`
	UnitID             string        `json:"unit_id"`
	ResponsibleName    string        `json:"responsible_name"`
	DisplayName        string        `json:"display_name"`
	ReservedUntil      *time.Time    `json:"reserved_until,omitempty"`
	CreatedBy          string        `json:"created_by"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	Installments       []Installment `json:"installments,omitempty"`
}

// Installment is one line of a proposal's payment plan. Rows reference
// their proposal only by id.
type Installment struct {
	ID                   string          `json:"id,omitempty"`
	ProposalID           string          `json:"proposal_id,omitempty"`
	Position             int             `json:"position"`
	Type                 string          `json:"type"`
	AmountPerInstallment decimal.Decimal `json:"amount_per_installment"`
	InstallmentsCount    int             `json:"installments_count"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	StartDate            string          `json:"start_date"`
}

// InstallmentInput is an installment as supplied by the client.
type InstallmentInput struct {
	Type                 string          `json:"type" validate:"required"`
	AmountPerInstallment decimal.Decimal `json:"amount_per_installment"`
	InstallmentsCount    int             `json:"installments_count" validate:"gte=1"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	StartDate            string          `json:"start_date" validate:"required,datetime=2006-01-02"`
}

// Request is the body of create and update calls. AgencyID is the agency's
// external location id and is ignored on update.
type Request struct {
	AgencyID         string             `json:"agency_id"`
	OpportunityID    string             `json:"opportunity_id" validate:"required"`
	ProposalDate     string             `json:"proposal_date" validate:"required,datetime=2006-01-02"`
	ResponsibleName  string             `json:"responsible_name" validate:"required"`
	DisplayName      string             `json:"display_name"`
	UnitID           string             `json:"unit_id"`
	Unit             *unit.Address      `json:"unit,omitempty"`
	PrimaryContact   contact.Input      `json:"primary_contact"`
	SecondaryContact *contact.Input     `json:"secondary_contact,omitempty"`
	Installments     []InstallmentInput `json:"installments" validate:"dive"`
	ReservedUntil    *time.Time         `json:"reserved_until,omitempty"`
	Reserve          *bool              `json:"reserve,omitempty"` // Defaults to true
}

// UnitAddress returns the supplied address, or the zero address.
func (r *Request) UnitAddress() unit.Address {
	if r.Unit == nil {
		return unit.Address{}
	}
	return *r.Unit
}

// WantsReservation reports whether the unit should be reserved after save.
func (r *Request) WantsReservation() bool {
	if r.ReservedUntil == nil {
		return false
	}
	return r.Reserve == nil || *r.Reserve
}

// BuildInstallments numbers the requested installments in request order.
func (r *Request) BuildInstallments(proposalID string) []Installment {
	out := make([]Installment, 0, len(r.Installments))
	for i, in := range r.Installments {
		out = append(out, Installment{
			ProposalID:           proposalID,
			Position:             i,
			Type:                 in.Type,
			AmountPerInstallment: in.AmountPerInstallment,
			InstallmentsCount:    in.InstallmentsCount,
			TotalAmount:          in.TotalAmount,
			StartDate:            in.StartDate,
		})
	}
	return out
}

// ListFilter narrows proposal listings within an agency.
type ListFilter struct {
	UnitID    string
	CreatedBy string
	Limit     int
	Offset    int
}

// DefaultListLimit caps listings when no limit is given.
const DefaultListLimit = 50
