package messagequeue

import "time"

// ProposalEventPayload is the schema for proposals.created and
// proposals.updated messages.
type ProposalEventPayload struct {
	ProposalID       string    `json:"proposal_id"`
	AgencyID         string    `json:"agency_id"`
	OpportunityID    string    `json:"opportunity_id"`
	UnitID           string    `json:"unit_id"`
	InstallmentCount int       `json:"installment_count"`
	ActorID          string    `json:"actor_id"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// UnitReservedPayload is the schema for units.reserved messages.
type UnitReservedPayload struct {
	UnitID        string    `json:"unit_id"`
	AgencyID      string    `json:"agency_id"`
	ProposalID    string    `json:"proposal_id"`
	ReservedUntil time.Time `json:"reserved_until"`
}
