package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch subject {
	case SubjectProposalCreated, SubjectProposalUpdated:
		var p ProposalEventPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.ProposalID == "" || p.AgencyID == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("proposal_id and agency_id are required"))
		}
	case SubjectUnitReserved:
		var p UnitReservedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.UnitID == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("unit_id is required"))
		}
	}
	return nil
}
