// Package contact defines buyer contacts referenced by proposals.
package contact

import (
	"strings"
	"time"
)

// Contact is a person a proposal is addressed to.
type Contact struct {
	ID         string    `json:"id"`
	ExternalID *string   `json:"external_id,omitempty"` // Identifier in the host CRM, unique when present
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Input is a contact as supplied on a proposal request.
type Input struct {
	Name       string `json:"name"`
	ExternalID string `json:"external_id,omitempty"`
}

// Normalize trims surrounding whitespace from both fields.
func (in Input) Normalize() Input {
	return Input{Name: strings.TrimSpace(in.Name), ExternalID: strings.TrimSpace(in.ExternalID)}
}

// Omitted reports whether the input names no contact.
func (in Input) Omitted() bool {
	return strings.TrimSpace(in.Name) == ""
}
