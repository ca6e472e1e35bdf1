// Package agency defines the agency tenant scope. Agencies are provisioned by
// the host platform and are read-only here.
package agency

import "time"

// Agency owns units, preferences and proposals.
type Agency struct {
	ID         string    `json:"id"`
	LocationID string    `json:"location_id"` // External location identifier of the host platform
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}
