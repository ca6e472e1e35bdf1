// Package unit defines sellable inventory units and their reservation state.
package unit

import (
	"fmt"
	"time"
)

// Status is the inventory state of a unit.
type Status string

const (
	StatusFree     Status = "free"
	StatusReserved Status = "reserved"
	StatusSold     Status = "sold"
	StatusOther    Status = "other"
)

// ValidStatuses is the set of all valid unit statuses.
var ValidStatuses = map[Status]bool{
	StatusFree:     true,
	StatusReserved: true,
	StatusSold:     true,
	StatusOther:    true,
}

// Unit belongs to exactly one agency. Status only changes by reservation.
type Unit struct {
	ID            string     `json:"id"`
	AgencyID      string     `json:"agency_id"`
	Number        string     `json:"number"`
	Tower         string     `json:"tower"`
	Floor         string     `json:"floor"`
	Status        Status     `json:"status"`
	ReservedUntil *time.Time `json:"reserved_until,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Address identifies a unit inside an agency when no id is known.
// Components are compared by exact string equality.
type Address struct {
	Number string `json:"number"`
	Tower  string `json:"tower"`
	Floor  string `json:"floor"`
}

// Complete reports whether all three components are present.
func (a Address) Complete() bool {
	return a.Number != "" && a.Tower != "" && a.Floor != ""
}

func (a Address) String() string {
	return fmt.Sprintf("tower %s floor %s number %s", a.Tower, a.Floor, a.Number)
}
