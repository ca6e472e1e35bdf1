// Package user defines caller identity and roles as resolved by the host
// platform's authentication bridge.
package user

import "errors"

// Role represents the authorization level of a caller within an agency.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ValidRoles is the set of all valid caller roles.
var ValidRoles = map[Role]bool{
	RoleAdmin: true,
	RoleUser:  true,
}

// IsAdmin reports whether the role is the agency administrator role.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Caller is the authenticated identity performing a request.
type Caller struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Validate checks that the caller carries an identity and a known role.
func (c *Caller) Validate() error {
	if c.ID == "" {
		return errors.New("caller id is required")
	}
	if !ValidRoles[c.Role] {
		return errors.New("invalid role: must be admin or user")
	}
	return nil
}
