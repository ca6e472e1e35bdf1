// Package preferences defines the per-agency authorization configuration.
package preferences

import (
	"fmt"
	"time"
)

// PermissionSetting selects which roles may perform a class of operations.
// The zero value is AdminOnly, the conservative default.
type PermissionSetting uint8

const (
	AdminOnly PermissionSetting = iota
	AdminAndUser
)

const (
	adminOnlyText    = "admin-only"
	adminAndUserText = "admin-and-user"
	legacyAdminText  = "admin" // written by older clients, same meaning as admin-only
)

// ParsePermissionSetting converts the wire or storage form into a setting.
func ParsePermissionSetting(s string) (PermissionSetting, error) {
	switch s {
	case adminOnlyText, legacyAdminText:
		return AdminOnly, nil
	case adminAndUserText:
		return AdminAndUser, nil
	default:
		return AdminOnly, fmt.Errorf("invalid permission setting %q: must be %s or %s", s, adminOnlyText, adminAndUserText)
	}
}

func (p PermissionSetting) String() string {
	switch p {
	case AdminOnly:
		return adminOnlyText
	case AdminAndUser:
		return adminAndUserText
	default:
		return fmt.Sprintf("PermissionSetting(%d)", uint8(p))
	}
}

// Valid reports whether p is one of the two declared settings.
func (p PermissionSetting) Valid() bool {
	return p == AdminOnly || p == AdminAndUser
}

// MarshalText implements encoding.TextMarshaler.
func (p PermissionSetting) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid permission setting %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PermissionSetting) UnmarshalText(b []byte) error {
	v, err := ParsePermissionSetting(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Preferences is the one-per-agency permission record.
type Preferences struct {
	ID                         string            `json:"id"`
	AgencyID                   string            `json:"agency_id"`
	ViewProposals              PermissionSetting `json:"view_proposals"`
	ManageProposals            PermissionSetting `json:"manage_proposals"`
	ViewBuildings              PermissionSetting `json:"view_buildings"`
	ManageBuildings            PermissionSetting `json:"manage_buildings"`
	RestrictProposalsToCreator bool              `json:"restrict_proposals_to_creator"`
	CreatedAt                  time.Time         `json:"created_at"`
	UpdatedAt                  time.Time         `json:"updated_at"`
}

// UpdateRequest holds the preference fields to change. Nil fields keep their
// stored value.
type UpdateRequest struct {
	ViewProposals              *PermissionSetting `json:"view_proposals,omitempty"`
	ManageProposals            *PermissionSetting `json:"manage_proposals,omitempty"`
	ViewBuildings              *PermissionSetting `json:"view_buildings,omitempty"`
	ManageBuildings            *PermissionSetting `json:"manage_buildings,omitempty"`
	RestrictProposalsToCreator *bool              `json:"restrict_proposals_to_creator,omitempty"`
}

// Apply copies the supplied fields of req onto p.
func (p *Preferences) Apply(req UpdateRequest) {
	if req.ViewProposals != nil {
		p.ViewProposals = *req.ViewProposals
	}
	if req.ManageProposals != nil {
		p.ManageProposals = *req.ManageProposals
	}
	if req.ViewBuildings != nil {
		p.ViewBuildings = *req.ViewBuildings
	}
	if req.ManageBuildings != nil {
		p.ManageBuildings = *req.ManageBuildings
	}
	if req.RestrictProposalsToCreator != nil {
		p.RestrictProposalsToCreator = *req.RestrictProposalsToCreator
	}
}

// Empty reports whether the request changes nothing.
func (r UpdateRequest) Empty() bool {
	return r.ViewProposals == nil && r.ManageProposals == nil && r.ViewBuildings == nil &&
		r.ManageBuildings == nil && r.RestrictProposalsToCreator == nil
}
