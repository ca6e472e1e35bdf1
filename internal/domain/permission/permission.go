// Package permission resolves what a role may do under an agency's
// preferences. All functions are pure.
package permission

import (
	"github.com/Strob0t/ProposalForge/internal/domain/preferences"
	"github.com/Strob0t/ProposalForge/internal/domain/user"
)

// Allows reports whether role may act under setting. Admins are always
// allowed; other roles only under AdminAndUser.
func Allows(setting preferences.PermissionSetting, role user.Role) bool {
	if role.IsAdmin() {
		return true
	}
	switch setting {
	case preferences.AdminAndUser:
		return true
	case preferences.AdminOnly:
		return false
	default:
		return false
	}
}

// A nil *Preferences is treated as the zero record: every setting admin-only,
// creator restriction off.
func settings(p *preferences.Preferences) preferences.Preferences {
	if p == nil {
		return preferences.Preferences{}
	}
	return *p
}

// CanViewProposals reports whether role may list and read proposals under p.
func CanViewProposals(p *preferences.Preferences, role user.Role) bool {
	return Allows(settings(p).ViewProposals, role)
}

// CanManageProposals reports whether role may create, update or delete proposals under p.
func CanManageProposals(p *preferences.Preferences, role user.Role) bool {
	return Allows(settings(p).ManageProposals, role)
}

// CanViewBuildings reports whether role may read the unit inventory under p.
func CanViewBuildings(p *preferences.Preferences, role user.Role) bool {
	return Allows(settings(p).ViewBuildings, role)
}

// CanManageBuildings reports whether role may change the unit inventory under p.
func CanManageBuildings(p *preferences.Preferences, role user.Role) bool {
	return Allows(settings(p).ManageBuildings, role)
}

// RestrictProposalsToCreator reports whether role may only manage proposals
// it created. Never true for admins.
func RestrictProposalsToCreator(p *preferences.Preferences, role user.Role) bool {
	if role.IsAdmin() {
		return false
	}
	return settings(p).RestrictProposalsToCreator
}
