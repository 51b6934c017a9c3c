// Package access holds caller identity, the role permission table and the
// company visibility filter applied to every tenant-scoped query.
package access

import (
	"github.com/xelth-com/eckassets/internal/apperr"
)

// Roles
const (
	RoleSystemAdmin = "system_admin"
	RoleAdmin       = "admin"
	RoleTechnician  = "technician"
)

// Identity is the already-authenticated caller.
type Identity struct {
	UserID    uint   `json:"userId"`
	CompanyID uint   `json:"companyId"`
	Role      string `json:"role"`
}

func (i Identity) IsSystemAdmin() bool {
	return i.Role == RoleSystemAdmin
}

func (i Identity) IsTechnician() bool {
	return i.Role == RoleTechnician
}

// Permission names a single capability.
type Permission string

const (
	AssetsView     Permission = "assets:view"
	AssetsCreate   Permission = "assets:create"
	AssetsEdit     Permission = "assets:edit"
	AssetsDelete   Permission = "assets:delete"
	AssetsStatus   Permission = "assets:status"
	AssetsQR       Permission = "assets:qr"
	AssetsFinance  Permission = "assets:view_financial"
	MaintView      Permission = "maintenance:view"
	MaintCreate    Permission = "maintenance:create"
	MaintEdit      Permission = "maintenance:edit"
	MaintAssign    Permission = "maintenance:assign"
	MaintExecute   Permission = "maintenance:execute"
	MaintDelete    Permission = "maintenance:delete"
	AssignView     Permission = "assignments:view"
	AssignCreate   Permission = "assignments:create"
	AssignEdit     Permission = "assignments:edit"
	RequestsView   Permission = "requests:view"
	RequestsCreate Permission = "requests:create"
	RequestsDecide Permission = "requests:decide"
)

var allPermissions = []Permission{
	AssetsView, AssetsCreate, AssetsEdit, AssetsDelete, AssetsStatus, AssetsQR, AssetsFinance,
	MaintView, MaintCreate, MaintEdit, MaintAssign, MaintExecute, MaintDelete,
	AssignView, AssignCreate, AssignEdit,
	RequestsView, RequestsCreate, RequestsDecide,
}

var technicianPermissions = []Permission{
	AssetsView, AssetsQR, AssetsStatus,
	MaintView, MaintCreate, MaintEdit, MaintExecute,
	AssignView,
	RequestsView, RequestsCreate,
}

// PermissionsFor returns the permission set granted to role.
// Unknown roles get an empty set.
func PermissionsFor(role string) map[Permission]bool {
	set := make(map[Permission]bool)
	var granted []Permission
	switch role {
	case RoleSystemAdmin, RoleAdmin:
		granted = allPermissions
	case RoleTechnician:
		granted = technicianPermissions
	}
	for _, p := range granted {
		set[p] = true
	}
	return set
}

// Can reports whether id holds perm.
func Can(id Identity, perm Permission) bool {
	return PermissionsFor(id.Role)[perm]
}

// Require fails with a forbidden error unless id holds every perm.
func Require(id Identity, perms ...Permission) error {
	granted := PermissionsFor(id.Role)
	for _, p := range perms {
		if !granted[p] {
			return apperr.Forbidden("role %q lacks permission %s", id.Role, p)
		}
	}
	return nil
}
