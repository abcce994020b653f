package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Permission names one guarded action.
type Permission string

// Predefined permissions
const (
	// Orders
	PermOrdersCreate    Permission = "orders.create"
	PermOrdersAttach    Permission = "orders.attach"
	PermOrdersViewAll   Permission = "orders.view_all"
	PermOrdersEdit      Permission = "orders.edit"
	PermOrdersCancelOwn Permission = "orders.cancel_own"
	PermOrdersCancelAny Permission = "orders.cancel_any"

	// Catalog
	PermCatalogEdit Permission = "catalog.edit"

	// Payments
	PermPaymentsEdit Permission = "payments.edit"

	// Users
	PermUsersEditAny      Permission = "users.edit_any"
	PermUsersEditNonAdmin Permission = "users.edit_non_admin"
	PermRolesEdit         Permission = "admin.roles"
	PermStaffCreate       Permission = "staff.create"
)

// RolePermissions is the single role matrix consulted by services and
// middleware.
var RolePermissions = map[Role][]Permission{
	RoleCustomer: {
		PermOrdersCreate, PermOrdersAttach, PermOrdersCancelOwn,
	},
	RoleStaff: {
		PermOrdersViewAll, PermOrdersEdit,
		PermPaymentsEdit,
	},
	RoleManager: {
		PermOrdersViewAll, PermOrdersEdit, PermOrdersCancelAny,
		PermCatalogEdit,
		PermPaymentsEdit,
		PermUsersEditNonAdmin, PermStaffCreate,
	},
	RoleAdmin: {
		PermOrdersViewAll, PermOrdersEdit, PermOrdersCancelAny,
		PermCatalogEdit,
		PermPaymentsEdit,
		PermUsersEditAny, PermUsersEditNonAdmin, PermRolesEdit, PermStaffCreate,
	},
}

// HasPermission reports whether role grants perm.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// RolesWith returns the roles granting perm, in matrix order.
func RolesWith(perm Permission) []Role {
	var roles []Role
	for _, r := range []Role{RoleCustomer, RoleStaff, RoleManager, RoleAdmin} {
		if HasPermission(r, perm) {
			roles = append(roles, r)
		}
	}
	return roles
}

// AuditLog is one row of the audit trail.
type AuditLog struct {
	ID         gocql.UUID `json:"id"`
	UserID     string     `json:"user_id"`
	UserEmail  string     `json:"user_email"`
	Action     string     `json:"action"`
	Resource   string     `json:"resource"`
	ResourceID string     `json:"resource_id,omitempty"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	Success    bool       `json:"success"`
	ErrorMsg   string     `json:"error_msg,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}
