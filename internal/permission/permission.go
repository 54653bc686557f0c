// Package permission implements the static role/permission model: per-role
// permission sets with wildcard matching, the role hierarchy, and the
// sensitive-operation sets used by the step-up authentication gates.
//
// All tables are immutable package-level data loaded once at init; nothing in
// this package mutates state after startup.
package permission

import (
	"strings"

	"platepos/internal/model"
)

// Wildcard grants every permission; a "resource:*" entry grants every action
// on that resource.
const Wildcard = "*"

// rolePermissions is the static role → permission-set table.
// Permission strings follow the resource:action convention.
var rolePermissions = map[model.Role][]string{
	model.RoleAdmin: {Wildcard},
	model.RoleManager: {
		"orders:*",
		"users:read",
		"users:create",
		"users:update",
		"users:deactivate",
		"reports:read",
		"reports:export",
	},
	model.RoleWaiter: {
		"orders:create",
		"orders:read",
		"orders:update",
		"orders:status",
	},
	model.RoleKitchen: {
		"orders:read",
		"orders:status",
	},
	model.RoleCustomer: {
		"orders:create",
		"orders:read",
	},
}

// roleLevels is the static hierarchy. Unknown roles resolve to 0 and
// therefore fail every level gate.
var roleLevels = map[model.Role]int{
	model.RoleCustomer: 1,
	model.RoleKitchen:  2,
	model.RoleWaiter:   3,
	model.RoleManager:  4,
	model.RoleAdmin:    5,
}

// HasPermission resolves whether role (plus identity-specific extra grants)
// satisfies the requested permission. Resolution order: admin short-circuit,
// role wildcard, exact role match, resource:* role match, exact extra match.
func HasPermission(role model.Role, perm string, extra ...string) bool {
	if role == model.RoleAdmin {
		return true
	}
	perms := rolePermissions[role]
	for _, p := range perms {
		if p == Wildcard || p == perm {
			return true
		}
	}
	// resource:* covers every action on the resource. A permission string
	// without a colon has no resource part and skips this check.
	if resource, _, found := strings.Cut(perm, ":"); found {
		wild := resource + ":" + Wildcard
		for _, p := range perms {
			if p == wild {
				return true
			}
		}
	}
	for _, p := range extra {
		if p == perm {
			return true
		}
	}
	return false
}

// UserPermissions returns the de-duplicated union of the role's permission set
// and the extra grants. Introspection only — enforcement goes through
// HasPermission.
func UserPermissions(role model.Role, extra ...string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(rolePermissions[role])+len(extra))
	for _, p := range rolePermissions[role] {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range extra {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Level returns the hierarchy level of a role (0 for unknown roles).
func Level(role model.Role) int {
	return roleLevels[role]
}

// AtLeast reports whether role sits at or above the minimum role's level.
func AtLeast(role, minimum model.Role) bool {
	return roleLevels[role] >= roleLevels[minimum]
}
