// Package rbac defines the closed role model and the static permission table
// every role-gated operation is checked against.
package rbac

// Role is the closed set of roles known to the system.
type Role string

// All roles. There is no dynamic role management; the three variants below
// are the entire universe.
const (
	RoleHR       Role = "HR"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleHR, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Actor describes the authenticated user context performing an operation.
// It is resolved once by the auth layer and passed into every service call.
type Actor struct {
	ID          string
	Role        Role
	ManagerID   string
	TeamMembers []string
	Consent     bool
}

// Manages reports whether employeeID is in the actor's direct team-member set.
func (a Actor) Manages(employeeID string) bool {
	for _, id := range a.TeamMembers {
		if id == employeeID {
			return true
		}
	}
	return false
}

// Permission tokens grouped per role. The table is fixed at compile time.
var rolePermissions = map[Role]map[string]struct{}{
	RoleHR: toSet(
		"policy:read",
		"workflow:leave:create",
		"workflow:leave:approve:any",
		"workflow:document:request",
		"workflow:document:fulfill",
		"workflow:onboarding:trigger",
		"governance:manage",
		"analytics:view",
		"users:read",
	),
	RoleManager: toSet(
		"policy:read",
		"workflow:leave:create",
		"workflow:leave:approve:team",
		"workflow:document:request",
		"workflow:onboarding:view",
		"analytics:view",
	),
	RoleEmployee: toSet(
		"policy:read",
		"workflow:leave:create",
		"workflow:document:request",
	),
}

// HasPermission reports whether the role holds the given permission token.
func HasPermission(role Role, permission string) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = perms[permission]
	return ok
}

// Permissions returns the permission tokens held by the role.
func Permissions(role Role) []string {
	perms := rolePermissions[role]
	out := make([]string, 0, len(perms))
	for p := range perms {
		out = append(out, p)
	}
	return out
}

func toSet(perms ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}
