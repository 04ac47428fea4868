package rbac

import "testing"

func TestPermissionTable(t *testing.T) {
	cases := []struct {
		role       Role
		permission string
		want       bool
	}{
		{RoleHR, "governance:manage", true},
		{RoleHR, "workflow:document:fulfill", true},
		{RoleHR, "workflow:leave:approve:any", true},
		{RoleManager, "workflow:leave:approve:team", true},
		{RoleManager, "governance:manage", false},
		{RoleManager, "workflow:document:fulfill", false},
		{RoleEmployee, "policy:read", true},
		{RoleEmployee, "workflow:leave:create", true},
		{RoleEmployee, "governance:manage", false},
		{RoleEmployee, "workflow:leave:approve:any", false},
		{RoleEmployee, "workflow:leave:approve:team", false},
		{RoleEmployee, "workflow:document:fulfill", false},
		{Role("INTERN"), "policy:read", false},
	}
	for _, tc := range cases {
		if got := HasPermission(tc.role, tc.permission); got != tc.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tc.role, tc.permission, got, tc.want)
		}
	}
}

func TestEmployeeNeverHoldsPrivilegedPermissions(t *testing.T) {
	for _, p := range Permissions(RoleEmployee) {
		switch p {
		case "governance:manage", "workflow:leave:approve:any", "workflow:leave:approve:team", "workflow:document:fulfill":
			t.Fatalf("employee must not hold %s", p)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleHR, RoleManager, RoleEmployee} {
		if !r.Valid() {
			t.Fatalf("expected %s to be valid", r)
		}
	}
	if Role("ADMIN").Valid() {
		t.Fatal("unknown role must not validate")
	}
}

func TestActorManages(t *testing.T) {
	actor := Actor{ID: "u-mgr-001", Role: RoleManager, TeamMembers: []string{"u-emp-001", "u-emp-002"}}
	if !actor.Manages("u-emp-001") {
		t.Fatal("expected manager to manage team member")
	}
	if actor.Manages("u-emp-999") {
		t.Fatal("expected manager not to manage stranger")
	}
}
