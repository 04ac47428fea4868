package store

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-hr/meridian/internal/rbac"
)

type seedUser struct {
	id          string
	username    string
	fullName    string
	role        rbac.Role
	managerID   string
	teamMembers []string
	password    string
}

// Demo-grade accounts. The credential set matches the shipped dataset so the
// API is usable immediately after boot.
var seedUsers = []seedUser{
	{
		id:          "u-hr-001",
		username:    "hr_admin",
		fullName:    "Avery Jordan",
		role:        rbac.RoleHR,
		teamMembers: []string{"u-mgr-001", "u-emp-001", "u-emp-002"},
		password:    "hr123",
	},
	{
		id:          "u-mgr-001",
		username:    "mgr_jane",
		fullName:    "Jane Rivera",
		role:        rbac.RoleManager,
		managerID:   "u-hr-001",
		teamMembers: []string{"u-emp-001", "u-emp-002"},
		password:    "manager123",
	},
	{
		id:        "u-emp-001",
		username:  "emp_alex",
		fullName:  "Alex Kim",
		role:      rbac.RoleEmployee,
		managerID: "u-mgr-001",
		password:  "employee123",
	},
	{
		id:        "u-emp-002",
		username:  "emp_sam",
		fullName:  "Sam Patel",
		role:      rbac.RoleEmployee,
		managerID: "u-mgr-001",
		password:  "employee456",
	},
}

// Seed populates the store with the demo accounts. It is a no-op when users
// already exist.
func (s *Store) Seed() error {
	hashed := make([]string, len(seedUsers))
	for i, su := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("store: hash seed password for %s: %w", su.id, err)
		}
		hashed[i] = string(hash)
	}
	return s.Update(func(state *State) error {
		if len(state.Users) > 0 {
			return nil
		}
		for i, su := range seedUsers {
			state.Users[su.id] = &User{
				ID:           su.id,
				Username:     su.username,
				FullName:     su.fullName,
				Role:         su.role,
				ManagerID:    su.managerID,
				TeamMembers:  append([]string(nil), su.teamMembers...),
				Consent:      true,
				PasswordHash: hashed[i],
			}
		}
		return nil
	})
}
