// Package governance implements consent gating, subject access, erasure and
// retention for personal data held in workflow records and the event log.
package governance

import (
	"time"

	"github.com/meridian-hr/meridian/internal/rbac"
	"github.com/meridian-hr/meridian/internal/store"
)

// Profile is the externally visible slice of a user record. Credential
// material never leaves the store.
type Profile struct {
	UserID      string
	Username    string
	FullName    string
	Role        rbac.Role
	ManagerID   string
	TeamMembers []string
	Consent     bool
}

// SubjectAccess aggregates everything held about one person.
type SubjectAccess struct {
	UserProfile      Profile
	LeaveRequests    []store.LeaveRequest
	DocumentRequests []store.DocumentRequest
	OnboardingTasks  []store.OnboardingTask
}

// ErasureResult reports an irreversible anonymization.
type ErasureResult struct {
	UserID         string
	AnonymizedAt   time.Time
	RecordsUpdated int
}

// RetentionResult summarizes one retention sweep.
type RetentionResult struct {
	RetentionDays     int
	RemovedEvents     int
	RecordsAnonymized int
}

func profileOf(u *store.User) Profile {
	return Profile{
		UserID:      u.ID,
		Username:    u.Username,
		FullName:    u.FullName,
		Role:        u.Role,
		ManagerID:   u.ManagerID,
		TeamMembers: append([]string(nil), u.TeamMembers...),
		Consent:     u.Consent,
	}
}
