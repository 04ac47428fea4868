// Package store owns every mutable record collection. All access goes
// through one mutex so multi-step read-check-write sequences are atomic.
package store

import (
	"time"

	"github.com/meridian-hr/meridian/internal/rbac"
)

// LeaveStatus enumerates the leave request lifecycle.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "PENDING"
	LeaveApproved LeaveStatus = "APPROVED"
	LeaveRejected LeaveStatus = "REJECTED"
)

// DocumentStatus enumerates the document request lifecycle.
type DocumentStatus string

const (
	DocumentRequested DocumentStatus = "REQUESTED"
	DocumentFulfilled DocumentStatus = "FULFILLED"
)

// TaskStatus enumerates onboarding task states.
type TaskStatus string

const (
	TaskOpen TaskStatus = "OPEN"
	TaskDone TaskStatus = "DONE"
)

// User is a seeded account. Users are never structurally deleted; erasure
// anonymizes them in place.
type User struct {
	ID           string
	Username     string
	FullName     string
	Role         rbac.Role
	ManagerID    string
	TeamMembers  []string
	Consent      bool
	PasswordHash string
}

// Actor converts the stored user into the authorization context passed to
// services.
func (u *User) Actor() rbac.Actor {
	members := make([]string, len(u.TeamMembers))
	copy(members, u.TeamMembers)
	return rbac.Actor{
		ID:          u.ID,
		Role:        u.Role,
		ManagerID:   u.ManagerID,
		TeamMembers: members,
		Consent:     u.Consent,
	}
}

// LeaveRequest transitions PENDING -> APPROVED or PENDING -> REJECTED,
// exactly once.
type LeaveRequest struct {
	ID                  string
	EmployeeID          string
	StartDate           time.Time
	EndDate             time.Time
	Reason              string
	Status              LeaveStatus
	PendingApproverRole string
	DecisionNotes       string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DocumentRequest transitions REQUESTED -> FULFILLED, HR only.
type DocumentRequest struct {
	ID           string
	EmployeeID   string
	DocumentType string
	Purpose      string
	Status       DocumentStatus
	RequestedAt  time.Time
	FulfilledAt  *time.Time
}

// OnboardingTask is created in fixed batches of four per trigger, never
// individually.
type OnboardingTask struct {
	ID            string
	EmployeeID    string
	Title         string
	OwnerRole     string
	DueDate       time.Time
	Status        TaskStatus
	TriggerSource string
	CreatedAt     time.Time
}

// PolicyReceipt records a prior policy answer so later feedback submissions
// can be validated. It is never listed back to callers.
type PolicyReceipt struct {
	ID         string
	UserID     string
	Question   string
	Citations  []string
	Confidence float64
}
