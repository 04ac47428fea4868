// Package workflow implements the leave, document and onboarding state
// machines. Every mutation is gated on role and ownership, runs atomically
// under the store lock, and appends to the event log on success.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-hr/meridian/internal/eventlog"
	"github.com/meridian-hr/meridian/internal/platform/httpx"
	"github.com/meridian-hr/meridian/internal/rbac"
	"github.com/meridian-hr/meridian/internal/store"
)

// TriggerSource tags tasks created by the onboarding batch.
const TriggerSource = "ONBOARDING_TRIGGER"

// clearedApproverRole marks a decided leave request.
const clearedApproverRole = "-"

// CreateLeaveInput carries validated parameters for a new leave request.
type CreateLeaveInput struct {
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

// DecideLeaveInput carries a leave decision.
type DecideLeaveInput struct {
	Approve bool
	Notes   string
}

// CreateDocumentInput carries parameters for a new document request.
type CreateDocumentInput struct {
	DocumentType string
	Purpose      string
}

// taskTemplate is one of the four fixed onboarding templates.
type taskTemplate struct {
	title     string
	ownerRole string
	dueOffset int
}

var onboardingTemplates = []taskTemplate{
	{title: "Complete I-9 verification", ownerRole: "HR", dueOffset: 0},
	{title: "Provision laptop and access accounts", ownerRole: "IT", dueOffset: 1},
	{title: "Schedule manager orientation", ownerRole: "MANAGER", dueOffset: 2},
	{title: "Acknowledge code of conduct", ownerRole: "EMPLOYEE", dueOffset: 1},
}

// ConsentChecker gates operations that process personal data.
type ConsentChecker interface {
	EnsureConsent(actor rbac.Actor, purpose string) error
}

// Service orchestrates the workflow state machines.
type Service struct {
	store      *store.Store
	log        *eventlog.Log
	governance ConsentChecker
	now        func() time.Time
}

// NewService constructs a workflow Service.
func NewService(st *store.Store, log *eventlog.Log, governance ConsentChecker) *Service {
	return &Service{store: st, log: log, governance: governance, now: time.Now}
}

func newID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// CreateLeave files a new leave request in PENDING status. The approver-role
// hint is MANAGER for employee requesters, HR otherwise.
func (s *Service) CreateLeave(ctx context.Context, actor rbac.Actor, in CreateLeaveInput) (store.LeaveRequest, error) {
	if err := s.governance.EnsureConsent(actor, "leave_request"); err != nil {
		return store.LeaveRequest{}, err
	}
	if in.EndDate.Before(in.StartDate) {
		return store.LeaveRequest{}, fmt.Errorf("workflow: leave end_date before start_date: %w", httpx.ErrValidation)
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if in.StartDate.Before(today.AddDate(0, 0, -1)) {
		return store.LeaveRequest{}, fmt.Errorf("workflow: leave start_date cannot be in the past: %w", httpx.ErrValidation)
	}

	approverRole := "HR"
	if actor.Role == rbac.RoleEmployee {
		approverRole = "MANAGER"
	}

	now := s.now().UTC()
	row := store.LeaveRequest{
		ID:                  newID("leave"),
		EmployeeID:          actor.ID,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		Reason:              in.Reason,
		Status:              store.LeavePending,
		PendingApproverRole: approverRole,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.store.Update(func(state *store.State) error {
		state.LeaveRequests[row.ID] = &row
		return nil
	}); err != nil {
		return store.LeaveRequest{}, err
	}

	if err := s.log.Append("workflow_action", actor.ID, string(actor.Role), map[string]any{
		"action":     "leave_created",
		"request_id": row.ID,
		"count":      1,
	}); err != nil {
		return store.LeaveRequest{}, err
	}
	if err := s.log.Append("automation_event", actor.ID, string(actor.Role), map[string]any{
		"action":               "leave_auto_routed",
		"request_id":           row.ID,
		"action_count":         1,
		"target_approver_role": approverRole,
	}); err != nil {
		return store.LeaveRequest{}, err
	}
	return row, nil
}

// DecideLeave approves or rejects a pending request. A manager may only
// decide requests for their direct team members; HR may decide any. The
// read-check-write runs without releasing the store lock so a second
// concurrent decision always observes the terminal status and fails.
func (s *Service) DecideLeave(ctx context.Context, actor rbac.Actor, requestID string, in DecideLeaveInput) (store.LeaveRequest, error) {
	var decided store.LeaveRequest
	err := s.store.Update(func(state *store.State) error {
		row, ok := state.LeaveRequests[requestID]
		if !ok {
			return fmt.Errorf("workflow: leave request %s: %w", requestID, httpx.ErrNotFound)
		}
		if row.Status != store.LeavePending {
			return fmt.Errorf("workflow: leave request is not pending: %w", httpx.ErrValidation)
		}
		switch actor.Role {
		case rbac.RoleHR:
		case rbac.RoleManager:
			if !actor.Manages(row.EmployeeID) {
				return fmt.Errorf("workflow: manager can only approve team member leave: %w", httpx.ErrForbidden)
			}
		default:
			return fmt.Errorf("workflow: only manager or HR can decide leave: %w", httpx.ErrForbidden)
		}

		if in.Approve {
			row.Status = store.LeaveApproved
		} else {
			row.Status = store.LeaveRejected
		}
		row.DecisionNotes = in.Notes
		row.PendingApproverRole = clearedApproverRole
		row.UpdatedAt = s.now().UTC()
		decided = *row
		return nil
	})
	if err != nil {
		return store.LeaveRequest{}, err
	}

	if err := s.log.Append("workflow_action", actor.ID, string(actor.Role), map[string]any{
		"action":     "leave_decision",
		"request_id": requestID,
		"decision":   string(decided.Status),
		"count":      1,
	}); err != nil {
		return store.LeaveRequest{}, err
	}
	return decided, nil
}

// ListLeaves returns the requests the actor may see: HR all, managers their
// team plus themself, employees only their own.
func (s *Service) ListLeaves(ctx context.Context, actor rbac.Actor) ([]store.LeaveRequest, error) {
	var rows []store.LeaveRequest
	err := s.store.View(func(state *store.State) error {
		for _, row := range state.LeaveRequests {
			if visibleTo(actor, row.EmployeeID) {
				rows = append(rows, *row)
			}
		}
		return nil
	})
	return rows, err
}

// CreateDocument files a document request in REQUESTED status.
func (s *Service) CreateDocument(ctx context.Context, actor rbac.Actor, in CreateDocumentInput) (store.DocumentRequest, error) {
	if err := s.governance.EnsureConsent(actor, "document_request"); err != nil {
		return store.DocumentRequest{}, err
	}

	row := store.DocumentRequest{
		ID:           newID("doc"),
		EmployeeID:   actor.ID,
		DocumentType: in.DocumentType,
		Purpose:      in.Purpose,
		Status:       store.DocumentRequested,
		RequestedAt:  s.now().UTC(),
	}
	if err := s.store.Update(func(state *store.State) error {
		state.DocumentRequests[row.ID] = &row
		return nil
	}); err != nil {
		return store.DocumentRequest{}, err
	}

	if err := s.log.Append("workflow_action", actor.ID, string(actor.Role), map[string]any{
		"action":     "document_requested",
		"request_id": row.ID,
		"count":      1,
	}); err != nil {
		return store.DocumentRequest{}, err
	}
	return row, nil
}

// FulfillDocument marks a request FULFILLED and stamps the fulfillment time.
// HR only. Re-fulfilling overwrites the timestamp rather than failing; the
// one-way REQUESTED->FULFILLED transition is never reversed.
func (s *Service) FulfillDocument(ctx context.Context, actor rbac.Actor, requestID string) (store.DocumentRequest, error) {
	if actor.Role != rbac.RoleHR {
		return store.DocumentRequest{}, fmt.Errorf("workflow: only HR can fulfill document requests: %w", httpx.ErrForbidden)
	}

	var fulfilled store.DocumentRequest
	err := s.store.Update(func(state *store.State) error {
		row, ok := state.DocumentRequests[requestID]
		if !ok {
			return fmt.Errorf("workflow: document request %s: %w", requestID, httpx.ErrNotFound)
		}
		now := s.now().UTC()
		row.Status = store.DocumentFulfilled
		row.FulfilledAt = &now
		fulfilled = *row
		return nil
	})
	if err != nil {
		return store.DocumentRequest{}, err
	}

	if err := s.log.Append("workflow_action", actor.ID, string(actor.Role), map[string]any{
		"action":     "document_fulfilled",
		"request_id": requestID,
		"count":      1,
	}); err != nil {
		return store.DocumentRequest{}, err
	}
	return fulfilled, nil
}

// ListDocuments mirrors leave request visibility.
func (s *Service) ListDocuments(ctx context.Context, actor rbac.Actor) ([]store.DocumentRequest, error) {
	var rows []store.DocumentRequest
	err := s.store.View(func(state *store.State) error {
		for _, row := range state.DocumentRequests {
			if visibleTo(actor, row.EmployeeID) {
				rows = append(rows, *row)
			}
		}
		return nil
	})
	return rows, err
}

// TriggerOnboarding creates the four fixed onboarding tasks for the employee,
// all OPEN, due at startDate plus each template's offset. HR only. The batch
// is inserted atomically under the store lock.
func (s *Service) TriggerOnboarding(ctx context.Context, actor rbac.Actor, employeeID string, startDate time.Time) ([]store.OnboardingTask, error) {
	if actor.Role != rbac.RoleHR {
		return nil, fmt.Errorf("workflow: only HR can trigger onboarding: %w", httpx.ErrForbidden)
	}

	now := s.now().UTC()
	created := make([]store.OnboardingTask, 0, len(onboardingTemplates))
	err := s.store.Update(func(state *store.State) error {
		if _, ok := state.Users[employeeID]; !ok {
			return fmt.Errorf("workflow: employee %s: %w", employeeID, httpx.ErrNotFound)
		}
		for _, tpl := range onboardingTemplates {
			task := store.OnboardingTask{
				ID:            newID("onb"),
				EmployeeID:    employeeID,
				Title:         tpl.title,
				OwnerRole:     tpl.ownerRole,
				DueDate:       startDate.AddDate(0, 0, tpl.dueOffset),
				Status:        store.TaskOpen,
				TriggerSource: TriggerSource,
				CreatedAt:     now,
			}
			state.OnboardingTasks[task.ID] = &task
			created = append(created, task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.log.Append("workflow_action", actor.ID, string(actor.Role), map[string]any{
		"action":      "onboarding_triggered",
		"employee_id": employeeID,
		"count":       1,
	}); err != nil {
		return nil, err
	}
	if err := s.log.Append("automation_event", actor.ID, string(actor.Role), map[string]any{
		"action":       "onboarding_tasks_auto_created",
		"employee_id":  employeeID,
		"action_count": len(created),
	}); err != nil {
		return nil, err
	}
	return created, nil
}

// ListOnboarding mirrors leave visibility, then applies the optional
// employee filter on top of the narrowed set.
func (s *Service) ListOnboarding(ctx context.Context, actor rbac.Actor, employeeID string) ([]store.OnboardingTask, error) {
	var rows []store.OnboardingTask
	err := s.store.View(func(state *store.State) error {
		for _, row := range state.OnboardingTasks {
			if !visibleTo(actor, row.EmployeeID) {
				continue
			}
			if employeeID != "" && row.EmployeeID != employeeID {
				continue
			}
			rows = append(rows, *row)
		}
		return nil
	})
	return rows, err
}

// visibleTo implements the shared listing rule: HR sees all, a manager sees
// their team plus themself, an employee only their own records.
func visibleTo(actor rbac.Actor, employeeID string) bool {
	switch actor.Role {
	case rbac.RoleHR:
		return true
	case rbac.RoleManager:
		return employeeID == actor.ID || actor.Manages(employeeID)
	default:
		return employeeID == actor.ID
	}
}
