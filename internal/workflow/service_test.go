package workflow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/meridian-hr/meridian/internal/eventlog"
	"github.com/meridian-hr/meridian/internal/platform/httpx"
	"github.com/meridian-hr/meridian/internal/rbac"
	"github.com/meridian-hr/meridian/internal/store"
)

// allowAllConsent satisfies ConsentChecker for tests that are not about the
// consent gate.
type allowAllConsent struct{}

func (allowAllConsent) EnsureConsent(rbac.Actor, string) error { return nil }

type denyConsent struct{}

func (denyConsent) EnsureConsent(rbac.Actor, string) error {
	return httpx.ErrForbidden
}

func newTestService(t *testing.T) (*Service, *store.Store, *eventlog.Log) {
	t.Helper()
	st := store.New()
	if err := st.Seed(); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	log, err := eventlog.Open(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatalf("open event log: %v", err)
	}
	svc := NewService(st, log, allowAllConsent{})
	return svc, st, log
}

func actorFor(t *testing.T, st *store.Store, id string) rbac.Actor {
	t.Helper()
	u, ok := st.User(id)
	if !ok {
		t.Fatalf("missing seeded user %s", id)
	}
	return u.Actor()
}

func TestCreateLeaveEmployeeRoutedToManager(t *testing.T) {
	svc, st, log := newTestService(t)
	employee := actorFor(t, st, "u-emp-001")
	start := time.Now().UTC().AddDate(0, 0, 7)

	row, err := svc.CreateLeave(context.Background(), employee, CreateLeaveInput{
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 3),
		Reason:    "family trip",
	})
	if err != nil {
		t.Fatalf("create leave: %v", err)
	}
	if row.Status != store.LeavePending {
		t.Fatalf("expected PENDING, got %s", row.Status)
	}
	if row.PendingApproverRole != "MANAGER" {
		t.Fatalf("expected MANAGER approver hint, got %s", row.PendingApproverRole)
	}
	if row.EmployeeID != "u-emp-001" {
		t.Fatalf("expected requester as employee, got %s", row.EmployeeID)
	}

	events, err := log.ReadAll()
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected workflow and automation events, got %d", len(events))
	}
	if events[0].Type != "workflow_action" || events[1].Type != "automation_event" {
		t.Fatalf("unexpected event types: %s, %s", events[0].Type, events[1].Type)
	}
}

func TestCreateLeaveManagerRoutedToHR(t *testing.T) {
	svc, st, _ := newTestService(t)
	manager := actorFor(t, st, "u-mgr-001")
	start := time.Now().UTC().AddDate(0, 0, 7)

	row, err := svc.CreateLeave(context.Background(), manager, CreateLeaveInput{
		StartDate: start,
		EndDate:   start,
	})
	if err != nil {
		t.Fatalf("create leave: %v", err)
	}
	if row.PendingApproverRole != "HR" {
		t.Fatalf("expected HR approver hint, got %s", row.PendingApproverRole)
	}
}

func TestCreateLeaveRejectsInvalidDates(t *testing.T) {
	svc, st, _ := newTestService(t)
	employee := actorFor(t, st, "u-emp-001")
	start := time.Now().UTC().AddDate(0, 0, 7)

	_, err := svc.CreateLeave(context.Background(), employee, CreateLeaveInput{
		StartDate: start,
		EndDate:   start.AddDate(0, 0, -1),
	})
	if !errors.Is(err, httpx.ErrValidation) {
		t.Fatalf("expected validation error for inverted range, got %v", err)
	}

	_, err = svc.CreateLeave(context.Background(), employee, CreateLeaveInput{
		StartDate: time.Now().UTC().AddDate(0, 0, -10),
		EndDate:   time.Now().UTC(),
	})
	if !errors.Is(err, httpx.ErrValidation) {
		t.Fatalf("expected validation error for past start, got %v", err)
	}
}

func TestCreateLeaveRequiresConsent(t *testing.T) {
	svc, st, log := newTestService(t)
	svc.governance = denyConsent{}
	employee := actorFor(t, st, "u-emp-001")
	start := time.Now().UTC().AddDate(0, 0, 7)

	_, err := svc.CreateLeave(context.Background(), employee, CreateLeaveInput{
		StartDate: start,
		EndDate:   start,
	})
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected forbidden without consent, got %v", err)
	}

	events, err := log.ReadAll()
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("rejected request must not log events, got %d", len(events))
	}
}

func TestDecideLeaveIsTerminal(t *testing.T) {
	svc, st, _ := newTestService(t)
	employee := actorFor(t, st, "u-emp-001")
	manager := actorFor(t, st, "u-mgr-001")
	start := time.Now().UTC().AddDate(0, 0, 7)

	row, err := svc.CreateLeave(context.Background(), employee, CreateLeaveInput{
		StartDate: start,
		EndDate:   start,
	})
	if err != nil {
		t.Fatalf("create leave: %v", err)
	}

	decided, err := svc.DecideLeave(context.Background(), manager, row.ID, DecideLeaveInput{
		Approve: true,
		Notes:   "enjoy",
	})
	if err != nil {
		t.Fatalf("decide leave: %v", err)
	}
	if decided.Status != store.LeaveApproved {
		t.Fatalf("expected APPROVED, got %s", decided.Status)
	}
	if decided.PendingApproverRole != clearedApproverRole {
		t.Fatalf("expected cleared approver hint, got %q", decided.PendingApproverRole)
	}
	if decided.DecisionNotes != "enjoy" {
		t.Fatalf("notes not recorded: %q", decided.DecisionNotes)
	}

	_, err = svc.DecideLeave(context.Background(), manager, row.ID, DecideLeaveInput{Approve: false})
	if !errors.Is(err, httpx.ErrValidation) {
		t.Fatalf("expected second decision to fail validation, got %v", err)
	}

	after, err := svc.ListLeaves(context.Background(), manager)
	if err != nil {
		t.Fatalf("list leaves: %v", err)
	}
	if len(after) != 1 || after[0].Status != store.LeaveApproved {
		t.Fatal("decision must remain APPROVED after a failed retry")
	}
}

func TestDecideLeaveAuthorization(t *testing.T) {
	svc, st, _ := newTestService(t)
	employee := actorFor(t, st, "u-emp-001")
	manager := actorFor(t, st, "u-mgr-001")
	hr := actorFor(t, st, "u-hr-001")
	start := time.Now().UTC().AddDate(0, 0, 7)

	row, err := svc.CreateLeave(context.Background(), employee, CreateLeaveInput{
		StartDate: start,
		EndDate:   start,
	})
	if err != nil {
		t.Fatalf("create leave: %v", err)
	}

	_, err = svc.DecideLeave(context.Background(), employee, row.ID, DecideLeaveInput{Approve: true})
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected employee decision forbidden, got %v", err)
	}

	outsider := manager
	outsider.TeamMembers = nil
	_, err = svc.DecideLeave(context.Background(), outsider, row.ID, DecideLeaveInput{Approve: true})
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected off-team manager forbidden, got %v", err)
	}

	_, err = svc.DecideLeave(context.Background(), hr, "leave-missing", DecideLeaveInput{Approve: true})
	if !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("expected not found for unknown request, got %v", err)
	}

	if _, err := svc.DecideLeave(context.Background(), hr, row.ID, DecideLeaveInput{Approve: false}); err != nil {
		t.Fatalf("HR decision: %v", err)
	}
}

func TestFulfillDocumentHROnlyAndIdempotent(t *testing.T) {
	svc, st, _ := newTestService(t)
	employee := actorFor(t, st, "u-emp-001")
	hr := actorFor(t, st, "u-hr-001")

	row, err := svc.CreateDocument(context.Background(), employee, CreateDocumentInput{
		DocumentType: "employment_letter",
		Purpose:      "visa application",
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	if row.Status != store.DocumentRequested {
		t.Fatalf("expected REQUESTED, got %s", row.Status)
	}

	_, err = svc.FulfillDocument(context.Background(), employee, row.ID)
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected employee fulfillment forbidden, got %v", err)
	}

	first, err := svc.FulfillDocument(context.Background(), hr, row.ID)
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if first.Status != store.DocumentFulfilled || first.FulfilledAt == nil {
		t.Fatal("expected FULFILLED with timestamp")
	}

	svc.now = func() time.Time { return first.FulfilledAt.Add(time.Hour) }
	second, err := svc.FulfillDocument(context.Background(), hr, row.ID)
	if err != nil {
		t.Fatalf("re-fulfill: %v", err)
	}
	if !second.FulfilledAt.After(*first.FulfilledAt) {
		t.Fatal("re-fulfillment must overwrite the timestamp")
	}
}

func TestTriggerOnboardingCreatesFixedBatch(t *testing.T) {
	svc, st, log := newTestService(t)
	hr := actorFor(t, st, "u-hr-001")
	employee := actorFor(t, st, "u-emp-001")
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.TriggerOnboarding(context.Background(), employee, "u-emp-002", start)
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected non-HR trigger forbidden, got %v", err)
	}

	_, err = svc.TriggerOnboarding(context.Background(), hr, "u-missing", start)
	if !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("expected unknown employee not found, got %v", err)
	}

	tasks, err := svc.TriggerOnboarding(context.Background(), hr, "u-emp-002", start)
	if err != nil {
		t.Fatalf("trigger onboarding: %v", err)
	}
	if len(tasks) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(tasks))
	}

	wantDue := map[string]time.Time{
		"Complete I-9 verification":            start,
		"Provision laptop and access accounts": start.AddDate(0, 0, 1),
		"Schedule manager orientation":         start.AddDate(0, 0, 2),
		"Acknowledge code of conduct":          start.AddDate(0, 0, 1),
	}
	for _, task := range tasks {
		if task.Status != store.TaskOpen {
			t.Fatalf("task %s not OPEN: %s", task.Title, task.Status)
		}
		if task.TriggerSource != TriggerSource {
			t.Fatalf("task %s missing trigger source", task.Title)
		}
		due, ok := wantDue[task.Title]
		if !ok {
			t.Fatalf("unexpected task title %q", task.Title)
		}
		if !task.DueDate.Equal(due) {
			t.Fatalf("task %s due %v, want %v", task.Title, task.DueDate, due)
		}
		delete(wantDue, task.Title)
	}

	events, err := log.ReadAll()
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	last := events[len(events)-1]
	if last.Type != "automation_event" {
		t.Fatalf("expected automation event, got %s", last.Type)
	}
	if count, ok := last.Details["action_count"].(float64); !ok || count != 4 {
		t.Fatalf("expected action_count 4, got %v", last.Details["action_count"])
	}
}

func TestListVisibilityByRole(t *testing.T) {
	svc, st, _ := newTestService(t)
	hr := actorFor(t, st, "u-hr-001")
	manager := actorFor(t, st, "u-mgr-001")
	alex := actorFor(t, st, "u-emp-001")
	sam := actorFor(t, st, "u-emp-002")
	start := time.Now().UTC().AddDate(0, 0, 7)

	for _, actor := range []rbac.Actor{hr, manager, alex, sam} {
		if _, err := svc.CreateLeave(context.Background(), actor, CreateLeaveInput{
			StartDate: start,
			EndDate:   start,
		}); err != nil {
			t.Fatalf("create leave for %s: %v", actor.ID, err)
		}
	}

	hrRows, err := svc.ListLeaves(context.Background(), hr)
	if err != nil {
		t.Fatalf("list as HR: %v", err)
	}
	if len(hrRows) != 4 {
		t.Fatalf("HR should see all 4, got %d", len(hrRows))
	}

	mgrRows, err := svc.ListLeaves(context.Background(), manager)
	if err != nil {
		t.Fatalf("list as manager: %v", err)
	}
	if len(mgrRows) != 3 {
		t.Fatalf("manager should see team plus own, got %d", len(mgrRows))
	}

	empRows, err := svc.ListLeaves(context.Background(), alex)
	if err != nil {
		t.Fatalf("list as employee: %v", err)
	}
	if len(empRows) != 1 || empRows[0].EmployeeID != "u-emp-001" {
		t.Fatalf("employee should see only own, got %d", len(empRows))
	}
}

func TestListOnboardingFilter(t *testing.T) {
	svc, st, _ := newTestService(t)
	hr := actorFor(t, st, "u-hr-001")
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"u-emp-001", "u-emp-002"} {
		if _, err := svc.TriggerOnboarding(context.Background(), hr, id, start); err != nil {
			t.Fatalf("trigger onboarding for %s: %v", id, err)
		}
	}

	all, err := svc.ListOnboarding(context.Background(), hr, "")
	if err != nil {
		t.Fatalf("list onboarding: %v", err)
	}
	if len(all) != 8 {
		t.Fatalf("expected 8 tasks, got %d", len(all))
	}

	filtered, err := svc.ListOnboarding(context.Background(), hr, "u-emp-002")
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 4 {
		t.Fatalf("expected 4 filtered tasks, got %d", len(filtered))
	}
	for _, task := range filtered {
		if task.EmployeeID != "u-emp-002" {
			t.Fatalf("filter leaked task for %s", task.EmployeeID)
		}
	}
}
