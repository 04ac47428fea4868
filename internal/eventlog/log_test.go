package eventlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	return l
}

func TestAppendAndReadAllPreservesOrder(t *testing.T) {
	l := newTestLog(t)

	if err := l.Append("auth_login", "u-hr-001", "HR", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Append("workflow_action", "u-emp-001", "EMPLOYEE", map[string]any{"action": "leave_requested", "count": 1}); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := l.ReadAll()
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != "auth_login" || events[1].Type != "workflow_action" {
		t.Fatalf("unexpected order: %s, %s", events[0].Type, events[1].Type)
	}
	if events[1].Details["action"] != "leave_requested" {
		t.Fatalf("details not round-tripped: %v", events[1].Details)
	}
	if events[0].Timestamp.IsZero() {
		t.Fatal("timestamp not recorded")
	}
}

func TestReadAllSkipsMalformedLines(t *testing.T) {
	l := newTestLog(t)
	if err := l.Append("policy_query", "u-emp-001", "EMPLOYEE", nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	if _, err := f.WriteString("{not json\n"); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	f.Close()
	if err := l.Append("policy_feedback", "u-emp-001", "EMPLOYEE", nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := l.ReadAll()
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected malformed line to be skipped, got %d events", len(events))
	}
}

func TestReadAllMissingFileIsEmpty(t *testing.T) {
	l := newTestLog(t)
	events, err := l.ReadAll()
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestRecentReturnsTail(t *testing.T) {
	l := newTestLog(t)
	types := []string{"a", "b", "c", "d"}
	for _, typ := range types {
		if err := l.Append(typ, "u-hr-001", "HR", nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	events, err := l.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != "c" || events[1].Type != "d" {
		t.Fatalf("expected tail in arrival order, got %s, %s", events[0].Type, events[1].Type)
	}
}

func TestPurgeOlderThanRemovesStaleRecords(t *testing.T) {
	l := newTestLog(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	l.now = func() time.Time { return base.AddDate(0, 0, -40) }
	if err := l.Append("workflow_action", "u-hr-001", "HR", nil); err != nil {
		t.Fatalf("append stale: %v", err)
	}
	l.now = func() time.Time { return base }
	if err := l.Append("workflow_action", "u-hr-001", "HR", nil); err != nil {
		t.Fatalf("append fresh: %v", err)
	}

	removed, err := l.PurgeOlderThan(30)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	events, err := l.ReadAll()
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 surviving event, got %d", len(events))
	}
	if !events[0].Timestamp.Equal(base) {
		t.Fatalf("wrong survivor timestamp: %v", events[0].Timestamp)
	}
}

func TestReadAllKeepsRecordsWithBadTimestamps(t *testing.T) {
	l := newTestLog(t)
	if err := l.Append("policy_query", "u-emp-001", "EMPLOYEE", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	line := `{"timestamp":"not-a-time","event_type":"workflow_action","actor_id":"u-hr-001","actor_role":"HR","details":{"count":2}}` + "\n"
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	if _, err := f.WriteString(line); err != nil {
		t.Fatalf("write record: %v", err)
	}
	f.Close()

	events, err := l.ReadAll()
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("record with bad timestamp must still replay, got %d events", len(events))
	}
	if events[1].Type != "workflow_action" || !events[1].Timestamp.IsZero() {
		t.Fatalf("expected zero-time workflow_action, got %+v", events[1])
	}
	if count, ok := events[1].Details["count"].(float64); !ok || count != 2 {
		t.Fatalf("details lost on lenient decode: %v", events[1].Details)
	}
}

func TestPurgeKeepsUnparsableTimestamps(t *testing.T) {
	l := newTestLog(t)
	if err := os.WriteFile(l.path, []byte(`{"timestamp":"not-a-time","event_type":"governance_event"}`+"\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	removed, err := l.PurgeOlderThan(1)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected unparsable line to be kept, removed %d", removed)
	}

	raw, err := os.ReadFile(l.path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected line to survive rewrite")
	}
}

func TestPurgeRejectsNonPositiveWindow(t *testing.T) {
	l := newTestLog(t)
	if err := l.Append("auth_login", "u-hr-001", "HR", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	removed, err := l.PurgeOlderThan(0)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected no-op purge, removed %d", removed)
	}
}
