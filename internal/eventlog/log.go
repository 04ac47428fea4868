// Package eventlog implements the append-only JSONL event log. The log is
// the single source of truth for analytics and retention; every significant
// action appends one record. Appends are serialized by a single mutex and a
// failed durable write propagates to the caller, it is never swallowed.
package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Event is one log record. Records are immutable once written; retention may
// remove whole lines but never edits one in place.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"event_type"`
	ActorID   string         `json:"actor_id"`
	ActorRole string         `json:"actor_role"`
	Details   map[string]any `json:"details"`
}

// Log is a file-backed append-only event log. The lock serializes appends
// against read and compaction so concurrent writers never interleave lines.
// It is independent of the record-store lock; the two are never nested.
type Log struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// Open prepares a Log at path, creating the parent directory as needed.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("eventlog: create log dir: %w", err)
	}
	return &Log{path: path, now: time.Now}, nil
}

// Append writes one record with a generated UTC timestamp. The write is
// synchronous; an error here is fatal to the operation that triggered it.
func (l *Log) Append(eventType, actorID, actorRole string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	record := Event{
		Timestamp: l.now().UTC(),
		Type:      eventType,
		ActorID:   actorID,
		ActorRole: actorRole,
		Details:   details,
	}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("eventlog: marshal event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("eventlog: open log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("eventlog: append event: %w", err)
	}
	return nil
}

// wireEvent is the on-disk shape with the timestamp still raw, so a record
// whose timestamp does not parse can still be replayed.
type wireEvent struct {
	Timestamp string         `json:"timestamp"`
	Type      string         `json:"event_type"`
	ActorID   string         `json:"actor_id"`
	ActorRole string         `json:"actor_role"`
	Details   map[string]any `json:"details"`
}

// ReadAll returns every well-formed record in file order. Malformed lines
// are skipped; a record with an unparsable timestamp is kept with a zero
// time. Log corruption degrades analytics, it never fails them.
func (l *Log) ReadAll() ([]Event, error) {
	l.mu.Lock()
	lines, err := l.readLines()
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(lines))
	for _, raw := range lines {
		var rec wireEvent
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		ts, _ := time.Parse(time.RFC3339Nano, rec.Timestamp)
		events = append(events, Event{
			Timestamp: ts,
			Type:      rec.Type,
			ActorID:   rec.ActorID,
			ActorRole: rec.ActorRole,
			Details:   rec.Details,
		})
	}
	return events, nil
}

// Recent returns the last limit records in arrival order.
func (l *Log) Recent(limit int) ([]Event, error) {
	events, err := l.ReadAll()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// PurgeOlderThan rewrites the log keeping only records whose timestamp falls
// within the retention window and returns the number removed. A line whose
// timestamp cannot be parsed is conservatively kept. Compaction is an
// explicit operator-triggered operation; appends never wait on it except for
// the mutex held during the rewrite itself.
func (l *Log) PurgeOlderThan(retentionDays int) (int, error) {
	if retentionDays < 1 {
		return 0, nil
	}
	cutoff := l.now().UTC().AddDate(0, 0, -retentionDays)

	l.mu.Lock()
	defer l.mu.Unlock()

	lines, err := l.readLines()
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, nil
	}

	kept := make([]string, 0, len(lines))
	removed := 0
	for _, raw := range lines {
		var rec wireEvent
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			kept = append(kept, raw)
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
		if err != nil {
			kept = append(kept, raw)
			continue
		}
		if ts.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, raw)
	}

	content := strings.Join(kept, "\n")
	if len(kept) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(l.path, []byte(content), 0o644); err != nil {
		return 0, fmt.Errorf("eventlog: rewrite log: %w", err)
	}
	return removed, nil
}

// readLines returns the raw non-empty lines of the log file. Caller holds the
// mutex.
func (l *Log) readLines() ([]string, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("eventlog: open log: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("eventlog: read log: %w", err)
	}
	return lines, nil
}
