package governance

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/meridian-hr/meridian/internal/eventlog"
	"github.com/meridian-hr/meridian/internal/platform/httpx"
	"github.com/meridian-hr/meridian/internal/rbac"
	"github.com/meridian-hr/meridian/internal/store"
)

// Redaction markers written into records. They are stable strings because
// downstream consumers (subject access exports) key on them.
const (
	redactedMarker          = "[REDACTED]"
	redactedRetentionMarker = "[REDACTED_RETENTION]"
)

// MinRetentionDays is the smallest retention window a cleanup accepts.
const MinRetentionDays = 30

// Service coordinates governance operations over the store and the event log.
type Service struct {
	store *store.Store
	log   *eventlog.Log
	now   func() time.Time
}

// NewService constructs a governance Service.
func NewService(st *store.Store, log *eventlog.Log) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// EnsureConsent fails with a forbidden condition when the actor has not
// opted in. Every policy query and workflow creation calls this before any
// state is touched.
func (s *Service) EnsureConsent(actor rbac.Actor, purpose string) error {
	if !actor.Consent {
		return fmt.Errorf("governance: consent missing for purpose %q: %w", purpose, httpx.ErrForbidden)
	}
	return nil
}

// UpdateConsent sets the consent flag on the target user. Only HR or the
// target themself may call it.
func (s *Service) UpdateConsent(ctx context.Context, actor rbac.Actor, targetID string, consent bool) (Profile, error) {
	if actor.Role != rbac.RoleHR && actor.ID != targetID {
		return Profile{}, fmt.Errorf("governance: not allowed to change this consent setting: %w", httpx.ErrForbidden)
	}

	var profile Profile
	err := s.store.Update(func(state *store.State) error {
		target, ok := state.Users[targetID]
		if !ok {
			return fmt.Errorf("governance: target user %s: %w", targetID, httpx.ErrNotFound)
		}
		target.Consent = consent
		profile = profileOf(target)
		return nil
	})
	if err != nil {
		return Profile{}, err
	}

	if err := s.log.Append("governance_event", actor.ID, string(actor.Role), map[string]any{
		"action":         "consent_update",
		"target_user_id": targetID,
		"gdpr_consent":   consent,
	}); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// SubjectAccess aggregates the target's profile plus every workflow record
// referencing them. Read-only; only HR or the target themself may call it.
func (s *Service) SubjectAccess(ctx context.Context, actor rbac.Actor, targetID string) (SubjectAccess, error) {
	if actor.Role != rbac.RoleHR && actor.ID != targetID {
		return SubjectAccess{}, fmt.Errorf("governance: not allowed to access this data: %w", httpx.ErrForbidden)
	}

	var result SubjectAccess
	err := s.store.View(func(state *store.State) error {
		user, ok := state.Users[targetID]
		if !ok {
			return fmt.Errorf("governance: target user %s: %w", targetID, httpx.ErrNotFound)
		}
		result.UserProfile = profileOf(user)
		for _, row := range state.LeaveRequests {
			if row.EmployeeID == targetID {
				result.LeaveRequests = append(result.LeaveRequests, *row)
			}
		}
		for _, row := range state.DocumentRequests {
			if row.EmployeeID == targetID {
				result.DocumentRequests = append(result.DocumentRequests, *row)
			}
		}
		for _, row := range state.OnboardingTasks {
			if row.EmployeeID == targetID {
				result.OnboardingTasks = append(result.OnboardingTasks, *row)
			}
		}
		return nil
	})
	if err != nil {
		return SubjectAccess{}, err
	}

	if err := s.log.Append("governance_event", actor.ID, string(actor.Role), map[string]any{
		"action":         "subject_access_request",
		"target_user_id": targetID,
	}); err != nil {
		return SubjectAccess{}, err
	}
	return result, nil
}

// AnonymizedHandle derives the deterministic replacement identity for a user
// id. Re-running erasure yields the same handle.
func AnonymizedHandle(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return fmt.Sprintf("anon-%x", sum)[:15]
}

// Erase irreversibly anonymizes the target user and every workflow record
// belonging to them. HR only. There is no un-erase path.
func (s *Service) Erase(ctx context.Context, actor rbac.Actor, targetID string) (ErasureResult, error) {
	if actor.Role != rbac.RoleHR {
		return ErasureResult{}, fmt.Errorf("governance: only HR can perform data erasure: %w", httpx.ErrForbidden)
	}

	handle := AnonymizedHandle(targetID)
	updated := 0
	err := s.store.Update(func(state *store.State) error {
		user, ok := state.Users[targetID]
		if !ok {
			return fmt.Errorf("governance: target user %s: %w", targetID, httpx.ErrNotFound)
		}
		user.FullName = "Anonymized User"
		user.Username = handle
		user.Consent = false
		user.TeamMembers = nil

		for _, row := range state.LeaveRequests {
			if row.EmployeeID == targetID {
				row.EmployeeID = handle
				row.Reason = redactedMarker
				updated++
			}
		}
		for _, row := range state.DocumentRequests {
			if row.EmployeeID == targetID {
				row.EmployeeID = handle
				row.Purpose = redactedMarker
				updated++
			}
		}
		for _, row := range state.OnboardingTasks {
			if row.EmployeeID == targetID {
				row.EmployeeID = handle
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return ErasureResult{}, err
	}

	erasedAt := s.now().UTC()
	if err := s.log.Append("governance_event", actor.ID, string(actor.Role), map[string]any{
		"action":          "erasure",
		"target_user_id":  targetID,
		"records_updated": updated,
	}); err != nil {
		return ErasureResult{}, err
	}
	return ErasureResult{UserID: targetID, AnonymizedAt: erasedAt, RecordsUpdated: updated}, nil
}

// RetentionCleanup redacts free text on aged terminal records and delegates
// event pruning to the log. HR only; the window must be at least
// MinRetentionDays.
func (s *Service) RetentionCleanup(ctx context.Context, actor rbac.Actor, retentionDays int) (RetentionResult, error) {
	if actor.Role != rbac.RoleHR {
		return RetentionResult{}, fmt.Errorf("governance: only HR can run retention cleanup: %w", httpx.ErrForbidden)
	}
	if retentionDays < MinRetentionDays {
		return RetentionResult{}, fmt.Errorf("governance: retention period must be at least %d days: %w", MinRetentionDays, httpx.ErrValidation)
	}

	cutoff := s.now().UTC().AddDate(0, 0, -retentionDays)
	anonymized := 0
	err := s.store.Update(func(state *store.State) error {
		for _, row := range state.LeaveRequests {
			if row.Status != store.LeavePending && row.UpdatedAt.Before(cutoff) {
				row.Reason = redactedRetentionMarker
				anonymized++
			}
		}
		for _, row := range state.DocumentRequests {
			if row.FulfilledAt != nil && row.FulfilledAt.Before(cutoff) {
				row.Purpose = redactedRetentionMarker
				anonymized++
			}
		}
		return nil
	})
	if err != nil {
		return RetentionResult{}, err
	}

	removed, err := s.log.PurgeOlderThan(retentionDays)
	if err != nil {
		return RetentionResult{}, err
	}

	if err := s.log.Append("governance_event", actor.ID, string(actor.Role), map[string]any{
		"action":                      "retention_cleanup",
		"retention_days":              retentionDays,
		"removed_events":              removed,
		"workflow_records_anonymized": anonymized,
	}); err != nil {
		return RetentionResult{}, err
	}
	return RetentionResult{RetentionDays: retentionDays, RemovedEvents: removed, RecordsAnonymized: anonymized}, nil
}
