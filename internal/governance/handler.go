package governance

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-hr/meridian/internal/platform/httpx"
	"github.com/meridian-hr/meridian/internal/rbac"
	"github.com/meridian-hr/meridian/internal/store"
)

// Handler exposes governance operations as a JSON API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler constructs a governance Handler.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: mw}
}

// MountRoutes registers governance routes. Erasure and retention carry an
// HR-only allow-list at the route level; consent and subject access admit
// any authenticated role because self-service is allowed and the service
// enforces the HR-or-self rule.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Put("/consent/{userID}", h.updateConsent)
	r.Get("/subject-access/{userID}", h.subjectAccess)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRoles(rbac.RoleHR))
		r.Post("/erasure/{userID}", h.erase)
		r.Post("/retention", h.retention)
	})
}

type profileResponse struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	FullName    string   `json:"full_name"`
	Role        string   `json:"role"`
	ManagerID   string   `json:"manager_id,omitempty"`
	TeamMembers []string `json:"team_members"`
	GDPRConsent bool     `json:"gdpr_consent"`
}

func toProfileResponse(p Profile) profileResponse {
	members := p.TeamMembers
	if members == nil {
		members = []string{}
	}
	return profileResponse{
		UserID:      p.UserID,
		Username:    p.Username,
		FullName:    p.FullName,
		Role:        string(p.Role),
		ManagerID:   p.ManagerID,
		TeamMembers: members,
		GDPRConsent: p.Consent,
	}
}

type consentRequest struct {
	GDPRConsent *bool `json:"gdpr_consent" validate:"required"`
}

func (h *Handler) updateConsent(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req consentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	profile, err := h.service.UpdateConsent(r.Context(), actor, chi.URLParam(r, "userID"), *req.GDPRConsent)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfileResponse(profile))
}

type subjectAccessResponse struct {
	UserProfile      profileResponse  `json:"user_profile"`
	LeaveRequests    []map[string]any `json:"leave_requests"`
	DocumentRequests []map[string]any `json:"document_requests"`
	OnboardingTasks  []map[string]any `json:"onboarding_tasks"`
}

func (h *Handler) subjectAccess(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	result, err := h.service.SubjectAccess(r.Context(), actor, chi.URLParam(r, "userID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	resp := subjectAccessResponse{
		UserProfile:      toProfileResponse(result.UserProfile),
		LeaveRequests:    make([]map[string]any, 0, len(result.LeaveRequests)),
		DocumentRequests: make([]map[string]any, 0, len(result.DocumentRequests)),
		OnboardingTasks:  make([]map[string]any, 0, len(result.OnboardingTasks)),
	}
	for _, row := range result.LeaveRequests {
		resp.LeaveRequests = append(resp.LeaveRequests, leaveRow(row))
	}
	for _, row := range result.DocumentRequests {
		resp.DocumentRequests = append(resp.DocumentRequests, documentRow(row))
	}
	for _, row := range result.OnboardingTasks {
		resp.OnboardingTasks = append(resp.OnboardingTasks, taskRow(row))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) erase(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	result, err := h.service.Erase(r.Context(), actor, chi.URLParam(r, "userID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":         result.UserID,
		"anonymized_at":   result.AnonymizedAt.Format(time.RFC3339),
		"records_updated": result.RecordsUpdated,
	})
}

type retentionRequest struct {
	RetentionDays int `json:"retention_days" validate:"required,min=1"`
}

func (h *Handler) retention(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req retentionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	result, err := h.service.RetentionCleanup(r.Context(), actor, req.RetentionDays)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"retention_days":              result.RetentionDays,
		"removed_events":              result.RemovedEvents,
		"workflow_records_anonymized": result.RecordsAnonymized,
	})
}

// Subject-access rows reuse the workflow wire shapes without importing the
// workflow package.

func leaveRow(row store.LeaveRequest) map[string]any {
	var notes any
	if row.DecisionNotes != "" {
		notes = row.DecisionNotes
	}
	return map[string]any{
		"request_id":            row.ID,
		"employee_id":           row.EmployeeID,
		"start_date":            row.StartDate.Format("2006-01-02"),
		"end_date":              row.EndDate.Format("2006-01-02"),
		"reason":                row.Reason,
		"status":                string(row.Status),
		"pending_approver_role": row.PendingApproverRole,
		"decision_notes":        notes,
		"created_at":            row.CreatedAt.Format(time.RFC3339),
		"updated_at":            row.UpdatedAt.Format(time.RFC3339),
	}
}

func documentRow(row store.DocumentRequest) map[string]any {
	var fulfilledAt any
	if row.FulfilledAt != nil {
		fulfilledAt = row.FulfilledAt.Format(time.RFC3339)
	}
	return map[string]any{
		"request_id":    row.ID,
		"employee_id":   row.EmployeeID,
		"document_type": row.DocumentType,
		"purpose":       row.Purpose,
		"status":        string(row.Status),
		"requested_at":  row.RequestedAt.Format(time.RFC3339),
		"fulfilled_at":  fulfilledAt,
	}
}

func taskRow(row store.OnboardingTask) map[string]any {
	return map[string]any{
		"task_id":        row.ID,
		"employee_id":    row.EmployeeID,
		"title":          row.Title,
		"owner_role":     row.OwnerRole,
		"due_date":       row.DueDate.Format("2006-01-02"),
		"status":         string(row.Status),
		"trigger_source": row.TriggerSource,
		"created_at":     row.CreatedAt.Format(time.RFC3339),
	}
}
