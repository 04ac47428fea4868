package workflow

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

const dateLayout = "2006-01-02"

// Handler exposes the workflow operations as a JSON API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler constructs a workflow Handler.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: mw}
}

// MountRoutes registers workflow routes. Role allow-lists are declared here;
// ownership rules stay in the service.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Get("/", h.listLeave)
		r.Post("/", h.createLeave)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireRoles(rbac.RoleHR, rbac.RoleManager))
			r.Post("/{requestID}/decision", h.decideLeave)
		})
	})
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.listDocuments)
		r.Post("/", h.createDocument)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireRoles(rbac.RoleHR))
			r.Post("/{requestID}/fulfill", h.fulfillDocument)
		})
	})
	r.Route("/onboarding", func(r chi.Router) {
		r.Get("/", h.listOnboarding)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireRoles(rbac.RoleHR))
			r.Post("/trigger", h.triggerOnboarding)
		})
	})
}

type leaveResponse struct {
	RequestID           string  `json:"request_id"`
	EmployeeID          string  `json:"employee_id"`
	StartDate           string  `json:"start_date"`
	EndDate             string  `json:"end_date"`
	Reason              string  `json:"reason"`
	Status              string  `json:"status"`
	PendingApproverRole string  `json:"pending_approver_role"`
	DecisionNotes       *string `json:"decision_notes"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at"`
}

func toLeaveResponse(row store.LeaveRequest) leaveResponse {
	var notes *string
	if row.DecisionNotes != "" {
		notes = &row.DecisionNotes
	}
	return leaveResponse{
		RequestID:           row.ID,
		EmployeeID:          row.EmployeeID,
		StartDate:           row.StartDate.Format(dateLayout),
		EndDate:             row.EndDate.Format(dateLayout),
		Reason:              row.Reason,
		Status:              string(row.Status),
		PendingApproverRole: row.PendingApproverRole,
		DecisionNotes:       notes,
		CreatedAt:           row.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           row.UpdatedAt.Format(time.RFC3339),
	}
}

type documentResponse struct {
	RequestID    string  `json:"request_id"`
	EmployeeID   string  `json:"employee_id"`
	DocumentType string  `json:"document_type"`
	Purpose      string  `json:"purpose"`
	Status       string  `json:"status"`
	RequestedAt  string  `json:"requested_at"`
	FulfilledAt  *string `json:"fulfilled_at"`
}

func toDocumentResponse(row store.DocumentRequest) documentResponse {
	var fulfilledAt *string
	if row.FulfilledAt != nil {
		s := row.FulfilledAt.Format(time.RFC3339)
		fulfilledAt = &s
	}
	return documentResponse{
		RequestID:    row.ID,
		EmployeeID:   row.EmployeeID,
		DocumentType: row.DocumentType,
		Purpose:      row.Purpose,
		Status:       string(row.Status),
		RequestedAt:  row.RequestedAt.Format(time.RFC3339),
		FulfilledAt:  fulfilledAt,
	}
}

type taskResponse struct {
	TaskID        string `json:"task_id"`
	EmployeeID    string `json:"employee_id"`
	Title         string `json:"title"`
	OwnerRole     string `json:"owner_role"`
	DueDate       string `json:"due_date"`
	Status        string `json:"status"`
	TriggerSource string `json:"trigger_source"`
	CreatedAt     string `json:"created_at"`
}

func toTaskResponse(row store.OnboardingTask) taskResponse {
	return taskResponse{
		TaskID:        row.ID,
		EmployeeID:    row.EmployeeID,
		Title:         row.Title,
		OwnerRole:     row.OwnerRole,
		DueDate:       row.DueDate.Format(dateLayout),
		Status:        string(row.Status),
		TriggerSource: row.TriggerSource,
		CreatedAt:     row.CreatedAt.Format(time.RFC3339),
	}
}

type createLeaveRequest struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

func (h *Handler) createLeave(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createLeaveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	row, err := h.service.CreateLeave(r.Context(), actor, CreateLeaveInput{
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toLeaveResponse(row))
}

type decideLeaveRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

func (h *Handler) decideLeave(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req decideLeaveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	row, err := h.service.DecideLeave(r.Context(), actor, chi.URLParam(r, "requestID"), DecideLeaveInput{
		Approve: req.Approve,
		Notes:   req.Notes,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toLeaveResponse(row))
}

func (h *Handler) listLeave(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	rows, err := h.service.ListLeaves(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]leaveResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toLeaveResponse(row))
	}
	httpx.JSON(w, http.StatusOK, out)
}

type createDocumentRequest struct {
	DocumentType string `json:"document_type" validate:"required"`
	Purpose      string `json:"purpose" validate:"required"`
}

func (h *Handler) createDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createDocumentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	row, err := h.service.CreateDocument(r.Context(), actor, CreateDocumentInput{
		DocumentType: req.DocumentType,
		Purpose:      req.Purpose,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toDocumentResponse(row))
}

func (h *Handler) fulfillDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	row, err := h.service.FulfillDocument(r.Context(), actor, chi.URLParam(r, "requestID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDocumentResponse(row))
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	rows, err := h.service.ListDocuments(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]documentResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDocumentResponse(row))
	}
	httpx.JSON(w, http.StatusOK, out)
}

type triggerOnboardingRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	StartDate  string `json:"start_date" validate:"required"`
}

func (h *Handler) triggerOnboarding(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req triggerOnboardingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	tasks, err := h.service.TriggerOnboarding(r.Context(), actor, req.EmployeeID, start)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskResponse(task))
	}
	httpx.JSON(w, http.StatusCreated, out)
}

func (h *Handler) listOnboarding(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	rows, err := h.service.ListOnboarding(r.Context(), actor, r.URL.Query().Get("employee_id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]taskResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toTaskResponse(row))
	}
	httpx.JSON(w, http.StatusOK, out)
}
