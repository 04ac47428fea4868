package analytics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-hr/meridian/internal/eventlog"
	"github.com/meridian-hr/meridian/internal/platform/httpx"
	"github.com/meridian-hr/meridian/internal/rbac"
)

// Handler exposes the KPI dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs an analytics Handler.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw}
}

// MountRoutes registers analytics routes behind the analytics:view roles.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRoles(rbac.RoleHR, rbac.RoleManager))
		r.Get("/kpis", h.kpis)
		r.Get("/events", h.recentEvents)
	})
}

type kpiResponse struct {
	Usage struct {
		TotalPolicyQueries int            `json:"total_policy_queries"`
		UniqueUsers        int            `json:"unique_users"`
		QueriesByRole      map[string]int `json:"queries_by_role"`
	} `json:"usage"`
	ResponseAccuracy struct {
		FeedbackSamples int     `json:"feedback_samples"`
		AccuracyRate    float64 `json:"accuracy_rate"`
	} `json:"response_accuracy"`
	Automation struct {
		TotalWorkflowActions int     `json:"total_workflow_actions"`
		AutomatedActions     int     `json:"automated_actions"`
		AutomationRate       float64 `json:"automation_rate"`
	} `json:"automation"`
}

func (h *Handler) kpis(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.KPIs(r.Context())
	if err != nil {
		h.logger.Error("compute kpis", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	var resp kpiResponse
	resp.Usage.TotalPolicyQueries = report.Usage.TotalPolicyQueries
	resp.Usage.UniqueUsers = report.Usage.UniqueUsers
	resp.Usage.QueriesByRole = report.Usage.QueriesByRole
	resp.ResponseAccuracy.FeedbackSamples = report.ResponseAccuracy.FeedbackSamples
	resp.ResponseAccuracy.AccuracyRate = report.ResponseAccuracy.AccuracyRate
	resp.Automation.TotalWorkflowActions = report.Automation.TotalWorkflowActions
	resp.Automation.AutomatedActions = report.Automation.AutomatedActions
	resp.Automation.AutomationRate = report.Automation.AutomationRate
	httpx.JSON(w, http.StatusOK, resp)
}

type eventResponse struct {
	Timestamp string         `json:"timestamp"`
	EventType string         `json:"event_type"`
	ActorID   string         `json:"actor_id"`
	ActorRole string         `json:"actor_role"`
	Details   map[string]any `json:"details"`
}

func toEventResponse(ev eventlog.Event) eventResponse {
	return eventResponse{
		Timestamp: ev.Timestamp.Format(time.RFC3339Nano),
		EventType: ev.Type,
		ActorID:   ev.ActorID,
		ActorRole: ev.ActorRole,
		Details:   ev.Details,
	}
}

func (h *Handler) recentEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		limit = parsed
	}
	events, err := h.service.RecentEvents(r.Context(), limit)
	if err != nil {
		h.logger.Error("recent events", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, toEventResponse(ev))
	}
	httpx.JSON(w, http.StatusOK, out)
}
