package policy

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-hr/meridian/internal/platform/httpx"
	"github.com/meridian-hr/meridian/internal/rbac"
)

// Handler exposes the policy corpus and matcher as a JSON API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a policy Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers policy routes. Every role holds policy:read so no
// narrower allow-list applies; the consent gate runs inside the service.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/query", h.query)
	r.Post("/feedback", h.feedback)
}

type documentResponse struct {
	PolicyID    string   `json:"policy_id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Audience    string   `json:"audience"`
	Tags        []string `json:"tags"`
	Effective   string   `json:"effective_date"`
	LastUpdated string   `json:"last_updated"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	docs := h.service.List(r.Context())
	out := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentResponse{
			PolicyID:    doc.ID,
			Title:       doc.Title,
			Category:    doc.Category,
			Audience:    doc.Audience,
			Tags:        doc.Tags,
			Effective:   doc.Effective,
			LastUpdated: doc.LastUpdated,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

type queryRequest struct {
	Question string `json:"question" validate:"required,min=3"`
}

type queryResponse struct {
	ResponseID       string     `json:"response_id"`
	Answer           string     `json:"answer"`
	Confidence       float64    `json:"confidence"`
	Citations        []Citation `json:"citations"`
	GovernanceNotice string     `json:"governance_notice"`
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req queryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	result, err := h.service.Query(r.Context(), actor, req.Question)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, queryResponse{
		ResponseID:       result.ResponseID,
		Answer:           result.Answer,
		Confidence:       result.Confidence,
		Citations:        result.Citations,
		GovernanceNotice: result.GovernanceNotice,
	})
}

type feedbackRequest struct {
	ResponseID string `json:"response_id" validate:"required"`
	Accurate   *bool  `json:"accurate" validate:"required"`
	Comment    string `json:"comment"`
}

func (h *Handler) feedback(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req feedbackRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.Feedback(r.Context(), actor, req.ResponseID, *req.Accurate, req.Comment); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Feedback recorded"})
}
