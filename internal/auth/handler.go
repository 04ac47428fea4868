package auth

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

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		rbac:      mw,
	}
}

// MountPublic registers routes reachable without a token.
func (h *Handler) MountPublic(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

// MountProtected registers routes behind the authenticator.
func (h *Handler) MountProtected(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Post("/logout", h.handleLogout)
}

// MountUsers registers the HR-only account listing.
func (h *Handler) MountUsers(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRoles(rbac.RoleHR))
		r.Get("/", h.handleListUsers)
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
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

func toProfile(u store.User) profileResponse {
	members := u.TeamMembers
	if members == nil {
		members = []string{}
	}
	return profileResponse{
		UserID:      u.ID,
		Username:    u.Username,
		FullName:    u.FullName,
		Role:        string(u.Role),
		ManagerID:   u.ManagerID,
		TeamMembers: members,
		GDPRConsent: u.Consent,
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	token, expiresAt, err := h.service.IssueToken(r.Context(), user)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			h.logger.Warn("revoke token", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	user, found := h.service.store.User(actor.ID)
	if !found {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfile(user))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]profileResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toProfile(u))
	}
	httpx.JSON(w, http.StatusOK, out)
}
