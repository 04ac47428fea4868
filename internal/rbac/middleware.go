package rbac

import (
	"log/slog"
	"net/http"

	"github.com/meridian-hr/meridian/internal/platform/httpx"
)

// Middleware wires role-based authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireRoles declares the allow-list of roles for a route group. A request
// whose actor is missing or whose role is not listed is rejected before the
// handler runs, so no side effect can occur.
func (m Middleware) RequireRoles(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if _, ok := allowed[actor.Role]; !ok {
				if m.Logger != nil {
					m.Logger.Warn("role denied",
						slog.String("actor_id", actor.ID),
						slog.String("role", string(actor.Role)),
						slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission gates a route group on a single permission token from the
// static table.
func (m Middleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !HasPermission(actor.Role, permission) {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
