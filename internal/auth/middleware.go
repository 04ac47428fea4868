package auth

import (
	"net/http"
	"strings"

	"github.com/meridian-hr/meridian/internal/platform/httpx"
	"github.com/meridian-hr/meridian/internal/rbac"
)

// Authenticator resolves the bearer token on every request and places the
// actor in context. Requests without a resolvable identity never reach a
// handler.
func (s *Service) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		user, err := s.ResolveToken(r.Context(), token)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		ctx := rbac.ContextWithActor(r.Context(), user.Actor())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
