package auth

import (
	"net/http"
	"slices"
	"strings"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
	"github.com/MrJamesThe3rd/reclaim/internal/http/httpio"
)

// Middleware rejects requests without a valid "Authorization: Bearer"
// token and stores the principal in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			httpio.Error(w, r, apperr.Unauthenticated("authorization header is required"))
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			httpio.Error(w, r, apperr.Unauthenticated("expected: Bearer <token>"))
			return
		}

		p, err := a.Parse(strings.TrimSpace(token))
		if err != nil {
			httpio.Error(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireRole lets through principals holding one of allowed.
func RequireRole(allowed ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				httpio.Error(w, r, apperr.Unauthenticated("no principal"))
				return
			}

			if !slices.Contains(allowed, p.Role) {
				httpio.Error(w, r, apperr.PermissionDenied("role %s may not perform this operation", p.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
