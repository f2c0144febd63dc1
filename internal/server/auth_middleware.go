package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/server/authctx"
	"hrdesk-backend/internal/service"
)

// Authenticator resolves the caller from a bearer token or a session cookie.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer, cookie string) (service.Actor, error)
}

// AuthMiddleware resolves the current user and stores it in the request context.
func AuthMiddleware(auth Authenticator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var bearer, cookie string
			if h := r.Header.Get("Authorization"); h != "" {
				if !strings.HasPrefix(h, "Bearer ") {
					writeAuthError(w, http.StatusUnauthorized, "malformed authorization header")
					return
				}
				bearer = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			}
			if c, err := r.Cookie(cookieName); err == nil {
				cookie = c.Value
			}
			if bearer == "" && cookie == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token or session cookie")
				return
			}
			actor, err := auth.Authenticate(r.Context(), bearer, cookie)
			if err != nil {
				status := http.StatusUnauthorized
				message := "invalid credentials"
				if e, ok := apperr.As(err); ok {
					status, message = e.Kind.Status(), e.Message
				}
				writeAuthError(w, status, message)
				return
			}
			ctx := authctx.WithCurrentUser(r.Context(), authctx.CurrentUser{
				ID:      actor.UserID,
				StaffID: actor.StaffID,
				Email:   actor.Email,
				Role:    actor.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole ensures the user has one of the allowed roles.
func RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	allowed := make(map[domain.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := authctx.FromContext(r.Context())
			if u == nil {
				writeAuthError(w, http.StatusForbidden, "forbidden")
				return
			}
			if len(allowed) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := allowed[u.Role]; !ok {
				writeAuthError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}
