package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/service"
)

type AuthHandler struct {
	Service      *service.AuthService
	CookieName   string
	SecureCookie bool
}

func (h AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
	r.Post("/auth/refresh", h.refresh)
	r.Post("/auth/session", h.session)
	r.Post("/auth/logout", h.logout)
}

func (h AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.me)
}

func (h AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.Login(r.Context(), service.LoginInput{
		Email:    strings.ToLower(req.Email),
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// without an identity provider the session cookie carries the access token
	if h.Service.Identity == nil {
		h.setCookie(w, res.AccessToken, res.ExpiresAt)
	}
	writeAuthResponse(w, res)
}

func (h AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if h.Service.Identity == nil {
		h.setCookie(w, res.AccessToken, res.ExpiresAt)
	}
	writeAuthResponse(w, res)
}

func (h AuthHandler) session(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.SessionLogin(r.Context(), req.IDToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.setCookie(w, res.Cookie, res.ExpiresAt)
	writeJSON(w, http.StatusOK, map[string]any{
		"expiresAt": res.ExpiresAt.UTC().Format(time.RFC3339),
		"user":      userView(res.User),
	})
}

func (h AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeMessage(w, http.StatusOK, "logged out", nil)
}

func (h AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	user, err := h.Service.Me(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(*user))
}

func (h AuthHandler) cookieName() string {
	if h.CookieName == "" {
		return "session"
	}
	return h.CookieName
}

func (h AuthHandler) setCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func userView(u domain.User) map[string]any {
	return map[string]any{
		"id":      u.ID,
		"name":    u.Name,
		"email":   u.Email,
		"role":    string(u.Role),
		"staffId": u.StaffID,
	}
}

func writeAuthResponse(w http.ResponseWriter, res *service.AuthResult) {
	writeJSON(w, http.StatusOK, map[string]any{
		"token":        res.AccessToken,
		"refreshToken": res.RefreshToken,
		"expiresAt":    res.ExpiresAt.UTC().Format(time.RFC3339),
		"user":         userView(res.User),
	})
}
