package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/transport"
	"github.com/frahmantamala/digital-notary/pkg/logger"
)

type ServiceAPI interface {
	MockLogin(ctx context.Context, dto MockLoginDTO) (*LoginResponse, error)
	Authenticate(ctx context.Context, token string) (*internal.Session, error)
	CurrentUser(ctx context.Context, session *internal.Session) (*CurrentUserResponse, error)
	SetContext(ctx context.Context, session *internal.Session, dto SetContextDTO) (*ContextResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service      ServiceAPI
	SecureCookie bool
}

func NewHandler(svc ServiceAPI, secureCookie bool) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler:  transport.NewBaseHandler(lg),
		Service:      svc,
		SecureCookie: secureCookie,
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// MockLogin handles POST /api/auth/mock-login
func (h *Handler) MockLogin(w http.ResponseWriter, r *http.Request) {
	var dto MockLoginDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	res, err := h.Service.MockLogin(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("MockLogin: service error", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	h.WriteJSON(w, http.StatusOK, res)
}

// Logout handles POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	h.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CurrentUser handles GET /api/current-user
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	res, err := h.Service.CurrentUser(r.Context(), session)
	if err != nil {
		h.Logger.Warn("CurrentUser: service error", "error", err, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}

// SetContext handles POST /api/set-context
func (h *Handler) SetContext(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	var dto SetContextDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	res, err := h.Service.SetContext(r.Context(), session, dto)
	if err != nil {
		h.Logger.Warn("SetContext: service error", "error", err, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	h.WriteJSON(w, http.StatusOK, res)
}

// Token returns the session token from the cookie or a Bearer header.
func (h *Handler) Token(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return h.ExtractTokenFromHeader(r)
}

// SessionMiddleware attaches the caller's session to the request when a valid
// token is present. Requests without one pass through anonymously and are
// rejected by handlers that need a session; a bad token is a 401.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.Token(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := h.Service.Authenticate(r.Context(), token)
		if err != nil {
			h.Logger.Debug("session rejected", "path", r.URL.Path, "error", err)
			h.HandleServiceError(w, r, err)
			return
		}

		ctx := internal.ContextWithSession(r.Context(), session)
		ctx = logger.WithActor(ctx, session.UserID, session.CompanyICO)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
