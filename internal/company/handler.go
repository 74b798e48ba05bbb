package company

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/digital-notary/internal/audit"
	"github.com/frahmantamala/digital-notary/internal/transport"
	"github.com/frahmantamala/digital-notary/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Connect(ctx context.Context, actorID string, dto ConnectDTO) (*ConnectResponse, error)
	Profile(ctx context.Context, actorID, ico string) (*Company, error)
	UpdateSecuritySettings(ctx context.Context, actorID, ico string, dto SecuritySettingsDTO) (*Company, error)
	AuditLog(ctx context.Context, actorID, ico string) ([]*audit.Entry, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Connect handles POST /api/companies/connect
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	var dto ConnectDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	resp, err := h.Service.Connect(r.Context(), session.UserID, dto)
	if err != nil {
		h.Logger.Warn("Connect: service error", "error", err, "ico", dto.ICO, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

// Profile handles GET /api/companies/{ico}
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	ico := chi.URLParam(r, "ico")
	c, err := h.Service.Profile(r.Context(), session.UserID, ico)
	if err != nil {
		h.Logger.Warn("Profile: service error", "error", err, "ico", ico, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, c)
}

// UpdateSecuritySettings handles POST /api/companies/{ico}/security-settings
func (h *Handler) UpdateSecuritySettings(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	var dto SecuritySettingsDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	ico := chi.URLParam(r, "ico")
	c, err := h.Service.UpdateSecuritySettings(r.Context(), session.UserID, ico, dto)
	if err != nil {
		h.Logger.Warn("UpdateSecuritySettings: service error", "error", err, "ico", ico, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, c)
}

// AuditLog handles GET /api/companies/{ico}/audit-log
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	ico := chi.URLParam(r, "ico")
	entries, err := h.Service.AuditLog(r.Context(), session.UserID, ico)
	if err != nil {
		h.Logger.Warn("AuditLog: service error", "error", err, "ico", ico, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, AuditLogResponse{Entries: entries})
}
