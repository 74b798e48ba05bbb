package mandate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/digital-notary/internal/transport"
	"github.com/frahmantamala/digital-notary/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Invite(ctx context.Context, actorID, ico string, dto InviteDTO) (*Mandate, error)
	Respond(ctx context.Context, actorID, mandateID string, dto RespondDTO) (*Mandate, error)
	ListForUser(ctx context.Context, userID string) ([]*View, error)
	ListForCompany(ctx context.Context, actorID, ico string) ([]*View, error)
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

// Invite handles POST /api/companies/{ico}/mandates
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	var dto InviteDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	ico := chi.URLParam(r, "ico")
	m, err := h.Service.Invite(r.Context(), session.UserID, ico, dto)
	if err != nil {
		h.Logger.Warn("Invite: service error", "error", err, "ico", ico, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, m)
}

// ListForCompany handles GET /api/companies/{ico}/mandates
func (h *Handler) ListForCompany(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	ico := chi.URLParam(r, "ico")
	views, err := h.Service.ListForCompany(r.Context(), session.UserID, ico)
	if err != nil {
		h.Logger.Warn("ListForCompany: service error", "error", err, "ico", ico, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Mandates: views})
}

// ListMine handles GET /api/mandates
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	views, err := h.Service.ListForUser(r.Context(), session.UserID)
	if err != nil {
		h.Logger.Error("ListMine: service error", "error", err, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Mandates: views})
}

// Respond handles PATCH /api/mandates/{id}
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	var dto RespondDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	id := chi.URLParam(r, "id")
	m, err := h.Service.Respond(r.Context(), session.UserID, id, dto)
	if err != nil {
		h.Logger.Warn("Respond: service error", "error", err, "mandate_id", id, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, m)
}
