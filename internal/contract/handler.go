package contract

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/transport"
	"github.com/frahmantamala/digital-notary/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor Actor, dto CreateDTO) (*Contract, error)
	Get(ctx context.Context, actor Actor, id string) (*Contract, error)
	ListByOwner(ctx context.Context, actor Actor, ownerEmail string) ([]*Contract, error)
	Rename(ctx context.Context, actor Actor, id string, dto UpdateDTO) (*Contract, error)
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

func actorOf(s *internal.Session) Actor {
	return Actor{UserID: s.UserID, Email: s.Email}
}

// Create handles POST /api/contracts
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	var dto CreateDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	c, err := h.Service.Create(r.Context(), actorOf(session), dto)
	if err != nil {
		h.Logger.Warn("Create: service error", "error", err, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, c)
}

// Get handles GET /api/contracts/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	c, err := h.Service.Get(r.Context(), actorOf(session), id)
	if err != nil {
		h.Logger.Warn("Get: service error", "error", err, "contract_id", id, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, c)
}

// List handles GET /api/contracts?ownerEmail=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	contracts, err := h.Service.ListByOwner(r.Context(), actorOf(session), r.URL.Query().Get("ownerEmail"))
	if err != nil {
		h.Logger.Warn("List: service error", "error", err, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Contracts: contracts})
}

// Rename handles PATCH /api/contracts/{id}
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	var dto UpdateDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	id := chi.URLParam(r, "id")
	c, err := h.Service.Rename(r.Context(), actorOf(session), id, dto)
	if err != nil {
		h.Logger.Warn("Rename: service error", "error", err, "contract_id", id, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, c)
}

// Types handles GET /api/contract-types
func (h *Handler) Types(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, TypesResponse{Types: Catalog()})
}
