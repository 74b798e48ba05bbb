package office

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/digital-notary/internal/transport"
	"github.com/frahmantamala/digital-notary/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateOffice(ctx context.Context, actorID string, dto CreateDTO) (*View, error)
	GetOffice(ctx context.Context, actorID, officeID string) (*View, error)
	ListOffices(ctx context.Context, actorID string) ([]*View, error)
	ListInvitations(ctx context.Context, actorID string) ([]*InvitationView, error)
	InviteParticipant(ctx context.Context, actorID, officeID string, dto InviteDTO) (*ParticipantView, error)
	RespondToInvitation(ctx context.Context, actorID, officeID, participantID string, dto RespondDTO) (*Participant, error)
	SignDocument(ctx context.Context, actorID, officeID, documentID string) (*SignResponse, error)
	UpdateOffice(ctx context.Context, actorID, officeID string, dto UpdateDTO) (*View, error)
	ListParticipants(ctx context.Context, actorID, officeID string) ([]*ParticipantView, error)
	ListDocuments(ctx context.Context, actorID, officeID string) ([]*DocumentView, error)
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

// Create handles POST /api/virtual-offices
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	var dto CreateDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	v, err := h.Service.CreateOffice(r.Context(), session.UserID, dto)
	if err != nil {
		h.Logger.Warn("Create: service error", "error", err, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, v)
}

// List handles GET /api/virtual-offices
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	offices, err := h.Service.ListOffices(r.Context(), session.UserID)
	if err != nil {
		h.Logger.Error("List: service error", "error", err, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Offices: offices})
}

// Invitations handles GET /api/virtual-offices/invitations
func (h *Handler) Invitations(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	invitations, err := h.Service.ListInvitations(r.Context(), session.UserID)
	if err != nil {
		h.Logger.Error("Invitations: service error", "error", err, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, InvitationsResponse{Invitations: invitations})
}

// Get handles GET /api/virtual-offices/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	v, err := h.Service.GetOffice(r.Context(), session.UserID, id)
	if err != nil {
		h.Logger.Warn("Get: service error", "error", err, "office_id", id, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, v)
}

// Update handles PATCH /api/virtual-offices/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	var dto UpdateDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	id := chi.URLParam(r, "id")
	v, err := h.Service.UpdateOffice(r.Context(), session.UserID, id, dto)
	if err != nil {
		h.Logger.Warn("Update: service error", "error", err, "office_id", id, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, v)
}

// Participants handles GET /api/virtual-offices/{id}/participants
func (h *Handler) Participants(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	participants, err := h.Service.ListParticipants(r.Context(), session.UserID, id)
	if err != nil {
		h.Logger.Warn("Participants: service error", "error", err, "office_id", id, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ParticipantsResponse{Participants: participants})
}

// Invite handles POST /api/virtual-offices/{id}/participants
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	var dto InviteDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	id := chi.URLParam(r, "id")
	p, err := h.Service.InviteParticipant(r.Context(), session.UserID, id, dto)
	if err != nil {
		h.Logger.Warn("Invite: service error", "error", err, "office_id", id, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, p)
}

// Respond handles PATCH /api/virtual-offices/{id}/participants/{participantId}
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	var dto RespondDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	officeID := chi.URLParam(r, "id")
	participantID := chi.URLParam(r, "participantId")
	p, err := h.Service.RespondToInvitation(r.Context(), session.UserID, officeID, participantID, dto)
	if err != nil {
		h.Logger.Warn("Respond: service error", "error", err, "office_id", officeID, "participant_id", participantID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

// Documents handles GET /api/virtual-offices/{id}/documents
func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	documents, err := h.Service.ListDocuments(r.Context(), session.UserID, id)
	if err != nil {
		h.Logger.Warn("Documents: service error", "error", err, "office_id", id, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, DocumentsResponse{Documents: documents})
}

// Sign handles POST /api/virtual-offices/{id}/documents/{documentId}/sign
func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	officeID := chi.URLParam(r, "id")
	documentID := chi.URLParam(r, "documentId")
	res, err := h.Service.SignDocument(r.Context(), session.UserID, officeID, documentID)
	if err != nil {
		h.Logger.Warn("Sign: service error", "error", err, "office_id", officeID, "document_id", documentID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}
