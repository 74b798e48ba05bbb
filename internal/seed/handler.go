package seed

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/transport"
	"github.com/frahmantamala/digital-notary/pkg/logger"
	"gorm.io/gorm"
)

type Resetter interface {
	Reset(ctx context.Context) error
}

// Service resets a database to the demo dataset.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

func (s *Service) Reset(ctx context.Context) error {
	if err := Reset(ctx, s.db); err != nil {
		s.logger.Error("failed to reset demo data", "error", err)
		return internal.NewStoreError(err)
	}
	s.logger.Info("demo data reset")
	return nil
}

type ResetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Handler struct {
	*transport.BaseHandler
	Service Resetter
	allow   bool
}

func NewHandler(svc Resetter, allow bool) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		allow:       allow,
	}
}

// ResetData handles POST /api/reset-data
func (h *Handler) ResetData(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Session(w, r)
	if !ok {
		return
	}

	if !h.allow {
		h.Logger.Warn("ResetData: reset disabled", "user_id", session.UserID)
		h.WriteAppError(w, internal.NewForbiddenError("Data reset is disabled", internal.ErrCodeResetDisabled))
		return
	}

	if err := h.Service.Reset(r.Context()); err != nil {
		h.Logger.Warn("ResetData: service error", "error", err, "user_id", session.UserID)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ResetResponse{Success: true, Message: "Demo data restored"})
}
