package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/digital-notary/internal"
	auditDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/audit"
	"github.com/oklog/ulid/v2"
)

// Repository is append-only: entries are never updated and only a full
// data reset removes them.
type Repository interface {
	Append(ctx context.Context, l *auditDatamodel.Log) error
	ListByCompany(ctx context.Context, companyID string) ([]*auditDatamodel.Log, error)
	ListByUser(ctx context.Context, userID string) ([]*auditDatamodel.Log, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Record(ctx context.Context, action, details, userID string, companyID *string) (*Entry, error) {
	l := &auditDatamodel.Log{
		ID:        ulid.Make().String(),
		Timestamp: s.now(),
		Action:    action,
		Details:   details,
		UserID:    userID,
		CompanyID: companyID,
	}
	if err := s.repo.Append(ctx, l); err != nil {
		s.logger.Error("failed to append audit log", "action", action, "error", err)
		return nil, internal.NewStoreError(err)
	}
	return FromDataModel(l), nil
}

// ListForCompany returns the company's entries newest first.
func (s *Service) ListForCompany(ctx context.Context, companyID string) ([]*Entry, error) {
	logs, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, internal.NewStoreError(err)
	}
	return FromDataModelSlice(logs), nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]*Entry, error) {
	logs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal.NewStoreError(err)
	}
	return FromDataModelSlice(logs), nil
}
