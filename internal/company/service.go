package company

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/audit"
	companyDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/company"
	mandateDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/mandate"
	"github.com/frahmantamala/digital-notary/internal/core/events"
	"github.com/google/uuid"
)

type Repository interface {
	// CreateWithMandate stores a new company together with the mandate of
	// the person who connected it, atomically.
	CreateWithMandate(ctx context.Context, c *companyDatamodel.Company, m *mandateDatamodel.Mandate) error
	GetByID(ctx context.Context, id string) (*companyDatamodel.Company, error)
	GetByICO(ctx context.Context, ico string) (*companyDatamodel.Company, error)
	ListByIDs(ctx context.Context, ids []string) ([]*companyDatamodel.Company, error)
	UpdateSecurity(ctx context.Context, id string, enforceTwoFactorAuth bool) (*companyDatamodel.Company, error)
}

// Authorizer answers whether a user may act for a company.
type Authorizer interface {
	RequireMandate(ctx context.Context, userID, ico string) error
	RequirePrivileged(ctx context.Context, userID, ico string) error
}

type AuditLister interface {
	ListForCompany(ctx context.Context, companyID string) ([]*audit.Entry, error)
}

type EventPublisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type Service struct {
	repo     Repository
	registry Registry
	authz    Authorizer
	audit    AuditLister
	bus      EventPublisher
	logger   *slog.Logger
}

func NewService(repo Repository, registry Registry, authz Authorizer, auditLister AuditLister, bus EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		authz:    authz,
		audit:    auditLister,
		bus:      bus,
		logger:   logger,
	}
}

func companyNotFound() *internal.AppError {
	return internal.NewNotFoundError("Company not found", internal.ErrCodeCompanyNotFound)
}

// Connect registers a company from the business register and grants the
// verified statutory representative an active mandate.
func (s *Service) Connect(ctx context.Context, actorID string, dto ConnectDTO) (*ConnectResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	record, ok := s.registry.Lookup(dto.ICO)
	if !ok {
		return nil, internal.NewNotFoundError("IČO was not found in the business register", internal.ErrCodeRegistryNotFound)
	}

	now := time.Now().UTC()
	c := &companyDatamodel.Company{
		ID:         uuid.NewString(),
		ICO:        record.ICO,
		Name:       record.Name,
		Address:    record.Address,
		LegalForm:  record.LegalForm,
		Status:     StatusActive,
		VerifiedAt: &now,
	}
	m := &mandateDatamodel.Mandate{
		ID:                 uuid.NewString(),
		UserID:             actorID,
		CompanyID:          c.ID,
		Role:               record.StatutoryRole,
		Scope:              record.AuthorizingScope,
		ValidFrom:          now,
		Status:             mandateDatamodel.StatusActive,
		VerificationSource: mandateDatamodel.SourceEUDI,
	}

	if err := s.repo.CreateWithMandate(ctx, c, m); err != nil {
		if errors.Is(err, internal.ErrDuplicate) {
			return nil, internal.NewConflictError("Company is already connected", internal.ErrCodeDuplicateCompany)
		}
		s.logger.Error("failed to connect company", "ico", dto.ICO, "error", err)
		return nil, internal.FromStore(err, nil)
	}

	s.logger.Info("company connected", "company_id", c.ID, "ico", c.ICO, "user_id", actorID)
	s.publish(ctx, events.NewCompanyConnectedEvent(actorID, c.ID, c.ICO, c.Name))

	return &ConnectResponse{Company: FromDataModel(c), Record: record}, nil
}

func (s *Service) GetByICO(ctx context.Context, ico string) (*Company, error) {
	c, err := s.repo.GetByICO(ctx, ico)
	if err != nil {
		return nil, internal.FromStore(err, companyNotFound())
	}
	return FromDataModel(c), nil
}

// ListByIDs returns the companies keyed by id.
func (s *Service) ListByIDs(ctx context.Context, ids []string) (map[string]*Company, error) {
	companies, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, internal.FromStore(err, nil)
	}
	out := make(map[string]*Company, len(companies))
	for _, c := range companies {
		out[c.ID] = FromDataModel(c)
	}
	return out, nil
}

func (s *Service) Profile(ctx context.Context, actorID, ico string) (*Company, error) {
	c, err := s.GetByICO(ctx, ico)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireMandate(ctx, actorID, ico); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateSecuritySettings(ctx context.Context, actorID, ico string, dto SecuritySettingsDTO) (*Company, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	c, err := s.GetByICO(ctx, ico)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequirePrivileged(ctx, actorID, ico); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateSecurity(ctx, c.ID, *dto.EnforceTwoFactorAuth)
	if err != nil {
		return nil, internal.FromStore(err, companyNotFound())
	}

	s.logger.Info("company security settings updated",
		"company_id", c.ID,
		"user_id", actorID,
		"enforce_two_factor_auth", updated.EnforceTwoFactorAuth)
	s.publish(ctx, events.NewSecurityUpdatedEvent(actorID, c.ID, updated.EnforceTwoFactorAuth))

	return FromDataModel(updated), nil
}

func (s *Service) AuditLog(ctx context.Context, actorID, ico string) ([]*audit.Entry, error) {
	c, err := s.GetByICO(ctx, ico)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireMandate(ctx, actorID, ico); err != nil {
		return nil, err
	}
	return s.audit.ListForCompany(ctx, c.ID)
}

// publish delivers the event to subscribers; the write it describes has
// already committed, so a failing subscriber is only logged.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
