package mandate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/company"
	companyDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/company"
	mandateDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/mandate"
	"github.com/frahmantamala/digital-notary/internal/core/events"
	"github.com/frahmantamala/digital-notary/internal/user"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *mandateDatamodel.Mandate) error
	GetByID(ctx context.Context, id string) (*mandateDatamodel.Mandate, error)
	GetByUserAndCompany(ctx context.Context, userID, companyID string) (*mandateDatamodel.Mandate, error)
	ListByUser(ctx context.Context, userID string) ([]*mandateDatamodel.Mandate, error)
	ListByCompany(ctx context.Context, companyID string) ([]*mandateDatamodel.Mandate, error)
	// TransitionStatus moves the mandate to `to` only while it is still in
	// `from`; otherwise it returns ErrStatusChanged.
	TransitionStatus(ctx context.Context, id, from, to string) (*mandateDatamodel.Mandate, error)
	// ListOverdue returns active mandates whose validUntil is at or before now.
	ListOverdue(ctx context.Context, now time.Time) ([]*mandateDatamodel.Mandate, error)
}

// CompanyLookup is the part of the company store mandates depend on.
type CompanyLookup interface {
	GetByICO(ctx context.Context, ico string) (*companyDatamodel.Company, error)
	GetByID(ctx context.Context, id string) (*companyDatamodel.Company, error)
	ListByIDs(ctx context.Context, ids []string) ([]*companyDatamodel.Company, error)
}

type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	ListByIDs(ctx context.Context, ids []string) (map[string]*user.User, error)
}

type EventPublisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type Option func(*Service)

// WithValidityEnforcement makes authorization honour validFrom/validUntil.
func WithValidityEnforcement(enforce bool) Option {
	return func(s *Service) {
		s.enforceValidity = enforce
	}
}

type Service struct {
	repo            Repository
	companies       CompanyLookup
	users           UserLookup
	bus             EventPublisher
	logger          *slog.Logger
	enforceValidity bool
	now             func() time.Time
}

func NewService(repo Repository, companies CompanyLookup, users UserLookup, bus EventPublisher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		companies: companies,
		users:     users,
		bus:       bus,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetActiveMandate returns the user's active mandate for the company, or nil
// when there is none. Only store failures are errors.
func (s *Service) GetActiveMandate(ctx context.Context, userID, ico string) (*Mandate, error) {
	c, err := s.companies.GetByICO(ctx, ico)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, nil
		}
		return nil, internal.FromStore(err, nil)
	}

	m, err := s.repo.GetByUserAndCompany(ctx, userID, c.ID)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, nil
		}
		return nil, internal.FromStore(err, nil)
	}

	mandate := FromDataModel(m)
	if !mandate.IsActive(s.now(), s.enforceValidity) {
		return nil, nil
	}
	return mandate, nil
}

func (s *Service) RequireMandate(ctx context.Context, userID, ico string) error {
	m, err := s.GetActiveMandate(ctx, userID, ico)
	if err != nil {
		return err
	}
	if m == nil {
		return internal.NewForbiddenError(
			fmt.Sprintf("You need an active mandate for company %s", ico),
			internal.ErrCodeMandateRequired)
	}
	return nil
}

func (s *Service) RequirePrivileged(ctx context.Context, userID, ico string) error {
	m, err := s.GetActiveMandate(ctx, userID, ico)
	if err != nil {
		return err
	}
	if m == nil {
		return internal.NewForbiddenError(
			fmt.Sprintf("You need an active mandate for company %s", ico),
			internal.ErrCodeMandateRequired)
	}
	if !m.IsPrivileged() {
		s.logger.Warn("privileged action denied", "user_id", userID, "ico", ico, "role", m.Role)
		return internal.NewForbiddenError(
			fmt.Sprintf("Only %s may perform this action, your role is %s", strings.Join(PrivilegedRoles, " or "), m.Role),
			internal.ErrCodeRoleNotAllowed)
	}
	return nil
}

// Invite creates a pending mandate for an existing user. Only Konateľ and
// Prokurista may invite.
func (s *Service) Invite(ctx context.Context, actorID, ico string, dto InviteDTO) (*Mandate, error) {
	if dto.ValidFrom == nil {
		now := s.now()
		dto.ValidFrom = &now
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.companies.GetByICO(ctx, ico)
	if err != nil {
		return nil, internal.FromStore(err, internal.NewNotFoundError("Company not found", internal.ErrCodeCompanyNotFound))
	}
	if err := s.RequirePrivileged(ctx, actorID, ico); err != nil {
		return nil, err
	}

	invitee, err := s.users.GetByEmail(ctx, dto.Email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	m := &mandateDatamodel.Mandate{
		ID:                 uuid.NewString(),
		UserID:             invitee.ID,
		CompanyID:          c.ID,
		Role:               strings.TrimSpace(dto.Role),
		Scope:              dto.Scope,
		ValidFrom:          dto.ValidFrom.UTC(),
		ValidUntil:         dto.ValidUntil,
		Status:             StatusPendingConfirmation,
		InvitedByID:        &actorID,
		VerificationSource: SourceInvitation,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if errors.Is(err, internal.ErrDuplicate) {
			return nil, internal.NewConflictError("User already has a mandate for this company", internal.ErrCodeDuplicateMandate)
		}
		s.logger.Error("failed to create mandate", "company_id", c.ID, "error", err)
		return nil, internal.FromStore(err, nil)
	}

	s.logger.Info("mandate invited",
		"mandate_id", m.ID,
		"company_id", c.ID,
		"invited_by", actorID,
		"role", m.Role)
	s.publish(ctx, events.NewMandateInvitedEvent(actorID, c.ID, m.ID, invitee.Email, m.Role))

	return FromDataModel(m), nil
}

// Respond lets the mandate's own user accept or reject a pending mandate.
func (s *Service) Respond(ctx context.Context, actorID, mandateID string, dto RespondDTO) (*Mandate, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, mandateID)
	if err != nil {
		return nil, internal.FromStore(err, internal.NewNotFoundError("Mandate not found", internal.ErrCodeMandateNotFound))
	}
	if current.UserID != actorID {
		return nil, internal.NewForbiddenError("Only the invited user can answer this mandate", internal.ErrCodeNotMandateOwner)
	}
	m := FromDataModel(current)
	if err := m.answer(dto.Status); err != nil {
		return nil, internal.NewValidationError(
			fmt.Sprintf("Mandate cannot move from %s to %s", current.Status, dto.Status),
			internal.ErrCodeInvalidTransition)
	}

	updated, err := s.repo.TransitionStatus(ctx, mandateID, current.Status, m.Status)
	if err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, internal.NewConflictError("Mandate was answered concurrently", internal.ErrCodeInvalidTransition)
		}
		return nil, internal.FromStore(err, internal.NewNotFoundError("Mandate not found", internal.ErrCodeMandateNotFound))
	}

	s.logger.Info("mandate answered", "mandate_id", mandateID, "user_id", actorID, "status", updated.Status)
	s.publish(ctx, events.NewMandateRespondedEvent(actorID, updated.CompanyID, updated.ID, updated.Status))

	return FromDataModel(updated), nil
}

// Revoke withdraws an active mandate. It is an operator action and has no
// HTTP route.
func (s *Service) Revoke(ctx context.Context, mandateID string) (*Mandate, error) {
	current, err := s.repo.GetByID(ctx, mandateID)
	if err != nil {
		return nil, internal.FromStore(err, internal.NewNotFoundError("Mandate not found", internal.ErrCodeMandateNotFound))
	}

	m := FromDataModel(current)
	if err := m.Revoke(); err != nil {
		return nil, internal.NewValidationError(
			fmt.Sprintf("Mandate cannot move from %s to %s", current.Status, StatusRevoked),
			internal.ErrCodeInvalidTransition)
	}

	updated, err := s.repo.TransitionStatus(ctx, mandateID, current.Status, m.Status)
	if err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, internal.NewConflictError("Mandate changed concurrently", internal.ErrCodeInvalidTransition)
		}
		return nil, internal.FromStore(err, internal.NewNotFoundError("Mandate not found", internal.ErrCodeMandateNotFound))
	}

	s.logger.Info("mandate revoked", "mandate_id", mandateID, "company_id", updated.CompanyID)
	return FromDataModel(updated), nil
}

// ExpireOverdue moves active mandates past their validUntil to expired and
// reports how many it changed. Mandates answered concurrently are skipped.
func (s *Service) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.repo.ListOverdue(ctx, now)
	if err != nil {
		return 0, internal.FromStore(err, nil)
	}

	expired := 0
	for _, row := range rows {
		m := FromDataModel(row)
		if err := m.Expire(); err != nil {
			continue
		}
		if _, err := s.repo.TransitionStatus(ctx, row.ID, row.Status, m.Status); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				continue
			}
			return expired, internal.FromStore(err, nil)
		}
		expired++
		s.logger.Info("mandate expired", "mandate_id", row.ID, "company_id", row.CompanyID)
	}
	return expired, nil
}

// ListForUser returns every mandate of the user with its company.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*View, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal.FromStore(err, nil)
	}

	ids := make([]string, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.CompanyID)
	}
	companies, err := s.companies.ListByIDs(ctx, ids)
	if err != nil {
		return nil, internal.FromStore(err, nil)
	}
	byID := make(map[string]*company.Company, len(companies))
	for _, c := range companies {
		byID[c.ID] = company.FromDataModel(c)
	}

	views := make([]*View, 0, len(rows))
	for _, m := range rows {
		c, ok := byID[m.CompanyID]
		if !ok {
			return nil, internal.NewInternalError("mandate references a missing company",
				fmt.Errorf("mandate %s: company %s", m.ID, m.CompanyID))
		}
		views = append(views, &View{Mandate: FromDataModel(m), Company: c})
	}
	return views, nil
}

// ListForCompany returns the company's mandates with their users. The caller
// needs an active mandate for the company.
func (s *Service) ListForCompany(ctx context.Context, actorID, ico string) ([]*View, error) {
	c, err := s.companies.GetByICO(ctx, ico)
	if err != nil {
		return nil, internal.FromStore(err, internal.NewNotFoundError("Company not found", internal.ErrCodeCompanyNotFound))
	}
	if err := s.RequireMandate(ctx, actorID, ico); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByCompany(ctx, c.ID)
	if err != nil {
		return nil, internal.FromStore(err, nil)
	}

	ids := make([]string, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.UserID)
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*View, 0, len(rows))
	for _, m := range rows {
		u, ok := users[m.UserID]
		if !ok {
			return nil, internal.NewInternalError("mandate references a missing user",
				fmt.Errorf("mandate %s: user %s", m.ID, m.UserID))
		}
		views = append(views, &View{Mandate: FromDataModel(m), User: u})
	}
	return views, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
