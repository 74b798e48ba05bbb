package contract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/digital-notary/internal"
	contractDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/contract"
	"github.com/frahmantamala/digital-notary/internal/core/events"
	"github.com/frahmantamala/digital-notary/internal/user"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *contractDatamodel.Contract) error
	GetByID(ctx context.Context, id string) (*contractDatamodel.Contract, error)
	ListByOwner(ctx context.Context, ownerEmail string) ([]*contractDatamodel.Contract, error)
	ListByIDs(ctx context.Context, ids []string) ([]*contractDatamodel.Contract, error)
	// Update merges updates into the row, ignoring id and createdAt keys.
	Update(ctx context.Context, id string, updates map[string]interface{}) (*contractDatamodel.Contract, error)
}

// SharedAccess reports whether a contract is visible to a user through an
// office they have joined.
type SharedAccess interface {
	HasContractAccess(ctx context.Context, userID, contractID string) (bool, error)
}

type EventPublisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

// Actor is the caller as far as contract ownership is concerned.
type Actor struct {
	UserID string
	Email  string
}

type Service struct {
	repo   Repository
	shared SharedAccess
	bus    EventPublisher
	logger *slog.Logger
}

func NewService(repo Repository, bus EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

// SetSharedAccess wires the office workflow in after construction; offices
// depend on contracts, so the dependency cannot be passed to NewService.
func (s *Service) SetSharedAccess(shared SharedAccess) {
	s.shared = shared
}

func contractNotFound() *internal.AppError {
	return internal.NewNotFoundError("Contract not found", internal.ErrCodeContractNotFound)
}

func (s *Service) Create(ctx context.Context, actor Actor, dto CreateDTO) (*Contract, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := DecodeContent(dto.Type, dto.Content); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &Contract{
		ID:         uuid.NewString(),
		Title:      strings.TrimSpace(dto.Title),
		Type:       dto.Type,
		Content:    dto.Content,
		OwnerEmail: user.NormalizeEmail(actor.Email),
		Status:     StatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, ToDataModel(c)); err != nil {
		s.logger.Error("failed to create contract", "owner", c.OwnerEmail, "error", err)
		return nil, internal.NewStoreError(err)
	}

	s.logger.Info("contract created", "contract_id", c.ID, "type", c.Type, "user_id", actor.UserID)
	s.publish(ctx, events.NewContractCreatedEvent(actor.UserID, c.ID, c.Type, c.Title))

	return c, nil
}

// Get returns the contract to its owner or to an accepted participant of an
// office it is attached to.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (*Contract, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.FromStore(err, contractNotFound())
	}
	c := FromDataModel(row)

	if c.OwnerEmail == user.NormalizeEmail(actor.Email) {
		return c, nil
	}
	if s.shared != nil {
		ok, err := s.shared.HasContractAccess(ctx, actor.UserID, id)
		if err != nil {
			return nil, err
		}
		if ok {
			return c, nil
		}
	}
	return nil, internal.NewForbiddenError("You do not have access to this contract", internal.ErrCodeNotContractOwner)
}

// ListByOwner lists the contracts owned by ownerEmail, which must be the
// caller's own address. An empty ownerEmail means the caller.
func (s *Service) ListByOwner(ctx context.Context, actor Actor, ownerEmail string) ([]*Contract, error) {
	self := user.NormalizeEmail(actor.Email)
	if ownerEmail = user.NormalizeEmail(ownerEmail); ownerEmail == "" {
		ownerEmail = self
	}
	if ownerEmail != self {
		return nil, internal.NewForbiddenError("You can only list your own contracts", internal.ErrCodeNotContractOwner)
	}

	rows, err := s.repo.ListByOwner(ctx, ownerEmail)
	if err != nil {
		return nil, internal.NewStoreError(err)
	}
	return FromDataModelSlice(rows), nil
}

// Rename changes the title of a draft contract owned by the caller.
func (s *Service) Rename(ctx context.Context, actor Actor, id string, dto UpdateDTO) (*Contract, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.FromStore(err, contractNotFound())
	}
	if row.OwnerEmail != user.NormalizeEmail(actor.Email) {
		return nil, internal.NewForbiddenError("Only the owner can change this contract", internal.ErrCodeNotContractOwner)
	}
	if row.Status != StatusDraft {
		return nil, internal.NewConflictError("Only draft contracts can be changed", internal.ErrCodeInvalidStatus)
	}

	updated, err := s.repo.Update(ctx, id, map[string]interface{}{
		"title":      strings.TrimSpace(dto.Title),
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return nil, internal.FromStore(err, contractNotFound())
	}
	return FromDataModel(updated), nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
