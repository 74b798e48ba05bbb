package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/digital-notary/internal"
	userDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/user"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	GetByID(ctx context.Context, id string) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*userDatamodel.User, error)
}

var ErrUserNotFound = internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.FromStore(err, internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound))
	}
	return FromDataModel(u), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, internal.FromStore(err, internal.NewNotFoundError("No user is registered with this email", internal.ErrCodeUserNotFound))
	}
	return FromDataModel(u), nil
}

// ListByIDs returns the users keyed by id; unknown ids are simply absent.
func (s *Service) ListByIDs(ctx context.Context, ids []string) (map[string]*User, error) {
	users, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, internal.NewStoreError(err)
	}
	out := make(map[string]*User, len(users))
	for _, u := range users {
		out[u.ID] = FromDataModel(u)
	}
	return out, nil
}

// FindOrCreate resolves a login to a user, registering unknown emails.
func (s *Service) FindOrCreate(ctx context.Context, dto FindOrCreateDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	email := NormalizeEmail(dto.Email)
	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return FromDataModel(existing), nil
	}
	if !errors.Is(err, internal.ErrNotFound) {
		s.logger.Error("failed to look up user by email", "error", err)
		return nil, internal.NewStoreError(err)
	}

	name := strings.TrimSpace(dto.Name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	u := &userDatamodel.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, internal.ErrDuplicate) {
			// a concurrent login registered the same email first
			existing, getErr := s.repo.GetByEmail(ctx, email)
			if getErr != nil {
				return nil, internal.FromStore(getErr, ErrUserNotFound)
			}
			return FromDataModel(existing), nil
		}
		s.logger.Error("failed to create user", "error", err)
		return nil, internal.NewStoreError(err)
	}

	s.logger.Info("user registered", "user_id", u.ID)
	return FromDataModel(u), nil
}
