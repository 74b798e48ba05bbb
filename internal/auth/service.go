package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/mandate"
	"github.com/frahmantamala/digital-notary/internal/user"
)

type UserService interface {
	FindOrCreate(ctx context.Context, dto user.FindOrCreateDTO) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type MandateService interface {
	ListForUser(ctx context.Context, userID string) ([]*mandate.View, error)
	RequireMandate(ctx context.Context, userID, ico string) error
}

type Service struct {
	users    UserService
	mandates MandateService
	tokens   TokenGenerator
	logger   *slog.Logger
}

func NewService(users UserService, mandates MandateService, tokens TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		mandates: mandates,
		tokens:   tokens,
		logger:   logger,
	}
}

// MockLogin finds or registers the user behind the email and opens a personal
// session for them.
func (s *Service) MockLogin(ctx context.Context, dto MockLoginDTO) (*LoginResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.FindOrCreate(ctx, user.FindOrCreateDTO{Email: dto.Email, Name: dto.Name})
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Generate(&internal.Session{
		UserID:  u.ID,
		Email:   u.Email,
		Context: internal.ContextPersonal,
	})
	if err != nil {
		return nil, internal.NewInternalError("failed to issue session", err)
	}

	s.logger.Info("user logged in", "user_id", u.ID)
	return &LoginResponse{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate turns a session token into the caller's session. The user
// behind the token must still exist; a reset can remove them while the token
// is valid.
func (s *Service) Authenticate(ctx context.Context, token string) (*internal.Session, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	session := claims.Session()
	if _, err := s.users.GetByID(ctx, session.UserID); err != nil {
		if isNotFound(err) {
			return nil, internal.ErrInvalidToken
		}
		return nil, err
	}
	return session, nil
}

func isNotFound(err error) bool {
	appErr, ok := internal.IsAppError(err)
	return ok && appErr.Type == internal.ErrorTypeNotFound
}

func (s *Service) CurrentUser(ctx context.Context, session *internal.Session) (*CurrentUserResponse, error) {
	u, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if isNotFound(err) {
			// the token outlived its user, e.g. after a data reset
			return nil, internal.ErrInvalidToken
		}
		return nil, err
	}

	mandates, err := s.mandates.ListForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &CurrentUserResponse{
		User:     u,
		Mandates: mandates,
		Context:  SessionContext{Type: session.Context, CompanyICO: session.CompanyICO},
	}, nil
}

// SetContext switches the session between personal and company context and
// reissues the token. A company context needs an active mandate.
func (s *Service) SetContext(ctx context.Context, session *internal.Session, dto SetContextDTO) (*ContextResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	next := &internal.Session{UserID: session.UserID, Email: session.Email, Context: dto.Type}
	if dto.Type == internal.ContextCompany {
		if err := s.mandates.RequireMandate(ctx, session.UserID, dto.CompanyICO); err != nil {
			return nil, err
		}
		next.CompanyICO = dto.CompanyICO
	}

	token, expiresAt, err := s.tokens.Generate(next)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue session", err)
	}

	s.logger.Info("session context changed", "user_id", session.UserID, "context", next.Context, "ico", next.CompanyICO)
	return &ContextResponse{
		Context:   SessionContext{Type: next.Context, CompanyICO: next.CompanyICO},
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

