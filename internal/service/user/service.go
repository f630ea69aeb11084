package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/voucher-console/internal/auth"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/pkg/validate"
)

// Service implements account logic.
type Service struct {
	repo        Repository
	tokens      TokenIssuer
	defaultRole domain.Role
	now         func() time.Time
}

// NewService creates a user service. New accounts get the viewer role.
func NewService(repo Repository, tokens TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens, defaultRole: domain.Viewer{}, now: time.Now}
}

// SetDefaultRole changes the role given to newly registered accounts.
func (s *Service) SetDefaultRole(r domain.Role) { s.defaultRole = r }

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Register validates and creates an account.
func (s *Service) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	reg.Username = strings.ToLower(strings.TrimSpace(reg.Username))
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	if err := validate.Struct(reg); err != nil {
		return nil, err
	}
	if reg.ConfirmPassword != "" && reg.ConfirmPassword != reg.Password {
		return nil, ErrPasswordMismatch
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		ID:        uuid.New().String(),
		Username:  reg.Username,
		Email:     reg.Email,
		Name:      strings.TrimSpace(reg.Name),
		RoleName:  s.defaultRole.Name(),
		Active:    true,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, u, hash); err != nil {
		return nil, err
	}
	logger.Info("[user.Service] account registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Authenticate checks credentials and issues an access token.
func (s *Service) Authenticate(ctx context.Context, c domain.Credentials) (*domain.AuthToken, error) {
	if err := validate.Struct(c); err != nil {
		return nil, err
	}
	u, hash, err := s.repo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(c.Username)))
	if errors.Is(err, ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(hash, c.Password); err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, ErrInactive
	}

	token, exp, err := s.tokens.Issue(*u)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.repo.TouchLogin(ctx, u.ID, now); err != nil {
		logger.Warn("[user.Service] last login update failed", "user_id", u.ID, "error", err)
	} else {
		u.LastLoginAt = &now
	}
	return &domain.AuthToken{Token: token, ExpiresAt: exp, User: *u}, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.Get(ctx, id)
}

// List returns users.
func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// SetRole changes a user's role.
func (s *Service) SetRole(ctx context.Context, id, role string) (*domain.User, error) {
	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", validate.ErrInvalid, err)
	}
	if err := s.repo.SetRole(ctx, id, r.Name()); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
