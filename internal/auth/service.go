// Package auth registers users and issues access tokens.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"projecthub/internal/apperr"
	"projecthub/internal/model"
	"projecthub/internal/notify"
	"projecthub/internal/repository"
	"projecthub/pkg/util"
)

const entity = "user"

const errBadCredentials = "invalid email or password"

type Service struct {
	users     repository.UserRepository
	jwtSecret string
	ttl       time.Duration
	roles     map[string]model.Role
	logger    *zap.Logger
}

// NewService builds the auth service. roles pre-assigns a role to listed e-mail addresses at registration;
// everyone else registers as a member.
func NewService(users repository.UserRepository, jwtSecret string, ttl time.Duration, roles map[string]model.Role, logger *zap.Logger) *Service {
	normalized := make(map[string]model.Role, len(roles))
	for email, role := range roles {
		normalized[strings.ToLower(strings.TrimSpace(email))] = role
	}
	return &Service{users: users, jwtSecret: jwtSecret, ttl: ttl, roles: normalized, logger: logger}
}

// Register creates a new user.
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if !notify.IsEmail(email) {
		return nil, apperr.Validation(entity, "register", "a valid email is required")
	}
	if len(password) < 8 {
		return nil, apperr.Validation(entity, "register", "password must be at least 8 characters")
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(entity, "register", err)
	}

	role, ok := s.roles[strings.ToLower(email)]
	if !ok {
		role = model.RoleMember
	}
	u := &model.User{Email: email, PasswordHash: hash, Role: role}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.IllegalState(entity, "register", "email already exists")
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, apperr.Internal(entity, "register", err)
	}
	s.logger.Info("User registered", zap.Int("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// Login checks credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, apperr.Unauthorized(entity, "login", errBadCredentials)
		}
		return "", nil, apperr.Internal(entity, "login", err)
	}
	if !util.CheckPassword(password, u.PasswordHash) {
		s.logger.Warn("Login failed", zap.Int("user_id", u.ID))
		return "", nil, apperr.Unauthorized(entity, "login", errBadCredentials)
	}

	token, err := util.GenerateJWT(u.ID, string(u.Role), s.jwtSecret, s.ttl)
	if err != nil {
		return "", nil, apperr.Internal(entity, "login", err)
	}
	return token, u, nil
}
