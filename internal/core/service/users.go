package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/stockroom/stockroom/internal/auth"
	"github.com/stockroom/stockroom/internal/core/domain"
	"github.com/stockroom/stockroom/internal/port"
)

// TokenIssuer mints access tokens on successful login.
type TokenIssuer interface {
	Issue(userID string, role domain.Role) (string, error)
}

// Users implements login and the invite -> register account lifecycle.
type Users struct {
	users  port.UserRepository
	tokens TokenIssuer
	logger *zap.Logger
}

func NewUsers(users port.UserRepository, tokens TokenIssuer, logger *zap.Logger) *Users {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Users{users: users, tokens: tokens, logger: logger}
}

// Login checks credentials and returns an access token with the user it
// belongs to. Invited-but-unregistered accounts cannot log in.
func (s *Users) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.UserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if user.Status != domain.UserStatusActive {
		return "", nil, domain.ErrUserNotActive
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return token, user, nil
}

// Invite creates an invited account with the given role. Only an existing
// email blocks the invitation.
func (s *Users) Invite(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	email = normalizeEmail(email)

	_, err := s.users.UserByEmail(ctx, email)
	if err == nil {
		return nil, domain.ErrEmailTaken
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	user, err := s.users.CreateUser(ctx, domain.User{
		Email:  email,
		Role:   role,
		Status: domain.UserStatusInvited,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user invited", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// RegisterInput completes an invited account.
type RegisterInput struct {
	Email                  string
	FirstName              string
	LastName               string
	PhoneNumber            string
	EmergencyContactNumber string
	Password               string
}

// Register completes an invited account: validates password complexity,
// stores the profile and bcrypt hash, and activates the user.
func (s *Users) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	user, err := s.users.UserByEmail(ctx, normalizeEmail(in.Email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotInvited
	}
	if err != nil {
		return nil, err
	}
	if user.Status == domain.UserStatusActive {
		return nil, domain.ErrAlreadyRegistered
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	activated, err := s.users.ActivateUser(ctx, user.ID, port.UserProfile{
		FirstName:              in.FirstName,
		LastName:               in.LastName,
		PhoneNumber:            in.PhoneNumber,
		EmergencyContactNumber: in.EmergencyContactNumber,
	}, hash)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", activated.ID))
	return activated, nil
}

func (s *Users) List(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

// Delete removes an account. Admins cannot delete themselves; that fails
// with domain.ErrSelfDeletion before anything is touched.
func (s *Users) Delete(ctx context.Context, actor domain.Actor, userID string) error {
	if actor.UserID == userID {
		return domain.ErrSelfDeletion
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("user deleted",
		zap.String("user_id", userID), zap.String("deleted_by", actor.UserID))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
