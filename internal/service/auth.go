// Package service holds the business rules that sit between the HTTP
// handlers and the repositories:
//
//	handler (HTTP) → service (rules) → repository (DB)
//
// Services never see an http.Request and never build SQL. They return
// *apperror.AppError values for anything the caller did wrong and wrap
// storage failures with context.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/roomview/internal/apperror"
	"github.com/sakif/roomview/internal/auth"
	"github.com/sakif/roomview/internal/metrics"
	"github.com/sakif/roomview/internal/model"
	"github.com/sakif/roomview/internal/repository"
	"github.com/sakif/roomview/internal/schema"
)

// AuthService registers users, checks credentials and issues access tokens.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		metrics:   m,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register validates in against schema.InsertUser, stores the user with a
// bcrypt hash in place of the plain password and issues a token.
//
// A taken username surfaces as an apperror Conflict from the repository.
func (s *AuthService) Register(ctx context.Context, in model.InsertUser) (*AuthResult, error) {
	if err := schema.InsertUser.Check(in); err != nil {
		s.metrics.RecordValidationFailure(schema.Users.Name)
		return nil, err
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		s.metrics.RecordValidationFailure(schema.Users.Name)
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password for %s: %w", in.Username, err)
	}

	user, err := s.users.CreateUser(ctx, model.InsertUser{
		Username: in.Username,
		Password: hash,
	})
	if err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to create user",
				slog.String("username", in.Username),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("service/auth: registering %s: %w", in.Username, err)
	}

	s.metrics.RecordInsert(schema.Users.Name)
	s.logger.Info("user registered", slog.String("username", user.Username))

	return s.issue(user)
}

// Login checks a username and password. Unknown users and wrong passwords
// both return the same Unauthorized error so callers cannot probe for
// registered usernames.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid username or password")
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", username, err)
	}

	if err := s.passwords.Verify(user.Password, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Warn("login rejected", slog.String("username", username))
			return nil, apperror.Unauthorized("invalid username or password")
		}
		return nil, fmt.Errorf("service/auth: verifying password for %s: %w", username, err)
	}

	s.logger.Info("user logged in", slog.String("username", user.Username))
	return s.issue(user)
}

// GetUser returns the user for a username taken from a validated token.
func (s *AuthService) GetUser(ctx context.Context, username string) (*model.User, error) {
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", username, err)
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.Username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %s: %w", user.Username, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
