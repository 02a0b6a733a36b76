package auth

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ohlcx/candlefeed/internal/models"
)

// UserStore is the account lookup surface the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// TokenPair is the issuance result: a short-lived access token and a
// long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Service handles registration, login and token refresh.
type Service struct {
	users  UserStore
	tokens *TokenProvider
	log    *logrus.Entry

	accessSeconds int64
}

// NewService creates a new auth service.
func NewService(users UserStore, tokens *TokenProvider, accessSeconds int64) *Service {
	return &Service{
		users:         users,
		tokens:        tokens,
		log:           logrus.WithField("component", "auth"),
		accessSeconds: accessSeconds,
	}
}

// Register persists a new user with a bcrypt password hash and RoleUser.
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", models.ErrValidation)
	}

	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: username already exists: %s", models.ErrValidation, username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := s.users.CreateUser(ctx, username, email, string(hash)); err != nil {
		return err
	}
	s.log.WithField("username", username).Info("Registered user")
	return nil
}

// Login authenticates credentials and issues a fresh token pair. Credential
// failures are reported as ErrAuthFailure without distinguishing unknown
// user from wrong password.
func (s *Service) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", models.ErrAuthFailure)
	}
	if !user.Enabled {
		return nil, fmt.Errorf("%w: account disabled", models.ErrAuthFailure)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", models.ErrAuthFailure)
	}

	return s.issuePair(user)
}

// Refresh validates a refresh token (marker claim included) and issues a new
// token pair with the subject's current roles.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", models.ErrAuthFailure)
	}
	if !IsRefreshToken(claims) {
		return nil, fmt.Errorf("%w: not a refresh token", models.ErrAuthFailure)
	}

	user, err := s.users.GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown subject", models.ErrAuthFailure)
	}

	return s.issuePair(user)
}

// LookupUser answers the user RPC: found + roles, never an error for a
// missing user.
func (s *Service) LookupUser(ctx context.Context, username string) (found bool, roles []string) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return false, nil
	}
	return true, user.Roles()
}

// Tokens exposes the provider for local request handling and the RPC surface.
func (s *Service) Tokens() *TokenProvider {
	return s.tokens
}

func (s *Service) issuePair(user *models.User) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(user.Username, user.Roles())
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.accessSeconds,
	}, nil
}
