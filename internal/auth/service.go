package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/plugfox/addonhub/internal/model"
	"github.com/plugfox/addonhub/internal/storage"
)

// UserStore - the part of the store the service needs.
type UserStore interface {
	UserByUsername(ctx context.Context, username string) (*model.User, error)
	UserByID(ctx context.Context, id model.UserID) (*model.User, error)
}

// Gate decides whether a user that passed the credential check may sign in.
type Gate interface {
	CanAuthenticate(ctx context.Context, user *model.User, credentialsOK bool) (bool, error)
}

// Session - result of a successful login
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// Service signs users in and authorizes their tokens.
type Service struct {
	users    UserStore
	gate     Gate
	tokens   *Tokens
	throttle *Throttle
	logger   *slog.Logger
}

// NewService - throttle may be nil.
func NewService(users UserStore, gate Gate, tokens *Tokens, throttle *Throttle, logger *slog.Logger) *Service {
	if throttle == nil {
		throttle = &Throttle{}
	}
	return &Service{
		users:    users,
		gate:     gate,
		tokens:   tokens,
		throttle: throttle,
		logger:   logger,
	}
}

// Login checks the password, the active flag and the bans, then issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	if !s.throttle.Allowed(username) {
		s.logger.WarnContext(ctx, "login throttled", slog.String("username", username))
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.UserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		s.fail(ctx, username)
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, fmt.Errorf("find user %s: %w", username, err)
	}

	credentialsOK := user.IsActive && CheckPassword(user.PasswordHash, password)
	allowed, err := s.gate.CanAuthenticate(ctx, user, credentialsOK)
	if err != nil {
		return nil, err
	}

	if !allowed {
		s.fail(ctx, username)
		if credentialsOK {
			s.logger.InfoContext(ctx, "banned user rejected", slog.String("username", user.Username))
			return nil, ErrBanned
		}
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.throttle.Reset(username)

	s.logger.InfoContext(ctx, "user logged in", slog.String("username", user.Username), slog.Bool("staff", user.IsStaff))

	return &Session{Token: token, ExpiresAt: expires, User: user}, nil
}

// ParseToken - validate the token without touching the store
func (s *Service) ParseToken(token string) (*Claims, error) {
	return s.tokens.Parse(token)
}

// Authorize resolves the token to a user that is still allowed in.
// The user is reloaded and the gate consulted on every call.
func (s *Service) Authorize(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UserByID(ctx, claims.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidToken
	} else if err != nil {
		return nil, fmt.Errorf("find user %d: %w", claims.UserID, err)
	}

	allowed, err := s.gate.CanAuthenticate(ctx, user, user.IsActive)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrBanned
	}

	return user, nil
}

func (s *Service) fail(ctx context.Context, username string) {
	if !s.throttle.Fail(username) {
		s.logger.WarnContext(ctx, "failed login not counted", slog.String("username", username))
	}
}
