package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KevinKickass/PlantDeck/internal/config"
)

const defaultTokenTTL = 12 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// User is a dashboard account. Sessions only distinguish logged in from
// anonymous, so there are no roles.
type User struct {
	Username    string `json:"username"`
	DisplayName string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
}

type account struct {
	User
	passwordHash string
}

// Session is what a successful login hands back to the client.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

type Service struct {
	enabled    bool
	accounts   map[string]account
	hasher     *PasswordHasher
	jwtHandler *JWTHandler
	logger     *zap.Logger

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewService(cfg config.AuthConfig, logger *zap.Logger) (*Service, error) {
	return NewServiceWithHasher(cfg, NewPasswordHasher(), logger)
}

func NewServiceWithHasher(cfg config.AuthConfig, hasher *PasswordHasher, logger *zap.Logger) (*Service, error) {
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	if !cfg.IsProductionReady() {
		logger.Warn("JWT secret not set or too short, using development secret",
			zap.String("env", cfg.JWTSecretEnv))
	}

	s := &Service{
		enabled:    cfg.Enabled,
		accounts:   make(map[string]account, len(cfg.Users)),
		hasher:     hasher,
		jwtHandler: NewJWTHandler(cfg.GetJWTSecret(), ttl),
		logger:     logger,
		revoked:    make(map[string]time.Time),
	}

	for _, u := range cfg.Users {
		if u.Username == "" || u.PasswordHash == "" {
			return nil, fmt.Errorf("auth user needs username and password_hash")
		}
		if _, dup := s.accounts[u.Username]; dup {
			return nil, fmt.Errorf("duplicate auth user %q", u.Username)
		}
		s.accounts[u.Username] = account{
			User:         User{Username: u.Username, DisplayName: u.DisplayName, Email: u.Email},
			passwordHash: u.PasswordHash,
		}
	}

	if len(s.accounts) == 0 {
		username, password := cfg.DevAdminPassword()
		hash, err := hasher.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash development password: %w", err)
		}
		s.accounts[username] = account{
			User:         User{Username: username, DisplayName: "Administrator"},
			passwordHash: hash,
		}
		logger.Warn("no users configured, created development admin account",
			zap.String("username", username))
	}

	return s, nil
}

// Enabled reports whether API routes require a session.
func (s *Service) Enabled() bool {
	return s.enabled
}

func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	acct, ok := s.accounts[username]
	if !ok {
		s.logger.Info("login failed", zap.String("username", username), zap.String("reason", "unknown user"))
		return Session{}, ErrInvalidCredentials
	}

	valid, err := s.hasher.VerifyPassword(password, acct.passwordHash)
	if err != nil {
		s.logger.Error("stored password hash unusable", zap.String("username", username), zap.Error(err))
		return Session{}, ErrInvalidCredentials
	}
	if !valid {
		s.logger.Info("login failed", zap.String("username", username), zap.String("reason", "invalid password"))
		return Session{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwtHandler.GenerateAccessToken(acct.User)
	if err != nil {
		return Session{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.logger.Info("user logged in", zap.String("username", username))
	return Session{Token: token, ExpiresAt: expiresAt, User: acct.User}, nil
}

func (s *Service) ValidateToken(token string) (User, error) {
	claims, err := s.jwtHandler.ValidateAccessToken(token)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return User{}, ErrInvalidToken
	}

	acct, ok := s.accounts[claims.Username]
	if !ok {
		return User{}, ErrInvalidToken
	}
	return acct.User, nil
}

// Logout revokes token until it would have expired anyway.
func (s *Service) Logout(token string) error {
	claims, err := s.jwtHandler.ValidateAccessToken(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	now := s.jwtHandler.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	return nil
}
