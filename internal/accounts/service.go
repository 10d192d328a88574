package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/localharvest/market/internal/market"
	"github.com/localharvest/market/internal/redisx"
)

// Service handles registration and opaque redis-backed session tokens.
// Sessions double as cart scope: the session token is the cart's session id.
type Service struct {
	Users      UserStore
	RDB        *redis.Client
	SessionTTL time.Duration
}

func (s *Service) Register(ctx context.Context, email, name, password string) (*market.User, error) {
	fields := map[string]string{}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "a valid email is required"
	}
	if strings.TrimSpace(name) == "" {
		fields["name"] = "name must not be empty"
	}
	if len(password) < 8 {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) > 0 {
		return nil, &market.ValidationError{Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &market.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and mints a session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		// same answer for unknown email and bad password
		return "", market.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return "", market.ErrInvalidCredentials
	}

	token := uuid.NewString()
	key := fmt.Sprintf(redisx.KeySession, token)
	if err := s.RDB.Set(ctx, key, u.ID, s.SessionTTL).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// UserID resolves a session token to the authenticated user id.
func (s *Service) UserID(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", market.ErrNoSession
	}
	key := fmt.Sprintf(redisx.KeySession, token)
	id, err := s.RDB.Get(ctx, key).Result()
	if err != nil {
		return "", market.ErrNoSession
	}
	return id, nil
}
