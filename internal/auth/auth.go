// Package auth issues and resolves the signed session tokens that
// carry a user's identity. Tokens never carry authority: every resolve
// looks the user up again and takes the role stored right now, so a
// role change takes effect on the next request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskdeck/internal/domain"
	"taskdeck/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

const DefaultTokenTTL = 24 * time.Hour

type Resolver struct {
	Store    store.Store
	Secret   string
	TokenTTL time.Duration
	Now      func() time.Time
}

func NewResolver(s store.Store, secret string, ttl time.Duration) Resolver {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return Resolver{Store: s, Secret: secret, TokenTTL: ttl, Now: time.Now}
}

func (r Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Login checks the credentials and mints a token for the user.
func (r Resolver) Login(ctx context.Context, email, password string) (string, domain.UserInfo, error) {
	u, err := r.Store.GetUser(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", domain.UserInfo{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", domain.UserInfo{}, err
	}
	if u.Password != password {
		return "", domain.UserInfo{}, ErrInvalidCredentials
	}
	token, err := r.Issue(u.Email)
	if err != nil {
		return "", domain.UserInfo{}, err
	}
	return token, u.Info(), nil
}

// Issue signs a token naming the user. Only the subject matters on the
// way back; role is resolved live.
func (r Resolver) Issue(email string) (string, error) {
	if strings.TrimSpace(r.Secret) == "" {
		return "", errors.New("jwt secret not configured")
	}
	now := r.now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(r.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(r.Secret))
}

// Resolve validates the token and returns the caller it names, taking
// the role from the store rather than the token. A token for a user
// that no longer exists is invalid.
func (r Resolver) Resolve(ctx context.Context, token string) (domain.Caller, error) {
	if strings.TrimSpace(r.Secret) == "" {
		return domain.Caller{}, errors.New("jwt secret not configured")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.now),
	)
	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(r.Secret), nil
	})
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return domain.Caller{}, ErrInvalidToken
	}
	u, err := r.Store.GetUser(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Caller{}, ErrInvalidToken
	}
	if err != nil {
		return domain.Caller{}, err
	}
	return domain.Caller{Email: u.Email, Role: u.Role}, nil
}
