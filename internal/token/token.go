// Package token issues and verifies the signed bearer tokens used by the
// gallery API. Access tokens authorize catalog changes; refresh tokens can
// only be exchanged for a new access token.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

var (
	// ErrExpired is returned for tokens past their expiry.
	ErrExpired = errors.New("token has expired")
	// ErrInvalid is returned for malformed tokens and signature mismatches.
	ErrInvalid = errors.New("invalid token")
	// ErrWrongType is returned when a refresh token is presented where an
	// access token is required, or the reverse.
	ErrWrongType = errors.New("wrong token type")
)

// Claims are the JWT claims carried by every token. The subject is the username.
type Claims struct {
	Type Kind `json:"type"`
	jwt.RegisteredClaims
}

// Username returns the identity the token was issued to.
func (c *Claims) Username() string {
	return c.Subject
}

// Config holds the signing secrets and lifetimes.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Manager signs and verifies tokens with HMAC-SHA256.
type Manager struct {
	secrets map[Kind][]byte
	ttls    map[Kind]time.Duration
	now     func() time.Time
}

// NewManager returns a Manager for cfg. Both secrets are required.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("token secrets are required")
	}
	return &Manager{
		secrets: map[Kind][]byte{
			Access:  []byte(cfg.AccessSecret),
			Refresh: []byte(cfg.RefreshSecret),
		},
		ttls: map[Kind]time.Duration{
			Access:  cfg.AccessTTL,
			Refresh: cfg.RefreshTTL,
		},
		now: time.Now,
	}, nil
}

// IssueAccess returns a signed access token for username.
func (m *Manager) IssueAccess(username string) (string, error) {
	return m.issue(username, Access)
}

// IssueRefresh returns a signed refresh token for username.
func (m *Manager) IssueRefresh(username string) (string, error) {
	return m.issue(username, Refresh)
}

func (m *Manager) issue(username string, kind Kind) (string, error) {
	now := m.now()
	claims := &Claims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttls[kind])),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secrets[kind])
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify parses raw, checks its signature and expiry and that it is a token
// of the wanted kind.
func (m *Manager) Verify(raw string, want Kind) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		c, ok := t.Claims.(*Claims)
		if !ok {
			return nil, ErrInvalid
		}
		secret, ok := m.secrets[c.Type]
		if !ok {
			return nil, ErrInvalid
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if claims.Type != want {
		return nil, ErrWrongType
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalid)
	}
	return claims, nil
}
