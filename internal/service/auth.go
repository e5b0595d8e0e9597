// Package service provides the authentication, art and psalms business logic,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cabellfineart/gallery-api/internal/models"
)

// bcryptMaxPassword is the number of password bytes bcrypt considers.
const bcryptMaxPassword = 72

// UsernamePattern is the set of characters allowed in a username.
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_$@?!]+$`)

var (
	// ErrBadCredentials is returned for an unknown user or wrong password.
	ErrBadCredentials = errors.New("Incorrect username or password")
	// ErrUsernameRequired is returned when registering without a username.
	ErrUsernameRequired = errors.New("Username required")
	// ErrPasswordRequired is returned when registering without a password.
	ErrPasswordRequired = errors.New("Password required")
	// ErrUsernameInvalid is returned when the username has disallowed characters.
	ErrUsernameInvalid = errors.New("Username must only contain alphanumeric characters or _ $ @ ? !")
	// ErrRegistrationCode is returned when the registration code does not match.
	ErrRegistrationCode = errors.New("Invalid registration code")
)

// UserExistsError reports an attempt to register a taken username.
type UserExistsError struct {
	Username string
}

func (e *UserExistsError) Error() string {
	return fmt.Sprintf("User %s is already registered", e.Username)
}

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// UserExists returns true if a credential with the given username exists.
	// ctx carries deadlines, cancellation signals, and other request-scoped values.
	UserExists(ctx context.Context, username string) (bool, error)
	// GetCredential returns the stored credential or an error wrapping models.ErrNotFound.
	GetCredential(ctx context.Context, username string) (*models.Credential, error)
	// CreateCredential stores a new credential.
	CreateCredential(ctx context.Context, c models.Credential) error
}

// TokenIssuer mints signed access and refresh tokens for a username.
type TokenIssuer interface {
	IssueAccess(username string) (string, error)
	IssueRefresh(username string) (string, error)
}

// Tokens is the pair handed out on a successful login.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthOptions tunes the authentication service.
type AuthOptions struct {
	// RegistrationCode, when non-empty, must be presented to register.
	RegistrationCode string
	// FailureDelay is slept before reporting a failed login.
	FailureDelay time.Duration
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

// Service implements authentication operations by delegating
// to an AuthRepository and a TokenIssuer.
type Service struct {
	// repo performs the data-layer operations.
	repo   AuthRepository
	tokens TokenIssuer
	opts   AuthOptions
	// dummyHash is compared against when the user does not exist so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
	now       func() time.Time
	sleep     func(context.Context, time.Duration)
}

// NewAuthService constructs a new Service using the provided repository and token issuer.
func NewAuthService(repo AuthRepository, tokens TokenIssuer, opts AuthOptions) (*Service, error) {
	if opts.Cost == 0 {
		opts.Cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("gallery-api-dummy-password"), opts.Cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	return &Service{
		repo:      repo,
		tokens:    tokens,
		opts:      opts,
		dummyHash: dummy,
		now:       time.Now,
		sleep:     sleepContext,
	}, nil
}

// Register creates a credential for username. Checks run in order and the
// first failure is returned without touching the store.
func (s *Service) Register(ctx context.Context, username, password, code string) error {
	switch {
	case username == "":
		return ErrUsernameRequired
	case password == "":
		return ErrPasswordRequired
	case !UsernamePattern.MatchString(username):
		return ErrUsernameInvalid
	}
	if s.opts.RegistrationCode != "" &&
		subtle.ConstantTimeCompare([]byte(code), []byte(s.opts.RegistrationCode)) != 1 {
		return ErrRegistrationCode
	}

	exists, err := s.repo.UserExists(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return &UserExistsError{Username: username}
	}

	hash, err := bcrypt.GenerateFromPassword(prepare(password), s.opts.Cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	err = s.repo.CreateCredential(ctx, models.Credential{
		Username:            username,
		PasswordHash:        string(hash),
		Created:             now,
		PasswordLastUpdated: now,
	})
	if errors.Is(err, models.ErrConflict) {
		return &UserExistsError{Username: username}
	}
	return err
}

// Login verifies the password for username and issues a token pair.
func (s *Service) Login(ctx context.Context, username, password string) (*Tokens, error) {
	hash := s.dummyHash
	known := false
	c, err := s.repo.GetCredential(ctx, username)
	switch {
	case err == nil:
		hash = []byte(c.PasswordHash)
		known = true
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(hash, prepare(password)); err != nil || !known {
		s.sleep(ctx, s.opts.FailureDelay)
		return nil, ErrBadCredentials
	}

	access, err := s.tokens.IssueAccess(username)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(username)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh issues a new access token for a username already proven by a refresh token.
func (s *Service) Refresh(username string) (string, error) {
	access, err := s.tokens.IssueAccess(username)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

// prepare maps passwords longer than bcrypt's limit to a fixed-length digest
// so no byte past the limit is ignored.
func prepare(password string) []byte {
	if len(password) <= bcryptMaxPassword {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
