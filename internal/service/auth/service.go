package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fooddirect/internal/domain"
	adminrepo "fooddirect/internal/repository/admin"
	tokenrepo "fooddirect/internal/repository/token"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

// Service handles admin login and session validation.
type Service struct {
	admins      adminrepo.Repository
	tokens      *tokenManager
	sessionTTL  time.Duration
	passwordMin int
}

// New creates a Service with sane defaults.
func New(admins adminrepo.Repository, tokens tokenrepo.Repository) *Service {
	return &Service{
		admins:      admins,
		tokens:      newTokenManager(tokens),
		sessionTTL:  48 * time.Hour,
		passwordMin: 8,
	}
}

// Register creates an admin account. Used by the seeder and by existing
// admins adding operators.
func (s *Service) Register(ctx context.Context, email, password, name string) (*domain.Admin, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, errors.New("email required")
	}
	password = strings.TrimSpace(password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.admins.Create(ctx, domain.Admin{
		Email:        email,
		PasswordHash: string(hashed),
		Name:         strings.TrimSpace(name),
	})
}

// Login validates credentials and returns the admin plus a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Admin, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	a, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(ctx, a.ID, s.sessionTTL)
	if err != nil {
		return nil, "", err
	}
	return a, token, nil
}

// Logout revokes a session token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	err := s.tokens.Revoke(ctx, token)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// LookupByToken returns the admin bound to a valid session token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Admin, error) {
	adminID, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	a, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return a, nil
}

// SessionTTLSeconds exposes the session lifetime in seconds.
func (s *Service) SessionTTLSeconds() int {
	return int(s.sessionTTL.Seconds())
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
