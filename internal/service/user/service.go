package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain"
	userrepo "storefront/internal/repository/user"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("not authorized, token failed")
	// ErrUserExists is returned when registering an email already in use.
	ErrUserExists = errors.New("user already exists")
)

// Service handles registration, login and profile maintenance.
type Service struct {
	repo        userrepo.Repository
	tokens      *tokenManager
	passwordMin int
}

// New creates a Service issuing tokens signed with secret and valid for ttl.
func New(repo userrepo.Repository, secret string, ttl time.Duration) *Service {
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(secret, ttl),
		passwordMin: 8,
	}
}

type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProfileInput carries optional profile changes. Blank fields are kept.
type ProfileInput struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password"`
}

// Register creates a regular account and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, "", domain.NewValidationError("name is required")
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, "", domain.NewValidationError("email is required")
	}
	hashed, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	u, err := s.repo.Create(ctx, domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         domain.RoleUser,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, "", ErrUserExists
		}
		return nil, "", err
	}
	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login validates credentials and returns the user plus an issued token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	password = strings.TrimSpace(password)
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// LookupByToken returns the current record of the user a token was issued to.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// UpdateProfile applies the non-blank fields of in and returns the updated
// user with a new token.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*domain.User, string, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		u.Name = name
	}
	if email := strings.TrimSpace(strings.ToLower(in.Email)); email != "" {
		u.Email = email
	}
	if strings.TrimSpace(in.Password) != "" {
		hashed, err := s.hashPassword(in.Password)
		if err != nil {
			return nil, "", err
		}
		u.PasswordHash = hashed
	}

	updated, err := s.repo.Update(ctx, *u)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, "", ErrUserExists
		}
		return nil, "", err
	}
	token, err := s.tokens.Issue(updated.ID, updated.Role)
	if err != nil {
		return nil, "", err
	}
	return updated, token, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	return hashPassword(password, s.passwordMin)
}

// HashPassword applies the account password rules and returns a bcrypt hash.
// Used by seeding tools that write users directly.
func HashPassword(password string) (string, error) {
	return hashPassword(password, 8)
}

func hashPassword(password string, min int) (string, error) {
	password = strings.TrimSpace(password)
	if err := validatePassword(password, min); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return domain.NewValidationError("password must be at least %d characters", min)
	}
	if len(trimmed) > maxPasswordBytes {
		return domain.NewValidationError("password must be at most %d bytes", maxPasswordBytes)
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
		return domain.NewValidationError("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
