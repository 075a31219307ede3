package user

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
)

// memoryRepo is a lightweight in-memory user repository for tests.
type memoryRepo struct {
	byEmail map[string]domain.User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byEmail: make(map[string]domain.User)}
}

func (r *memoryRepo) Create(_ context.Context, u domain.User) (*domain.User, error) {
	if _, exists := r.byEmail[u.Email]; exists {
		return nil, domain.ErrAlreadyExists
	}
	clone := u
	if clone.ID == "" {
		clone.ID = "user-" + u.Email
	}
	r.byEmail[clone.Email] = clone
	return &clone, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.byEmail[email]; ok {
		clone := u
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) Update(_ context.Context, u domain.User) (*domain.User, error) {
	for email, existing := range r.byEmail {
		if existing.ID != u.ID {
			continue
		}
		if other, taken := r.byEmail[u.Email]; taken && other.ID != u.ID {
			return nil, domain.ErrAlreadyExists
		}
		delete(r.byEmail, email)
		u.Role = existing.Role
		r.byEmail[u.Email] = u
		clone := u
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func TestRegisterAndLogin_SucceedsWithTrimmedPassword(t *testing.T) {
	svc := New(newMemoryRepo(), "secret", time.Hour)
	ctx := context.Background()

	u, token, err := svc.Register(ctx, RegisterInput{Name: "Test User", Email: "User@Example.com", Password: " Abcdefg1 "})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if u.Email != "user@example.com" || u.Role != domain.RoleUser || token == "" {
		t.Fatalf("unexpected registration result %+v token=%q", u, token)
	}

	if _, _, err := svc.Login(ctx, "user@example.com", "Abcdefg1"); err != nil {
		t.Fatalf("login failed with trimmed password: %v", err)
	}
	if _, _, err := svc.Login(ctx, "user@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "Abcdefg1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestRegister_RejectsDuplicateAndWeakPassword(t *testing.T) {
	svc := New(newMemoryRepo(), "secret", time.Hour)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := svc.Register(ctx, RegisterInput{Name: "B", Email: "a@example.com", Password: "Abcdefg1"}); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	_, _, err := svc.Register(ctx, RegisterInput{Name: "C", Email: "c@example.com", Password: "abcdefgh"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegister_RejectsOverlongPassword(t *testing.T) {
	svc := New(newMemoryRepo(), "secret", time.Hour)
	ctx := context.Background()

	long := "Aa1" + strings.Repeat("x", maxPasswordBytes-2)
	_, _, err := svc.Register(ctx, RegisterInput{Name: "L", Email: "l@example.com", Password: long})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for %d-byte password, got %v", len(long), err)
	}

	if _, _, err := svc.Register(ctx, RegisterInput{Name: "L", Email: "l@example.com", Password: long[:maxPasswordBytes]}); err != nil {
		t.Fatalf("register at the limit: %v", err)
	}
}

func TestLookupByToken(t *testing.T) {
	repo := newMemoryRepo()
	svc := New(repo, "secret", time.Hour)
	ctx := context.Background()

	u, token, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "Abcdefg1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.LookupByToken(ctx, token)
	if err != nil || got.ID != u.ID {
		t.Fatalf("lookup: user=%+v err=%v", got, err)
	}

	if _, err := svc.LookupByToken(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}

	other := New(repo, "other-secret", time.Hour)
	if _, err := other.LookupByToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature mismatch to fail, got %v", err)
	}

	expired := New(repo, "secret", time.Hour)
	expired.tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := expired.tokens.Issue(u.ID, u.Role)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.LookupByToken(ctx, stale); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}

	delete(repo.byEmail, u.Email)
	if _, err := svc.LookupByToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected deleted user to invalidate token, got %v", err)
	}
}

func TestUpdateProfile_KeepsBlankFields(t *testing.T) {
	svc := New(newMemoryRepo(), "secret", time.Hour)
	ctx := context.Background()

	u, _, err := svc.Register(ctx, RegisterInput{Name: "Old Name", Email: "a@example.com", Password: "Abcdefg1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, token, err := svc.UpdateProfile(ctx, u.ID, ProfileInput{Name: "New Name"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "New Name" || updated.Email != "a@example.com" || token == "" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	if _, _, err := svc.UpdateProfile(ctx, u.ID, ProfileInput{Password: "Newpass12"}); err != nil {
		t.Fatalf("password update: %v", err)
	}
	if _, _, err := svc.Login(ctx, "a@example.com", "Newpass12"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
