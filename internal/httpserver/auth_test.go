package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	usersvc "storefront/internal/service/user"
)

func TestRegisterHandler_Created(t *testing.T) {
	users := &stubUserService{user: testUser, token: "signed"}
	router := newTestRouter(t, Deps{UserSvc: users}, Options{})

	rec := doJSON(router, http.MethodPost, "/api/auth/register", "",
		`{"name":"Jane","email":"jane@example.com","password":"Secret123"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var body userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Token != "signed" || body.Email != "jane@example.com" || body.IsAdmin {
		t.Fatalf("unexpected body: %+v", body)
	}
	if users.registered.Password != "Secret123" {
		t.Fatalf("input not passed through: %+v", users.registered)
	}
}

func TestRegisterHandler_FieldErrors(t *testing.T) {
	router := newTestRouter(t, Deps{}, Options{})

	rec := doJSON(router, http.MethodPost, "/api/auth/register", "", `{"email":"not-an-email","password":"x"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	fields := map[string]string{}
	for _, fe := range body.Errors {
		fields[fe.Field] = fe.Message
	}
	if fields["name"] != "name is required" {
		t.Fatalf("expected name error, got %+v", body.Errors)
	}
	if fields["email"] != "email must be a valid email" {
		t.Fatalf("expected email error, got %+v", body.Errors)
	}
}

func TestRegisterHandler_DuplicateEmail(t *testing.T) {
	users := &stubUserService{err: usersvc.ErrUserExists}
	router := newTestRouter(t, Deps{UserSvc: users}, Options{})

	rec := doJSON(router, http.MethodPost, "/api/auth/register", "",
		`{"name":"Jane","email":"jane@example.com","password":"Secret123"}`)

	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "User already exists") {
		t.Fatalf("expected 400 duplicate, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	users := &stubUserService{err: usersvc.ErrInvalidCredentials}
	router := newTestRouter(t, Deps{UserSvc: users}, Options{})

	rec := doJSON(router, http.MethodPost, "/api/auth/login", "", `{"email":"jane@example.com","password":"bad"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestProfileHandler_UnauthorizedWithoutToken(t *testing.T) {
	router := newTestRouter(t, Deps{}, Options{})

	rec := doJSON(router, http.MethodGet, "/api/auth/profile", "", "")

	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "Not authorized, no token") {
		t.Fatalf("expected 401 no token, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestProfileHandler_RejectsUnknownToken(t *testing.T) {
	router := newTestRouter(t, Deps{}, Options{})

	rec := doJSON(router, http.MethodGet, "/api/auth/profile", "forged", "")

	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "token failed") {
		t.Fatalf("expected 401 token failed, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestProfileHandler_Success(t *testing.T) {
	users := &stubUserService{user: testUser}
	router := newTestRouter(t, Deps{UserSvc: users}, Options{})

	rec := doJSON(router, http.MethodGet, "/api/auth/profile", userToken, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"email":"jane@example.com"`) || strings.Contains(rec.Body.String(), "token") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"abc":          "",
		"":             "",
	}
	for header, want := range cases {
		if got := bearerToken(header); got != want {
			t.Fatalf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
