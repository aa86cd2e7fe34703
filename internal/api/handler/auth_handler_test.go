package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (*ports.LoginResult, error)
	logoutFn   func(ctx context.Context, p *domain.Principal) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Logout(ctx context.Context, p *domain.Principal) error {
	return s.logoutFn(ctx, p)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

// --- Signup ---

func TestAuthHandler_Signup_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Username != "alice" || in.Email != "a@x.com" || in.Password != "secret1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if len(in.Roles) != 2 || in.Roles[0] != "admin" || in.Roles[1] != "mod" {
				t.Fatalf("unexpected roles: %v", in.Roles)
			}
			return &domain.User{ID: "u1", Username: in.Username}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/signup",
		`{"username":"alice","email":"a@x.com","password":"secret1","roles":["admin","mod"]}`), rec)

	if err := handler.Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "User registered successfully!" {
		t.Fatalf("unexpected message: %v", msg)
	}
}

func TestAuthHandler_Signup_RolesOptional(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if len(in.Roles) != 0 {
				t.Fatalf("expected no roles, got %v", in.Roles)
			}
			return &domain.User{}, nil
		},
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/signup",
		`{"username":"alice","email":"a@x.com","password":"secret1"}`), rec)

	if err := NewAuthHandler(stub).Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Signup_Duplicates(t *testing.T) {
	cases := map[error]string{
		domain.ErrDuplicateUsername: "Error: Username is already taken!",
		domain.ErrDuplicateEmail:    "Error: Email is already in use!",
	}
	for dupErr, want := range cases {
		e := newTestEcho()
		stub := &stubAuthService{
			registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
				return nil, dupErr
			},
		}

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/signup",
			`{"username":"alice","email":"a@x.com","password":"secret1"}`), rec)

		_ = NewAuthHandler(stub).Signup(c)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%v: expected 400, got %d", dupErr, rec.Code)
		}
		if got := decodeBody(t, rec)["error"]; got != want {
			t.Fatalf("%v: expected %q, got %v", dupErr, want, got)
		}
	}
}

func TestAuthHandler_Signup_ValidationBounds(t *testing.T) {
	bodies := map[string]string{
		"short username": `{"username":"al","email":"a@x.com","password":"secret1"}`,
		"long username":  `{"username":"` + strings.Repeat("a", 21) + `","email":"a@x.com","password":"secret1"}`,
		"bad email":      `{"username":"alice","email":"not-an-email","password":"secret1"}`,
		"long email":     `{"username":"alice","email":"` + strings.Repeat("a", 45) + `@x.com","password":"secret1"}`,
		"short password": `{"username":"alice","email":"a@x.com","password":"12345"}`,
		"long password":  `{"username":"alice","email":"a@x.com","password":"` + strings.Repeat("p", 41) + `"}`,
		"missing fields": `{}`,
	}
	for name, body := range bodies {
		e := newTestEcho()
		stub := &stubAuthService{
			registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
				t.Fatalf("%s: should not be called", name)
				return nil, nil
			},
		}

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/signup", body), rec)
		_ = NewAuthHandler(stub).Signup(c)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestAuthHandler_Signup_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/signup", "not-json"), rec)
	_ = NewAuthHandler(stub).Signup(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Signup_UnexpectedErrorPropagates(t *testing.T) {
	e := newTestEcho()
	storeErr := errors.New("mongo down")
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			return nil, storeErr
		},
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/signup",
		`{"username":"alice","email":"a@x.com","password":"secret1"}`), rec)

	if err := NewAuthHandler(stub).Signup(c); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to reach the error handler, got %v", err)
	}
}

// --- Signin ---

func TestAuthHandler_Signin_Success(t *testing.T) {
	e := newTestEcho()
	exp := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*ports.LoginResult, error) {
			if username != "alice" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return &ports.LoginResult{
				Token:       "token123",
				ExpiresAt:   exp,
				UserID:      "u1",
				Username:    "alice",
				Email:       "a@x.com",
				Authorities: []string{"ROLE_USER"},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/signin",
		`{"username":"alice","password":"secret1"}`), rec)

	if err := NewAuthHandler(stub).Signin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeBody(t, rec)
	if resp["token"] != "token123" || resp["type"] != "Bearer" || resp["id"] != "u1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp["username"] != "alice" || resp["email"] != "a@x.com" {
		t.Fatalf("unexpected identity: %+v", resp)
	}
	auths, ok := resp["authorities"].([]any)
	if !ok || len(auths) != 1 || auths[0] != "ROLE_USER" {
		t.Fatalf("unexpected authorities: %v", resp["authorities"])
	}
	if resp["expires_at"] != "2025-01-02T12:00:00Z" {
		t.Fatalf("unexpected expires_at: %v", resp["expires_at"])
	}
}

func TestAuthHandler_Signin_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/signin",
		`{"username":"alice","password":"bad"}`), rec)
	_ = NewAuthHandler(stub).Signin(c)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "invalid credentials" {
		t.Fatalf("unexpected error body: %v", got)
	}
}

func TestAuthHandler_Signin_MissingFields(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*ports.LoginResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/signin", `{"username":"alice"}`), rec)
	_ = NewAuthHandler(stub).Signin(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "password is required" {
		t.Fatalf("unexpected error body: %v", got)
	}
}

// --- Signout / Hello ---

func TestAuthHandler_Signout(t *testing.T) {
	e := newTestEcho()
	var revoked string
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, p *domain.Principal) error {
			revoked = p.TokenID
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
	req = req.WithContext(domain.WithPrincipal(req.Context(), &domain.Principal{Username: "alice", TokenID: "jti-1"}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := NewAuthHandler(stub).Signout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || revoked != "jti-1" {
		t.Fatalf("expected 200 and revocation of jti-1, got %d %q", rec.Code, revoked)
	}
}

func TestAuthHandler_Signout_NoPrincipal(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{}

	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil), httptest.NewRecorder())

	var he *echo.HTTPError
	if err := NewAuthHandler(stub).Signout(c); !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 http error, got %v", err)
	}
}

func TestAuthHandler_Hello(t *testing.T) {
	e := newTestEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/hello", nil), rec)

	if err := NewAuthHandler(&stubAuthService{}).Hello(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "Hello Guest How May I help you!!" {
		t.Fatalf("unexpected response: %d %q", rec.Code, rec.Body.String())
	}
}
