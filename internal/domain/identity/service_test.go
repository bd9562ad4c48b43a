package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/internal/platform/auth"
)

type memUsers struct {
	nextID int64
	byName map[string]*User
}

func newMemUsers() *memUsers { return &memUsers{byName: make(map[string]*User)} }

func (m *memUsers) Create(_ context.Context, u *User) error {
	if _, exists := m.byName[u.Username]; exists {
		return apperr.Conflict("username already taken")
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	cp := *u
	m.byName[u.Username] = &cp
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*User, error) {
	u, ok := m.byName[username]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

var testSecret = []byte("test-secret")

func newTestService() (*Service, *auth.MemoryRevocationStore) {
	revocations := auth.NewMemoryRevocationStore()
	svc := NewService(newMemUsers(), revocations, testSecret, time.Hour, zerolog.Nop())
	return svc, revocations
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "john"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("missing fields: got %v, want validation error", err)
	}

	_, err = svc.Register(ctx, RegisterInput{Username: "john", Password: "pw", Role: "superuser"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("unknown role: got %v, want validation error", err)
	}

	_, err = svc.Register(ctx, RegisterInput{Username: "john", Password: "pw", Role: auth.RoleProvider})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("provider without person_id: got %v, want validation error", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in := RegisterInput{Username: "john", Password: "providerpass", Role: auth.RoleProvider, PersonID: 1}
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, in)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("duplicate register: got %v, want conflict", err)
	}
}

func TestLoginFlow(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		Username: "john", Password: "providerpass", Role: auth.RoleProvider, PersonID: 1,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.PasswordHash == "providerpass" {
		t.Fatal("password stored in clear")
	}

	token, err := svc.Login(ctx, "john", "providerpass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := auth.ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Role != auth.RoleProvider || claims.PersonID != 1 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("token missing jti")
	}

	if _, err := svc.Login(ctx, "john", "wrongpass"); !apperr.IsKind(err, apperr.KindAuthentication) {
		t.Fatalf("wrong password: got %v, want authentication error", err)
	}
	if _, err := svc.Login(ctx, "nobody", "providerpass"); !apperr.IsKind(err, apperr.KindAuthentication) {
		t.Fatalf("unknown user: got %v, want authentication error", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, revocations := newTestService()
	defer revocations.Close()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{
		Username: "john", Password: "providerpass", Role: auth.RoleProvider, PersonID: 1,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := svc.Login(ctx, "john", "providerpass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	mw := auth.Middleware(testSecret, revocations)
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e := echo.New()

	call := func() error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		return handler(e.NewContext(req, rec))
	}

	if err := call(); err != nil {
		t.Fatalf("authenticated call before logout: %v", err)
	}

	claims, err := auth.ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("logout: %v", err)
	}

	err = call()
	e2 := apperr.As(err)
	if e2 == nil || e2.Kind != apperr.KindAuthentication {
		t.Fatalf("call after logout: got %v, want authentication error", err)
	}
	if e2.Message != "token has been revoked" {
		t.Errorf("message = %q, want revoked message", e2.Message)
	}
}
