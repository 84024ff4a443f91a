package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/fixpoint/repair-api/internal/domain/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sessionAuthService(role domainauth.Role, userID string) *mockAuthService {
	return &mockAuthService{
		getSessionFunc: func(_ context.Context, sessionID string) (*domainauth.Session, error) {
			return &domainauth.Session{
				ID:        sessionID,
				UserID:    userID,
				Role:      role,
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
}

func okHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		session, ok := GetUserSessionFromContext(r.Context())
		require.True(t, ok)
		assert.NotEmpty(t, session.UserID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_NoCookie(t *testing.T) {
	t.Parallel()
	called := false
	handler := RequireAuth(sessionAuthService(domainauth.RoleUser, "user-1"))(okHandler(t, &called))

	r := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestRequireAuth_InvalidSession(t *testing.T) {
	t.Parallel()
	svc := &mockAuthService{
		getSessionFunc: func(context.Context, string) (*domainauth.Session, error) {
			return nil, errors.New("session expired")
		},
	}
	called := false
	handler := RequireAuth(svc)(okHandler(t, &called))

	r := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	r.AddCookie(&http.Cookie{Name: "session_id", Value: "stale"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestRequireAuth_ValidSession(t *testing.T) {
	t.Parallel()
	called := false
	handler := RequireAuth(sessionAuthService(domainauth.RoleUser, "user-1"))(okHandler(t, &called))

	r := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	r.AddCookie(&http.Cookie{Name: "session_id", Value: "session-1"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestRequireRole_Hierarchy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		userRole domainauth.Role
		required domainauth.Role
		want     int
	}{
		{"admin reaches admin routes", domainauth.RoleAdmin, domainauth.RoleAdmin, http.StatusOK},
		{"admin reaches employee routes", domainauth.RoleAdmin, domainauth.RoleEmployee, http.StatusOK},
		{"employee reaches employee routes", domainauth.RoleEmployee, domainauth.RoleEmployee, http.StatusOK},
		{"employee reaches user routes", domainauth.RoleEmployee, domainauth.RoleUser, http.StatusOK},
		{"employee blocked from admin routes", domainauth.RoleEmployee, domainauth.RoleAdmin, http.StatusForbidden},
		{"user blocked from employee routes", domainauth.RoleUser, domainauth.RoleEmployee, http.StatusForbidden},
		{"guest blocked from user routes", domainauth.RoleGuest, domainauth.RoleUser, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			called := false
			handler := RequireRole(sessionAuthService(tt.userRole, "user-1"), tt.required)(okHandler(t, &called))

			r := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
			r.AddCookie(&http.Cookie{Name: "session_id", Value: "session-1"})
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.want == http.StatusOK, called)
		})
	}
}

func TestRequireRole_NoCookie(t *testing.T) {
	t.Parallel()
	called := false
	handler := RequireRole(sessionAuthService(domainauth.RoleAdmin, "admin-1"), domainauth.RoleAdmin)(
		okHandler(t, &called),
	)

	r := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestRecover_PanicReturns500(t *testing.T) {
	t.Parallel()
	handler := Recover(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLogging_PreservesStatus(t *testing.T) {
	t.Parallel()
	handler := Logging(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusTeapot, w.Code)
}
