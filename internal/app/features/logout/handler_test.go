package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/busybee/internal/app/features/logout"
	"github.com/dalemusser/busybee/internal/app/system/auth"
	"github.com/dalemusser/busybee/internal/testutil"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (http.Handler, *auth.SessionManager) {
	t.Helper()
	sm := testutil.NewSessionManager(t)
	h := logout.NewHandler(sm, zap.NewNop())
	return sm.LoadSessionUser(logout.Routes(h, sm)), sm
}

// signedInCookies returns the cookies of a freshly signed-in session.
func signedInCookies(t *testing.T, sm *auth.SessionManager) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	err := sm.SignIn(rec, httptest.NewRequest(http.MethodGet, "/", nil), auth.SessionUser{
		ID: "64b000000000000000000001", Name: "Ada", Email: "ada@example.com",
	})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return rec.Result().Cookies()
}

func TestServeLogout_ClearsSession(t *testing.T) {
	router, sm := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	for _, c := range signedInCookies(t, sm) {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
			if c.MaxAge >= 0 {
				t.Errorf("cookie MaxAge: got %d, want < 0 (delete)", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("expected session cookie to be set for deletion")
	}
}

func TestServeLogout_RequiresSignIn(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestServeLogout_GetNotAllowed(t *testing.T) {
	router, sm := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range signedInCookies(t, sm) {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
