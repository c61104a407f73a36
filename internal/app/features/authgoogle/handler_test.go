package authgoogle_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/busybee/internal/app/features/authgoogle"
	"github.com/dalemusser/busybee/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/busybee/internal/app/store/users"
	"github.com/dalemusser/busybee/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const clientURL = "http://localhost:3000"

// fakeGoogle serves the token and userinfo endpoints.
func fakeGoogle(t *testing.T, verified bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-access-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             "google-42",
			"email":          "Ada@Example.com",
			"verified_email": verified,
			"name":           "Ada Lovelace",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newHandler(t *testing.T, srv *httptest.Server) (*authgoogle.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := authgoogle.NewHandler(
		userstore.New(db),
		oauthstate.New(db),
		testutil.NewSessionManager(t),
		"test-client-id", "test-client-secret",
		"http://localhost:8080", clientURL,
		zap.NewNop(),
	)
	if srv != nil {
		h.Endpoint = oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}
		h.UserInfoURL = srv.URL + "/userinfo"
	}
	return h, db
}

func startLogin(t *testing.T, h *authgoogle.Handler, returnTo string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google?return="+url.QueryEscape(returnTo), nil))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("login status = %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad Location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatalf("no state in %s", loc)
	}
	if got := loc.Query().Get("redirect_uri"); got != "http://localhost:8080/auth/google/callback" {
		t.Errorf("redirect_uri = %q", got)
	}
	return state
}

func callback(h *authgoogle.Handler, params url.Values) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+params.Encode(), nil))
	return rec
}

func TestIsConfigured(t *testing.T) {
	h, _ := newHandler(t, nil)
	if !h.IsConfigured() {
		t.Error("expected configured handler")
	}
	h.ClientSecret = ""
	if h.IsConfigured() {
		t.Error("expected unconfigured handler without a secret")
	}

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	if loc := rec.Header().Get("Location"); loc != clientURL+"/login?error=google_not_configured" {
		t.Errorf("Location = %q", loc)
	}
}

func TestCallback_SignsInAndCreatesUser(t *testing.T) {
	srv := fakeGoogle(t, true)
	h, db := newHandler(t, srv)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	state := startLogin(t, h, "/courses/bio-101")
	rec := callback(h, url.Values{"state": {state}, "code": {"auth-code"}})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("callback status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != clientURL+"/courses/bio-101" {
		t.Errorf("Location = %q", loc)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"google_id": "google-42", "email": "ada@example.com"})
	if err != nil || n != 1 {
		t.Errorf("users with google id = %d (err %v), want 1", n, err)
	}

	// The state is single use.
	rec = callback(h, url.Values{"state": {state}, "code": {"auth-code"}})
	if loc := rec.Header().Get("Location"); !strings.HasSuffix(loc, "error=invalid_state") {
		t.Errorf("replay Location = %q", loc)
	}
}

func TestCallback_Rejections(t *testing.T) {
	srv := fakeGoogle(t, false)
	h, _ := newHandler(t, srv)

	tests := []struct {
		name   string
		params func() url.Values
		want   string
	}{
		{"provider error", func() url.Values { return url.Values{"error": {"access_denied"}} }, "google_denied"},
		{"unknown state", func() url.Values { return url.Values{"state": {"nope"}, "code": {"c"}} }, "invalid_state"},
		{"missing code", func() url.Values { return url.Values{"state": {startLogin(t, h, "")}} }, "invalid_code"},
		{"unverified email", func() url.Values { return url.Values{"state": {startLogin(t, h, "")}, "code": {"c"}} }, "unverified_email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := callback(h, tt.params())
			if loc := rec.Header().Get("Location"); loc != clientURL+"/login?error="+tt.want {
				t.Errorf("Location = %q, want error=%s", loc, tt.want)
			}
		})
	}
}
