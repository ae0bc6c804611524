package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gestorhq/gestor-go/internal/middleware"
)

func loginRequest(t *testing.T, h *AuthHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, RouteLogin, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = requestWithSession(h.sessionManager, req)

	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	renderer := testRenderer(t, sm)
	h := NewAuthHandler(db, renderer, sm, nil)

	createTestUser(t, db, "maria", "secret123", false)

	rec := loginRequest(t, h, url.Values{
		"username": {"maria"},
		"password": {"secret123"},
	})

	assertRedirect(t, rec, rec.Code, http.StatusSeeOther, RouteProdutos)
}

func TestLoginNormalizesUsername(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	renderer := testRenderer(t, sm)
	h := NewAuthHandler(db, renderer, sm, nil)

	createTestUser(t, db, "maria", "secret123", false)

	rec := loginRequest(t, h, url.Values{
		"username": {"  MARIA  "},
		"password": {"secret123"},
	})

	assertRedirect(t, rec, rec.Code, http.StatusSeeOther, RouteProdutos)
}

func TestLoginWrongPassword(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	renderer := testRenderer(t, sm)
	h := NewAuthHandler(db, renderer, sm, nil)

	createTestUser(t, db, "maria", "secret123", false)

	rec := loginRequest(t, h, url.Values{
		"username": {"maria"},
		"password": {"wrong"},
	})

	assertRedirect(t, rec, rec.Code, http.StatusSeeOther, RouteLogin)
}

func TestLoginUnknownUser(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	renderer := testRenderer(t, sm)
	h := NewAuthHandler(db, renderer, sm, nil)

	rec := loginRequest(t, h, url.Values{
		"username": {"ghost"},
		"password": {"whatever"},
	})

	assertRedirect(t, rec, rec.Code, http.StatusSeeOther, RouteLogin)
}

func TestLoginMissingFields(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	renderer := testRenderer(t, sm)
	h := NewAuthHandler(db, renderer, sm, nil)

	rec := loginRequest(t, h, url.Values{})

	assertRedirect(t, rec, rec.Code, http.StatusSeeOther, RouteLogin)
}

func TestLoginAccountLockout(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	renderer := testRenderer(t, sm)
	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		MaxFailedAttempts: 2,
	})
	h := NewAuthHandler(db, renderer, sm, lp)

	createTestUser(t, db, "maria", "secret123", false)

	bad := url.Values{"username": {"maria"}, "password": {"wrong"}}
	loginRequest(t, h, bad)
	loginRequest(t, h, bad)

	// Correct credentials are rejected while the account is locked
	rec := loginRequest(t, h, url.Values{
		"username": {"maria"},
		"password": {"secret123"},
	})
	assertRedirect(t, rec, rec.Code, http.StatusSeeOther, RouteLogin)
}

func TestLoginFormRedirectsAuthenticated(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	renderer := testRenderer(t, sm)
	h := NewAuthHandler(db, renderer, sm, nil)

	user := createTestUser(t, db, "maria", "secret123", false)

	req := httptest.NewRequest(http.MethodGet, RouteLogin, nil)
	req = requestWithSession(sm, req)
	sm.Put(req.Context(), middleware.SessionKeyUserID, user.ID)

	rec := httptest.NewRecorder()
	h.LoginForm(rec, req)

	assertRedirect(t, rec, rec.Code, http.StatusSeeOther, RouteProdutos)
}

func TestLoginFormRendersForAnonymous(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	renderer := testRenderer(t, sm)
	h := NewAuthHandler(db, renderer, sm, nil)

	req := requestWithSession(sm, httptest.NewRequest(http.MethodGet, RouteLogin, nil))
	rec := httptest.NewRecorder()
	h.LoginForm(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "Login") {
		t.Error("login page should contain the form title")
	}
}

func TestLogout(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	renderer := testRenderer(t, sm)
	h := NewAuthHandler(db, renderer, sm, nil)

	user := createTestUser(t, db, "maria", "secret123", false)

	req := httptest.NewRequest(http.MethodPost, RouteLogout, nil)
	req = requestWithSession(sm, req)
	sm.Put(req.Context(), middleware.SessionKeyUserID, user.ID)

	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assertRedirect(t, rec, rec.Code, http.StatusSeeOther, RouteLogin)

	if got := sm.GetInt64(req.Context(), middleware.SessionKeyUserID); got != 0 {
		t.Errorf("session user_id after logout = %d; want 0", got)
	}
}
