package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/signup/pkg/auth0"
	"github.com/aussiebroadwan/signup/pkg/httpx"
	"github.com/aussiebroadwan/signup/pkg/websession"
)

// fakeTenant serves the authorization code exchange and /userinfo.
func fakeTenant(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good-code" || r.PostForm.Get("client_id") != "portal" {
			httpx.WriteJSON(w, http.StatusForbidden, map[string]string{"error": "invalid_grant"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"access_token": "user-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-access-token" {
			httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"sub":   admin.UserID,
			"name":  admin.Name,
			"email": admin.Email,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func stateCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == stateCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", stateCookieName)
	return nil
}

func TestLoginFlow(t *testing.T) {
	tenant := fakeTenant(t)
	h := newHarness(t, auth0.NewClientWithBaseURL(tenant.URL, "portal", "portal-secret"))

	rec := h.serve(h.request(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, tenant.URL+"/authorize", loc.Scheme+"://"+loc.Host+loc.Path)

	q := loc.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "portal", q.Get("client_id"))
	require.Equal(t, "https://portal.example.com/login_callback", q.Get("redirect_uri"))
	require.Equal(t, "https://api.example.com", q.Get("audience"))
	require.Equal(t, "openid profile email", q.Get("scope"))

	state := stateCookie(t, rec)
	require.Equal(t, q.Get("state"), state.Value)
	require.True(t, state.HttpOnly)

	callback := h.request(http.MethodGet, "/login_callback?code=good-code&state="+url.QueryEscape(state.Value), nil)
	callback.AddCookie(state)
	rec = h.serve(callback)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/admin", rec.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == websession.CookieName {
			session = c
		}
	}
	require.NotNil(t, session)

	got, err := h.sessions.Decode(session.Value)
	require.NoError(t, err)
	require.Equal(t, admin, got)
}

func TestLoginCallbackRejections(t *testing.T) {
	tenant := fakeTenant(t)

	t.Run("state mismatch", func(t *testing.T) {
		h := newHarness(t, auth0.NewClientWithBaseURL(tenant.URL, "portal", "portal-secret"))

		req := h.request(http.MethodGet, "/login_callback?code=good-code&state=forged", nil)
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "issued"})
		rec := h.serve(req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing state cookie", func(t *testing.T) {
		h := newHarness(t, auth0.NewClientWithBaseURL(tenant.URL, "portal", "portal-secret"))

		rec := h.serve(h.request(http.MethodGet, "/login_callback?code=good-code&state=issued", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("denied by provider", func(t *testing.T) {
		h := newHarness(t, auth0.NewClientWithBaseURL(tenant.URL, "portal", "portal-secret"))

		rec := h.serve(h.request(http.MethodGet, "/login_callback?error=access_denied&state=issued", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad code", func(t *testing.T) {
		h := newHarness(t, auth0.NewClientWithBaseURL(tenant.URL, "portal", "portal-secret"))

		req := h.request(http.MethodGet, "/login_callback?code=stolen&state=issued", nil)
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "issued"})
		rec := h.serve(req)
		require.Equal(t, http.StatusBadGateway, rec.Code)

		for _, c := range rec.Result().Cookies() {
			require.NotEqual(t, websession.CookieName, c.Name)
		}
	})
}

func TestLogout(t *testing.T) {
	tenant := fakeTenant(t)
	h := newHarness(t, auth0.NewClientWithBaseURL(tenant.URL, "portal", "portal-secret"))

	rec := h.serve(h.as(t, h.request(http.MethodGet, "/logout", nil), admin))
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/v2/logout", loc.Path)
	require.Equal(t, "https://portal.example.com/login", loc.Query().Get("returnTo"))
	require.Equal(t, "portal", loc.Query().Get("client_id"))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	var cleared bool
	for _, c := range cookies {
		if c.Name == websession.CookieName {
			cleared = c.MaxAge < 0
		}
	}
	require.True(t, cleared)
}
