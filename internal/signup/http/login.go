package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/aussiebroadwan/signup/pkg/auth0"
	"github.com/aussiebroadwan/signup/pkg/cryptox"
	"github.com/aussiebroadwan/signup/pkg/slogx"
	"github.com/aussiebroadwan/signup/pkg/websession"
)

const (
	stateCookieName = "signup_oauth_state"
	stateCookieTTL  = 10 * 60 // seconds
)

// LoginProvider is the part of the IdP gateway used for interactive login.
// *auth0.Client implements it.
type LoginProvider interface {
	LoginConfig(redirectURL string) *oauth2.Config
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (auth0.UserInfo, error)
	LogoutURL(returnTo string) string
}

var _ LoginProvider = (*auth0.Client)(nil)

// LoginHandler runs the authorization code flow against the IdP and keeps
// the result in a session cookie.
type LoginHandler struct {
	Provider  LoginProvider
	Sessions  *websession.Codec
	PublicURL string
	Audience  string
	Secure    bool
	pages     *pages
}

func (h *LoginHandler) oauthConfig() *oauth2.Config {
	return h.Provider.LoginConfig(strings.TrimRight(h.PublicURL, "/") + "/login_callback")
}

// HandleLogin godoc
//
//	@Summary		Start admin login
//	@Description	Redirects to the identity provider's authorization endpoint.
//	@Tags			Login
//	@Success		302	{string}	string	"Redirect to the identity provider"
//	@Router			/login [get]
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		log.Error("failed to generate oauth state", "err", err)
		h.pages.message(w, r, http.StatusInternalServerError, "Log In", msgUnknownError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/login_callback",
		MaxAge:   stateCookieTTL,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	var opts []oauth2.AuthCodeOption
	if h.Audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", h.Audience))
	}
	http.Redirect(w, r, h.oauthConfig().AuthCodeURL(state, opts...), http.StatusFound)
}

// HandleCallback godoc
//
//	@Summary		Finish admin login
//	@Description	Checks the state parameter, exchanges the authorization code and stores the user in a session cookie.
//	@Tags			Login
//	@Param			code	query		string	true	"Authorization code"
//	@Param			state	query		string	true	"State issued by /login"
//	@Success		302		{string}	string	"Redirect to /admin"
//	@Failure		400		{string}	string	"state mismatch"
//	@Failure		401		{string}	string	"login denied by the identity provider"
//	@Failure		502		{string}	string	"code exchange failed"
//	@Router			/login_callback [get]
func (h *LoginHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		log.Warn("login denied by identity provider", "error", e, "description", q.Get("error_description"))
		h.pages.message(w, r, http.StatusUnauthorized, "Log In", "Login was not completed.")
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(q.Get("state"))) != 1 {
		log.Warn("oauth state mismatch")
		h.pages.message(w, r, http.StatusBadRequest, "Log In", "Your login attempt has expired, please try again.")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Path:     "/login_callback",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Secure,
	})

	token, err := h.oauthConfig().Exchange(ctx, q.Get("code"))
	if err != nil {
		log.Error("failed to exchange authorization code", "err", err)
		h.pages.message(w, r, http.StatusBadGateway, "Log In", msgUnknownError)
		return
	}

	info, err := h.Provider.FetchUserInfo(ctx, token)
	if err != nil {
		log.Error("failed to fetch user info", "err", err)
		h.pages.message(w, r, http.StatusBadGateway, "Log In", msgUnknownError)
		return
	}

	if err := h.Sessions.Save(w, websession.Session{UserID: info.Subject, Name: info.Name, Email: info.Email}); err != nil {
		log.Error("failed to save session", "err", err)
		h.pages.message(w, r, http.StatusInternalServerError, "Log In", msgUnknownError)
		return
	}

	log.Info("admin logged in", "user_id", info.Subject)
	http.Redirect(w, r, "/admin", http.StatusFound)
}

// HandleLogout godoc
//
//	@Summary		Log out
//	@Description	Clears the session cookie and redirects through the identity provider's logout endpoint.
//	@Tags			Login
//	@Success		302	{string}	string	"Redirect to the identity provider logout"
//	@Router			/logout [get]
func (h *LoginHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Clear(w)
	http.Redirect(w, r, h.Provider.LogoutURL(strings.TrimRight(h.PublicURL, "/")+"/login"), http.StatusFound)
}
