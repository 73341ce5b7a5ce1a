package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/signup/internal/signup/domain"
	"github.com/aussiebroadwan/signup/internal/signup/metrics"
	"github.com/aussiebroadwan/signup/internal/signup/notify"
	"github.com/aussiebroadwan/signup/internal/signup/service"
	"github.com/aussiebroadwan/signup/pkg/auth0"
	"github.com/aussiebroadwan/signup/pkg/httpx"
	"github.com/aussiebroadwan/signup/pkg/invitetoken"
	"github.com/aussiebroadwan/signup/pkg/mailx"
	"github.com/aussiebroadwan/signup/pkg/slogx"
	"github.com/aussiebroadwan/signup/pkg/websession"
)

const testPermission = "send:invitation"

var testCSRFKey = []byte("handler-test-csrf-key-0123456789")

var (
	admin  = websession.Session{UserID: "auth0|ada", Name: "Ada Admin", Email: "ada@example.com"}
	member = websession.Session{UserID: "auth0|bob", Name: "Bob", Email: "bob@example.com"}
)

type memIdP struct {
	mu sync.Mutex

	accounts    map[string]bool
	users       map[string]auth0.User
	permissions map[string][]string

	created   []createdAccount
	updates   []map[string]string
	resets    []string
	createErr error
}

type createdAccount struct {
	Email    string
	Password string
	Extras   map[string]string
}

func newMemIdP() *memIdP {
	return &memIdP{
		accounts: map[string]bool{},
		users: map[string]auth0.User{
			admin.UserID:  {UserID: admin.UserID, Email: admin.Email, GivenName: "Ada"},
			member.UserID: {UserID: member.UserID, Email: member.Email},
		},
		permissions: map[string][]string{
			admin.UserID: {"read:users", testPermission},
		},
	}
}

func (m *memIdP) UserExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[strings.ToLower(email)], nil
}

func (m *memIdP) CreateUser(_ context.Context, email, password string, extras map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if m.accounts[strings.ToLower(email)] {
		return auth0.ErrUserAlreadyExists
	}
	m.accounts[strings.ToLower(email)] = true
	m.created = append(m.created, createdAccount{Email: email, Password: password, Extras: extras})
	return nil
}

func (m *memIdP) GetPermissions(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permissions[userID], nil
}

func (m *memIdP) GetUser(_ context.Context, userID string) (auth0.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return auth0.User{}, &auth0.APIError{StatusCode: http.StatusNotFound, Message: "The user does not exist."}
	}
	return u, nil
}

func (m *memIdP) UpdateUser(_ context.Context, userID string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	for k, v := range fields {
		switch k {
		case "given_name":
			u.GivenName = v
		case "picture":
			u.Picture = v
		}
	}
	m.users[userID] = u
	m.updates = append(m.updates, fields)
	return nil
}

func (m *memIdP) TriggerPasswordReset(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, email)
	return nil
}

type memMailer struct {
	mu   sync.Mutex
	sent []mailx.Message
}

func (m *memMailer) Send(_ context.Context, msg mailx.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *memMailer) OpenBatch(context.Context) (mailx.Batch, error) {
	return memBatch{m}, nil
}

func (m *memMailer) messages() []mailx.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailx.Message(nil), m.sent...)
}

type memBatch struct{ m *memMailer }

func (b memBatch) Send(ctx context.Context, msg mailx.Message) error { return b.m.Send(ctx, msg) }
func (b memBatch) Close() error                                      { return nil }

type harness struct {
	router   *Router
	idp      *memIdP
	mailer   *memMailer
	tokens   *invitetoken.Codec
	sessions *websession.Codec
	registry *prometheus.Registry

	csrfCookie *http.Cookie
	csrfToken  string

	mu  sync.Mutex
	now time.Time
}

func (h *harness) clock() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

func (h *harness) advance(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = h.now.Add(d)
}

// newHarness builds a fully wired router against in-memory fakes. login may
// be nil when a test does not exercise the login flow.
func newHarness(t *testing.T, login LoginProvider) *harness {
	t.Helper()

	h := &harness{
		idp:      newMemIdP(),
		mailer:   &memMailer{},
		registry: prometheus.NewRegistry(),
		now:      time.Now(),
	}

	secret := []byte("handler-test-secret")
	window := func() time.Duration { return invitetoken.Days(5) }
	h.tokens = invitetoken.New(secret, window, invitetoken.WithClock(h.clock))
	h.sessions = websession.New(secret)

	fields, err := domain.NewFieldSet([]string{"given_name", "picture"}, []string{"given_name"})
	require.NoError(t, err)

	composer, err := notify.NewComposer("Acme")
	require.NoError(t, err)

	m := metrics.New(h.registry)
	invites := &service.InviteService{
		IdP:       h.idp,
		Mailer:    h.mailer,
		Tokens:    h.tokens,
		Emails:    composer,
		PublicURL: "https://portal.example.com",
		Window:    window,
		Metrics:   m,
	}

	runner := service.NewJobRunner(slogx.Discard(), 4)
	runner.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = runner.Stop(ctx)
	})

	generous := httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
	router, err := NewRouter(RouterConfig{
		OrgName:          "Acme",
		PublicURL:        "https://portal.example.com",
		Audience:         "https://api.example.com",
		InvitePermission: testPermission,
		Fields:           fields,
		CSRFKey:          testCSRFKey,
		Limits:           RateLimits{Strict: generous, Moderate: generous, Lenient: generous},
	}, "test", slogx.Discard())
	require.NoError(t, err)

	router.Sessions = h.sessions
	router.Login = login
	router.Gatherer = h.registry
	router.InviteService = invites
	router.BulkService = &service.BulkInviteService{Invites: invites, Runner: runner, Metrics: m}
	router.SignupService = &service.SignupService{IdP: h.idp, Tokens: h.tokens, Fields: fields, Metrics: m}
	router.ProfileService = &service.ProfileService{IdP: h.idp, Fields: fields}
	router.PermissionService = &service.PermissionService{IdP: h.idp}
	router.ApplyRoutes()

	h.router = router

	// Any GET hands out the CSRF cookie and token.
	rec := h.serve(httptest.NewRequest(http.MethodGet, "/livez", nil))
	for _, c := range rec.Result().Cookies() {
		if c.Name == httpx.CSRFCookieName {
			h.csrfCookie = c
		}
	}
	require.NotNil(t, h.csrfCookie)
	h.csrfToken = rec.Header().Get(httpx.CSRFHeader)
	require.NotEmpty(t, h.csrfToken)

	return h
}

// request builds a request that passes the CSRF check.
func (h *harness) request(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: h.csrfCookie.Name, Value: h.csrfCookie.Value})
	req.Header.Set(httpx.CSRFHeader, h.csrfToken)
	return req
}

func (h *harness) form(method, target string, values url.Values) *http.Request {
	req := h.request(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (h *harness) json(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := h.request(method, target, strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

func (h *harness) as(t *testing.T, req *http.Request, s websession.Session) *http.Request {
	t.Helper()
	value, err := h.sessions.Encode(s)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: websession.CookieName, Value: value})
	return req
}

func (h *harness) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) invite(t *testing.T, email string) string {
	t.Helper()
	token, err := h.tokens.Issue(email)
	require.NoError(t, err)
	return token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}
