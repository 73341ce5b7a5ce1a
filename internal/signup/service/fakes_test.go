package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/signup/internal/signup/notify"
	"github.com/aussiebroadwan/signup/pkg/auth0"
	"github.com/aussiebroadwan/signup/pkg/invitetoken"
	"github.com/aussiebroadwan/signup/pkg/mailx"
	"github.com/aussiebroadwan/signup/pkg/slogx"
)

// fakeIdP is an in-memory identity provider.
type fakeIdP struct {
	mu sync.Mutex

	accounts    map[string]bool // lower-cased email -> exists
	users       map[string]auth0.User
	permissions map[string][]string

	existsCalls  []string
	created      []createdUser
	updates      []map[string]string
	resets       []string
	existsErr    error
	existsPanics bool
	createErr    error
}

type createdUser struct {
	Email    string
	Password string
	Extras   map[string]string
}

func newFakeIdP(existing ...string) *fakeIdP {
	f := &fakeIdP{
		accounts:    map[string]bool{},
		users:       map[string]auth0.User{},
		permissions: map[string][]string{},
	}
	for _, e := range existing {
		f.accounts[strings.ToLower(e)] = true
	}
	return f
}

func (f *fakeIdP) UserExists(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls = append(f.existsCalls, email)
	if f.existsPanics {
		panic("idp exploded")
	}
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.accounts[strings.ToLower(email)], nil
}

func (f *fakeIdP) CreateUser(_ context.Context, email, password string, extras map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.accounts[strings.ToLower(email)] {
		return fmt.Errorf("%w: The user already exists.", auth0.ErrUserAlreadyExists)
	}
	f.accounts[strings.ToLower(email)] = true
	f.created = append(f.created, createdUser{Email: email, Password: password, Extras: extras})
	return nil
}

func (f *fakeIdP) GetPermissions(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	perms, ok := f.permissions[userID]
	if !ok {
		return nil, &auth0.APIError{StatusCode: 404, Message: "The user does not exist."}
	}
	return perms, nil
}

func (f *fakeIdP) GetUser(_ context.Context, userID string) (auth0.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return auth0.User{}, &auth0.APIError{StatusCode: 404, Message: "The user does not exist."}
	}
	return u, nil
}

func (f *fakeIdP) UpdateUser(_ context.Context, userID string, fields map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, fields)
	return nil
}

func (f *fakeIdP) TriggerPasswordReset(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, email)
	return nil
}

func (f *fakeIdP) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.existsCalls...)
}

// fakeMailer records direct sends and batches.
type fakeMailer struct {
	mu sync.Mutex

	sent    []mailx.Message
	batches []*fakeBatch
	sendErr error
	openErr error

	// failBatchSendAt makes the nth batch send (1-based) fail.
	failBatchSendAt int
}

func (m *fakeMailer) Send(_ context.Context, msg mailx.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) OpenBatch(context.Context) (mailx.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return nil, m.openErr
	}
	b := &fakeBatch{mailer: m}
	m.batches = append(m.batches, b)
	return b, nil
}

func (m *fakeMailer) direct() []mailx.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailx.Message(nil), m.sent...)
}

type fakeBatch struct {
	mailer *fakeMailer
	sent   []mailx.Message
	sends  int
	closed int
}

func (b *fakeBatch) Send(_ context.Context, msg mailx.Message) error {
	b.mailer.mu.Lock()
	defer b.mailer.mu.Unlock()
	b.sends++
	if b.sends == b.mailer.failBatchSendAt {
		return errors.New("smtp: 451 temporary failure")
	}
	b.sent = append(b.sent, msg)
	return nil
}

func (b *fakeBatch) Close() error {
	b.mailer.mu.Lock()
	defer b.mailer.mu.Unlock()
	b.closed++
	return nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

const (
	testPublicURL = "https://portal.example.com/"
	testWindow    = 5 * 24 * time.Hour
)

func newTestCodec(clock *testClock) *invitetoken.Codec {
	return invitetoken.New([]byte("test-secret"),
		func() time.Duration { return testWindow },
		invitetoken.WithClock(clock.Now),
	)
}

func newTestInviteService(t *testing.T, idp *fakeIdP, mailer *fakeMailer) (*InviteService, *testClock) {
	t.Helper()

	composer, err := notify.NewComposer("Acme")
	require.NoError(t, err)

	clock := &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return &InviteService{
		IdP:       idp,
		Mailer:    mailer,
		Tokens:    newTestCodec(clock),
		Emails:    composer,
		PublicURL: testPublicURL,
		Window:    func() time.Duration { return testWindow },
	}, clock
}

func testContext() context.Context {
	return slogx.WithContext(context.Background(), slogx.Discard())
}

var linkPattern = regexp.MustCompile(`https://portal\.example\.com/signup/([A-Za-z0-9_.\-]+)`)

// tokenFromInvitation pulls the signup token out of a rendered invitation.
func tokenFromInvitation(t *testing.T, msg mailx.Message) string {
	t.Helper()
	m := linkPattern.FindStringSubmatch(msg.HTML)
	require.Len(t, m, 2, "no signup link in %q", msg.HTML)
	return m[1]
}
