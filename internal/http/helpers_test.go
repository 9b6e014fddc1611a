package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rbacblog/internal/auth"
	"rbacblog/internal/domain"
	"rbacblog/internal/http/handlers"
	applog "rbacblog/internal/log"
	"rbacblog/internal/mail"
	"rbacblog/internal/repos"
	"rbacblog/internal/services"
)

const sessionTTL = 24 * time.Hour

var t0 = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (r *recordingSender) Send(_ context.Context, m mail.Message) error {
	r.mu.Lock()
	r.sent = append(r.sent, m)
	r.mu.Unlock()
	return nil
}

type harness struct {
	app    *fiber.App
	deps   *handlers.Deps
	users  *repos.UserRepo
	mailer *recordingSender
	clock  *clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	composer, err := mail.NewComposer()
	require.NoError(t, err)

	clk := &clock{now: t0}
	users := repos.NewUserRepo(db)
	rec := &recordingSender{}
	tokens := auth.NewTokenIssuer("handler-test-secret", sessionTTL, clk.Now)
	authSvc := &services.AuthService{
		Users:         users,
		Hasher:        auth.NewHasher(bcrypt.MinCost),
		Tokens:        tokens,
		Verifications: auth.NewVerifications(users, 24*time.Hour, clk.Now),
		Mailer:        rec,
		Composer:      composer,
		ClientURL:     "http://localhost:3000",
		Now:           clk.Now,
	}
	t.Cleanup(authSvc.Wait)
	postSvc := &services.PostService{Posts: repos.NewPostRepo(db), Now: clk.Now}

	deps := &handlers.Deps{
		Auth:        authSvc,
		Posts:       postSvc,
		Tokens:      tokens,
		AuthHandler: &handlers.AuthHandler{Auth: authSvc, CookieSecure: true, CookieTTL: sessionTTL},
		PostHandler: &handlers.PostHandler{Posts: postSvc},
		CORSOrigins: []string{"http://localhost:3000"},
	}
	return &harness{app: handlers.NewApp(deps), deps: deps, users: users, mailer: rec, clock: clk}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (h *harness) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode(t *testing.T, raw []byte) apiResponse {
	t.Helper()
	var out apiResponse
	require.NoError(t, json.Unmarshal(raw, &out), "body=%s", raw)
	return out
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (h *harness) pendingToken(t *testing.T, email string) string {
	t.Helper()
	u, err := h.users.ByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotEmpty(t, u.VerificationToken)
	return u.VerificationToken
}

// verifiedUser registers, verifies and optionally elevates an account.
func (h *harness) verifiedUser(t *testing.T, name, email, password string, role domain.Role) {
	t.Helper()
	resp, raw := h.do(t, "POST", "/api/v1/auth/register", map[string]string{"name": name, "email": email, "password": password})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "body=%s", raw)
	resp, raw = h.do(t, "GET", "/api/v1/auth/verify-email?token="+h.pendingToken(t, email), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "body=%s", raw)
	if role == domain.RoleAdmin {
		require.NoError(t, h.users.SetRole(context.Background(), email, role))
	}
}

func (h *harness) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	resp, raw := h.do(t, "POST", "/api/v1/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "body=%s", raw)
	c := cookieNamed(resp, handlers.CookieName)
	require.NotNil(t, c)
	return c
}

type logEntry struct {
	Level  string         `json:"level"`
	Kind   string         `json:"kind"`
	Action string         `json:"action"`
	Status int            `json:"status"`
	UserID string         `json:"user_id"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

// captureLogs redirects the application log for the duration of fn.
func captureLogs(t *testing.T, fn func()) ([]logEntry, string) {
	t.Helper()
	w := &lockedWriter{}
	applog.SetOutput(w)
	defer applog.SetOutput(os.Stdout)

	fn()

	w.mu.Lock()
	text := w.buf.String()
	w.mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries, text
}

func findAction(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
