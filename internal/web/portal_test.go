// ABOUTME: Shared test helpers for the portal handler tests
// ABOUTME: Builds a portal over the in-memory store with a known principal

package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbeier1406/chaos-portal/internal/auth"
	"github.com/mbeier1406/chaos-portal/internal/config"
	"github.com/mbeier1406/chaos-portal/internal/policy"
	"github.com/mbeier1406/chaos-portal/internal/session"
	"github.com/mbeier1406/chaos-portal/internal/store"
)

// testPassword is the plaintext behind the test principal's hash.
const testPassword = "qwe123"

func newTestPortal(t *testing.T, basePath string) *Portal {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{HTTPAddr: "localhost:0", BasePath: basePath},
		Login:  config.LoginConfig{Username: "admin", PasswordHash: string(hash)},
		Session: config.SessionConfig{
			CookieName:     "chaos_session",
			AuthCookieName: "chaos_auth",
			IdleTimeout:    time.Hour,
		},
	}

	mgr := session.NewManager(store.NewMemoryStore(), auth.Principal{
		Username:     cfg.Login.Username,
		PasswordHash: cfg.Login.PasswordHash,
	}, cfg.Session)

	p, err := New(cfg, mgr, policy.New(nil, nil, nil))
	require.NoError(t, err)
	return p
}

// client drives the portal handler while carrying cookies between requests.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, p *Portal) *client {
	return &client{t: t, handler: p.Handler(), cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, nil)
}

// login performs the full login flow and requires it to succeed.
func (c *client) login(username, password string) *httptest.ResponseRecorder {
	c.t.Helper()
	c.get("/login") // obtain a session cookie first
	rec := c.do(http.MethodPost, "/login", url.Values{
		"username": {username},
		"password": {password},
	})
	return rec
}
