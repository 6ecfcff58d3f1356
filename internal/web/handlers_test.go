// ABOUTME: Tests for the page handlers: login flow, dashboard, demo pages
// ABOUTME: Exercises the full round trips a browser would make

package web

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeier1406/chaos-portal/internal/session"
)

func TestLoginFlowSuccess(t *testing.T) {
	c := newClient(t, newTestPortal(t, ""))

	rec := c.login("admin", testPassword)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	auth, ok := c.cookies["chaos_auth"]
	require.True(t, ok, "auth cookie missing after login")
	assert.Equal(t, "admin", auth.Value)

	rec = c.get("/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Logged in as 'admin'")
	assert.Contains(t, rec.Body.String(), "Welcome to Chaos!")
}

func TestLoginFlowFailureStaysOnLoginPage(t *testing.T) {
	c := newClient(t, newTestPortal(t, ""))

	rec := c.login("admin", "wrongpass")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), session.LoginFailedMessage)
	// The password is never echoed back.
	assert.NotContains(t, rec.Body.String(), "wrongpass")

	_, ok := c.cookies["chaos_auth"]
	assert.False(t, ok, "auth cookie set despite failed login")
}

func TestLoginFailureSurvivesPageReload(t *testing.T) {
	c := newClient(t, newTestPortal(t, ""))
	c.login("admin", "wrongpass")

	// The stored message still shows on a fresh GET of the login page.
	rec := c.get("/login")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), session.LoginFailedMessage)
}

func TestLoginPageRedirectsAuthenticatedSession(t *testing.T) {
	c := newClient(t, newTestPortal(t, ""))
	c.login("admin", testPassword)

	rec := c.get("/login")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestLogoutReturnsToIndex(t *testing.T) {
	c := newClient(t, newTestPortal(t, ""))
	c.login("admin", testPassword)

	rec := c.do(http.MethodPost, "/logout", url.Values{})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/index", rec.Header().Get("Location"))

	_, ok := c.cookies["chaos_auth"]
	assert.False(t, ok, "auth cookie survived logout")

	// The session is anonymous again; protected pages redirect.
	rec = c.get("/dashboard")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestDashboardMessageButton(t *testing.T) {
	c := newClient(t, newTestPortal(t, ""))
	c.login("admin", testPassword)

	rec := c.do(http.MethodPost, "/dashboard/message", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = c.get("/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You clicked the button! Time:")
	assert.NotContains(t, rec.Body.String(), "Welcome to Chaos!")
}

func TestDashboardShowsAnnouncement(t *testing.T) {
	c := newClient(t, newTestPortal(t, ""))
	c.login("admin", testPassword)

	rec := c.get("/dashboard")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Announcements</h1>")
}

func TestUserPageInlineCheck(t *testing.T) {
	c := newClient(t, newTestPortal(t, ""))

	// Anonymous: page renders, content is hidden.
	rec := c.get("/user")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "content is hidden")

	// Authenticated: the profile shows.
	c.login("admin", testPassword)
	rec = c.get("/user")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Profile for 'admin'")
}

func TestIndexShowsLoginStateVariants(t *testing.T) {
	c := newClient(t, newTestPortal(t, ""))

	rec := c.get("/index")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "to reach the dashboard")

	c.login("admin", testPassword)
	rec = c.get("/index")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Logged in as 'admin'")
}

func TestErrorDemoPages(t *testing.T) {
	c := newClient(t, newTestPortal(t, ""))

	rec := c.get("/error/404")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error 404")

	rec = c.get("/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBoomDemoRequiresLogin(t *testing.T) {
	c := newClient(t, newTestPortal(t, ""))

	// Anonymous: filter already redirects the protected path.
	rec := c.do(http.MethodPost, "/dashboard/boom", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	c.login("admin", testPassword)
	rec = c.do(http.MethodPost, "/dashboard/boom", url.Values{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHelloEndpoint(t *testing.T) {
	c := newClient(t, newTestPortal(t, ""))

	rec := c.get("/hello")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Hello from chaos-portal\n", rec.Body.String())
}
