// ABOUTME: Tests for the view guard, including the filter/guard divergence
// ABOUTME: The reports page is public to the filter but denied by the guard

package web

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeier1406/chaos-portal/internal/policy"
	"github.com/mbeier1406/chaos-portal/internal/store"
)

func TestGuardAllowsPublicViewAnonymously(t *testing.T) {
	g := NewGuard(policy.New(nil, nil, nil))

	sess := &store.Session{ID: "s1"}
	assert.True(t, g.Allow(sess, "/index"))
	assert.True(t, g.Allow(sess, "/login"))
}

func TestGuardDeniesProtectedViewAnonymously(t *testing.T) {
	g := NewGuard(policy.New(nil, nil, nil))

	sess := &store.Session{ID: "s1"}
	assert.False(t, g.Allow(sess, "/dashboard"))
}

func TestGuardHonorsOverrideSet(t *testing.T) {
	g := NewGuard(policy.New(nil, nil, nil))

	// Public in the base set, re-protected by the override set.
	anon := &store.Session{ID: "s1"}
	assert.False(t, g.Allow(anon, "/reports"))

	authed := &store.Session{ID: "s2", LoggedIn: true, Username: "admin"}
	assert.True(t, g.Allow(authed, "/reports"))
}

func TestGuardDeniesProtectedWithNilSession(t *testing.T) {
	g := NewGuard(policy.New(nil, nil, nil))

	assert.False(t, g.Allow(nil, "/dashboard"))
	assert.True(t, g.Allow(nil, "/index"))
}

// The divergence end to end: the request filter forwards an anonymous
// request for /reports (public in the base set), the view guard then
// denies it and navigates to the login page.
func TestReportsDivergenceAnonymousEndsAtLogin(t *testing.T) {
	c := newClient(t, newTestPortal(t, ""))

	rec := c.get("/reports")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestReportsRendersForAuthenticatedSession(t *testing.T) {
	c := newClient(t, newTestPortal(t, ""))
	rec := c.login("admin", testPassword)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = c.get("/reports")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Report archive for 'admin'")
}
