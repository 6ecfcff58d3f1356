// ABOUTME: View guard: the second, view-level enforcement point
// ABOUTME: Override-aware classification once the canonical view identity is known

package web

import (
	"log/slog"

	"github.com/mbeier1406/chaos-portal/internal/policy"
	"github.com/mbeier1406/chaos-portal/internal/store"
)

// Guard checks access at the view level, after the target view identity is
// resolved. It applies the full policy including the protected-override
// set, so it denies some views the request filter lets through (the
// reports page). The guard is stateless; the caller passes the session
// state explicitly — there is no ambient session lookup.
type Guard struct {
	policy *policy.Policy
	logger *slog.Logger
}

// NewGuard creates a view guard over the given policy.
func NewGuard(pol *policy.Policy) *Guard {
	return &Guard{
		policy: pol,
		logger: slog.Default().With("component", "guard"),
	}
}

// Allow reports whether the session may render the given view. Every check
// is logged with the view identity and its classification.
func (g *Guard) Allow(sess *store.Session, viewID string) bool {
	class := g.policy.ClassifyView(viewID)
	g.logger.Info("view check",
		"view", viewID,
		"classification", class.String(),
		"logged_in", sess != nil && !sess.Anonymous(),
	)

	if class == policy.Protected && (sess == nil || sess.Anonymous()) {
		return false
	}
	return true
}
