// ABOUTME: Request filter: the first, coarse-grained enforcement point
// ABOUTME: Resolves the session, classifies the raw path, redirects anonymous access

package web

import (
	"net/http"

	"github.com/mbeier1406/chaos-portal/internal/policy"
	"github.com/mbeier1406/chaos-portal/internal/session"
)

// AuthGate is the request-level access filter. It runs before any handler:
//
//  1. static resource paths pass unconditionally — they never carry
//     authentication semantics and must stay reachable on the login page too
//  2. the session is resolved and threaded into the request context
//  3. paths protected under the base classification redirect anonymous
//     sessions to the login page
//
// The override set is not consulted here; that is the view guard's job,
// which runs with the resolved view identity.
func (p *Portal) AuthGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if p.policy.IsResource(path) {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := p.sessions.Resolve(r.Context(), w, r)
		if err != nil {
			p.logger.Error("failed to resolve session", "error", err, "path", path)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		r = r.WithContext(session.WithSession(r.Context(), sess))

		if p.policy.Classify(path) == policy.Protected && sess.Anonymous() {
			p.logger.Debug("anonymous access to protected path", "path", path)
			http.Redirect(w, r, p.loginURL(), http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}
