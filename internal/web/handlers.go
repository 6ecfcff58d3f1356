// ABOUTME: Page handlers for the portal: login, logout, dashboard, demo pages
// ABOUTME: Every page passes through the view guard before rendering

package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mbeier1406/chaos-portal/internal/session"
	"github.com/mbeier1406/chaos-portal/internal/store"
)

// timeLayout matches the portal's dd.MM.yyyy HH:mm:ss display format.
const timeLayout = "02.01.2006 15:04:05"

// messageAttribute holds the per-session welcome message shown on the dashboard.
const messageAttribute = "message"

// defaultMessage greets sessions that haven't clicked the button yet.
const defaultMessage = "Welcome to Chaos!"

// checkView runs the view guard for the resolved view identity. On deny it
// issues the login navigation and returns ok=false; the handler must stop.
func (p *Portal) checkView(w http.ResponseWriter, r *http.Request, viewID string) (*store.Session, bool) {
	sess := session.FromContext(r.Context())
	if !p.guard.Allow(sess, viewID) {
		http.Redirect(w, r, p.loginURL(), http.StatusSeeOther)
		return nil, false
	}
	return sess, true
}

// handleIndex renders the public landing page.
func (p *Portal) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.checkView(w, r, "/index")
	if !ok {
		return
	}
	p.renderIndex(w, sess, time.Now().Format(timeLayout))
}

// handleLoginPage renders the login form. Already-authenticated sessions
// are sent straight to the dashboard.
func (p *Portal) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.checkView(w, r, "/login")
	if !ok {
		return
	}

	if sess != nil && !sess.Anonymous() {
		http.Redirect(w, r, p.pageURL("/dashboard"), http.StatusSeeOther)
		return
	}

	errorMsg := ""
	if sess != nil {
		errorMsg = sess.LastError
	}
	p.renderLogin(w, errorMsg)
}

// handleLogin processes the login form submission.
func (p *Portal) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.checkView(w, r, "/login")
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		p.renderLogin(w, "Invalid form data")
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	loggedIn, err := p.sessions.Login(r.Context(), w, r, sess, username, password)
	if err != nil {
		p.logger.Error("login failed to persist", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if !loggedIn {
		// Stay on the login page with the fixed message; the password
		// field is never echoed back.
		p.renderLogin(w, sess.LastError)
		return
	}

	http.Redirect(w, r, p.pageURL("/dashboard"), http.StatusSeeOther)
}

// handleLogout logs the session out and returns to the landing page.
func (p *Portal) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess != nil {
		if err := p.sessions.Logout(r.Context(), w, sess); err != nil {
			p.logger.Error("logout failed to persist", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}
	http.Redirect(w, r, p.pageURL("/index"), http.StatusSeeOther)
}

// handleDashboard renders the protected dashboard: current time, the
// session welcome message, and the announcement.
func (p *Portal) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.checkView(w, r, "/dashboard")
	if !ok {
		return
	}

	message := sess.Attributes[messageAttribute]
	if message == "" {
		message = defaultMessage
	}

	p.renderDashboard(w, sess, message, time.Now().Format(timeLayout), p.motd)
}

// handleDashboardMessage updates the session welcome message.
func (p *Portal) handleDashboardMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.checkView(w, r, "/dashboard")
	if !ok {
		return
	}

	msg := fmt.Sprintf("You clicked the button! Time: %s", time.Now().Format(timeLayout))
	if err := p.sessions.SetAttribute(r.Context(), sess, messageAttribute, msg); err != nil {
		p.logger.Error("failed to save message", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, p.pageURL("/dashboard"), http.StatusSeeOther)
}

// handleUser renders the inline-protection demo page. The page is public
// in the policy; the handler itself decides what an anonymous visitor may
// see, demonstrating page-level checks next to the two central ones.
func (p *Portal) handleUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.checkView(w, r, "/user")
	if !ok {
		return
	}
	p.renderUser(w, sess)
}

// handleReports renders the reports page. The page is public in the base
// policy, but the override set re-protects it here: the request filter
// forwards anonymous requests, the view guard turns them away.
func (p *Portal) handleReports(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.checkView(w, r, "/reports")
	if !ok {
		return
	}
	p.renderReports(w, sess)
}

// handleErrorPage renders the public error pages.
func (p *Portal) handleErrorPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.checkView(w, r, "/error/"+r.PathValue("code")); !ok {
		return
	}
	p.renderError(w, r.PathValue("code"))
}

// handleMissing deliberately answers 404, the portal's error-handling demo.
func (p *Portal) handleMissing(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.checkView(w, r, "/missing"); !ok {
		return
	}
	http.Error(w, "404 - page not found", http.StatusNotFound)
}

// handleBoom deliberately fails, the portal's error-handling demo.
func (p *Portal) handleBoom(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.checkView(w, r, "/dashboard"); !ok {
		return
	}
	p.logger.Error("deliberate test error triggered")
	http.Error(w, "Internal server error (test)", http.StatusInternalServerError)
}

// handleHello is the plain-text demo endpoint.
func (p *Portal) handleHello(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Hello from chaos-portal")
}
