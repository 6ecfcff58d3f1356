// ABOUTME: Portal web UI package wiring routes, filter, and view guard
// ABOUTME: Serves the page handlers and the plain-text hello endpoint

package web

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/mbeier1406/chaos-portal/internal/config"
	"github.com/mbeier1406/chaos-portal/internal/policy"
	"github.com/mbeier1406/chaos-portal/internal/session"
)

// Portal handles the portal routes and holds the two enforcement points:
// the request filter (AuthGate) and the view guard (Guard). Both consult
// the same policy; they stay separate checks on purpose — the override set
// makes them disagree for the reports page.
type Portal struct {
	cfg      *config.Config
	sessions *session.Manager
	policy   *policy.Policy
	guard    *Guard
	logger   *slog.Logger
	motd     template.HTML
}

// New creates the portal handler set.
func New(cfg *config.Config, sessions *session.Manager, pol *policy.Policy) (*Portal, error) {
	motd, err := renderAnnouncement()
	if err != nil {
		return nil, fmt.Errorf("rendering announcement: %w", err)
	}

	return &Portal{
		cfg:      cfg,
		sessions: sessions,
		policy:   pol,
		guard:    NewGuard(pol),
		logger:   slog.Default().With("component", "web"),
		motd:     motd,
	}, nil
}

// RegisterRoutes registers all portal routes on the given mux.
func (p *Portal) RegisterRoutes(mux *http.ServeMux) {
	// Pages
	mux.HandleFunc("GET /{$}", p.handleIndex)
	mux.HandleFunc("GET /index", p.handleIndex)
	mux.HandleFunc("GET /login", p.handleLoginPage)
	mux.HandleFunc("POST /login", p.handleLogin)
	mux.HandleFunc("POST /logout", p.handleLogout)
	mux.HandleFunc("GET /dashboard", p.handleDashboard)
	mux.HandleFunc("POST /dashboard/message", p.handleDashboardMessage)
	mux.HandleFunc("POST /dashboard/boom", p.handleBoom)
	mux.HandleFunc("GET /user", p.handleUser)
	mux.HandleFunc("GET /reports", p.handleReports)
	mux.HandleFunc("GET /error/{code}", p.handleErrorPage)
	mux.HandleFunc("GET /missing", p.handleMissing)

	// Plain-text demo endpoint
	mux.HandleFunc("GET /hello", p.handleHello)

	// Embedded static assets
	mux.Handle("GET /styles/", http.FileServerFS(staticFS()))
	mux.Handle("GET /static/", http.StripPrefix("/static", http.FileServerFS(staticFS())))

	p.logger.Info("portal routes registered")
}

// Handler returns the complete portal handler: mux wrapped by the request
// filter and the access log, mounted under the configured base path.
func (p *Portal) Handler() http.Handler {
	mux := http.NewServeMux()
	p.RegisterRoutes(mux)

	var h http.Handler = p.AuthGate(mux)
	h = p.logRequests(h)

	if base := p.cfg.Server.BasePath; base != "" {
		outer := http.NewServeMux()
		outer.Handle(base+"/", http.StripPrefix(base, h))
		return outer
	}
	return h
}

// loginURL is the redirect target for denied requests, preserving the
// deployment's base path prefix.
func (p *Portal) loginURL() string {
	return p.cfg.Server.BasePath + "/login"
}

// pageURL prefixes a portal-relative path with the base path.
func (p *Portal) pageURL(path string) string {
	return p.cfg.Server.BasePath + path
}

// renderAnnouncement converts the embedded markdown announcement into HTML
// for the dashboard.
func renderAnnouncement() (template.HTML, error) {
	src, err := templateFS.ReadFile("templates/announcement.md")
	if err != nil {
		return "", fmt.Errorf("reading announcement: %w", err)
	}

	var buf bytes.Buffer
	if err := goldmark.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	// The announcement ships with the binary; it is trusted content.
	return template.HTML(buf.String()), nil
}
