// ABOUTME: Template rendering functions for the portal pages
// ABOUTME: Loads templates from the embedded filesystem and renders them

package web

import (
	"html/template"
	"net/http"

	"github.com/mbeier1406/chaos-portal/internal/store"
)

// Template data types. Base carries the deployment path prefix so links
// and form targets stay correct when the portal is not mounted at the root.
type indexData struct {
	Title       string
	Base        string
	LoggedIn    bool
	Username    string
	CurrentTime string
}

type loginData struct {
	Title string
	Base  string
	Error string
}

type dashboardData struct {
	Title        string
	Base         string
	Username     string
	Message      string
	CurrentTime  string
	Announcement template.HTML
}

type userData struct {
	Title    string
	Base     string
	LoggedIn bool
	Username string
}

type reportsData struct {
	Title    string
	Base     string
	Username string
}

type errorData struct {
	Title string
	Base  string
	Code  string
}

// render parses the base template plus one page template and executes it.
func (p *Portal) render(w http.ResponseWriter, page string, data any) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/"+page))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		p.logger.Error("failed to render page", "page", page, "error", err)
	}
}

func (p *Portal) renderIndex(w http.ResponseWriter, sess *store.Session, currentTime string) {
	data := indexData{
		Title:       "Chaos Portal",
		Base:        p.cfg.Server.BasePath,
		CurrentTime: currentTime,
	}
	if sess != nil {
		data.LoggedIn = !sess.Anonymous()
		data.Username = sess.Username
	}
	p.render(w, "index.html", data)
}

func (p *Portal) renderLogin(w http.ResponseWriter, errorMsg string) {
	p.render(w, "login.html", loginData{
		Title: "Login",
		Base:  p.cfg.Server.BasePath,
		Error: errorMsg,
	})
}

func (p *Portal) renderDashboard(w http.ResponseWriter, sess *store.Session, message, currentTime string, announcement template.HTML) {
	p.render(w, "dashboard.html", dashboardData{
		Title:        "Dashboard",
		Base:         p.cfg.Server.BasePath,
		Username:     sess.Username,
		Message:      message,
		CurrentTime:  currentTime,
		Announcement: announcement,
	})
}

func (p *Portal) renderUser(w http.ResponseWriter, sess *store.Session) {
	data := userData{Title: "User", Base: p.cfg.Server.BasePath}
	if sess != nil {
		data.LoggedIn = !sess.Anonymous()
		data.Username = sess.Username
	}
	p.render(w, "user.html", data)
}

func (p *Portal) renderReports(w http.ResponseWriter, sess *store.Session) {
	p.render(w, "reports.html", reportsData{
		Title:    "Reports",
		Base:     p.cfg.Server.BasePath,
		Username: sess.Username,
	})
}

func (p *Portal) renderError(w http.ResponseWriter, code string) {
	p.render(w, "error.html", errorData{
		Title: "Error",
		Base:  p.cfg.Server.BasePath,
		Code:  code,
	})
}
