package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/ledger"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/uploads"
	webembed "github.com/erazemk/lostfound/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2 Jan 2006 15:04")
		},
		"typeName": func(reportType string) string {
			switch reportType {
			case model.ReportLost:
				return "Lost"
			case model.ReportFound:
				return "Found"
			default:
				return reportType
			}
		},
		"statusClass": func(status string) string {
			switch status {
			case model.StatusPending:
				return "status-pending"
			case model.StatusMatched:
				return "status-matched"
			case model.StatusClaimed:
				return "status-claimed"
			default:
				return "status-other"
			}
		},
		"opposite": model.OppositeType,
	}
}

var pages = []string{
	"index.html",
	"register.html",
	"login.html",
	"submit.html",
	"report.html",
	"admin.html",
	"users.html",
	"settings.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.Templates

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl, err := template.New(page).Funcs(FuncMap()).Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		if tmpl, err = tmpl.Parse(string(pageBytes)); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a page template inside the layout.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		log.WithError(err).WithField("template", name).Error("Failed to render template")
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title      string
	User       *auth.Identity
	Flash      *Flash
	Categories []string
	Statuses   []string
}

// Server holds all dependencies for page handlers.
type Server struct {
	Ledger    *ledger.Ledger
	Gate      *auth.Gate
	Files     *uploads.Dir
	Templates *Templates
}

// page builds the base data for a page and consumes any pending flash.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title string) PageData {
	return PageData{
		Title:      title,
		User:       auth.FromContext(r.Context()),
		Flash:      popFlash(w, r),
		Categories: model.Categories,
		Statuses:   model.Statuses,
	}
}
