package web

import (
	"net/http"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/ledger"
	"github.com/erazemk/lostfound/internal/uploads"
	webembed "github.com/erazemk/lostfound/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(l *ledger.Ledger, gate *auth.Gate, files *uploads.Dir) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Ledger:    l,
		Gate:      gate,
		Files:     files,
		Templates: templates,
	}

	mux := http.NewServeMux()

	// Static assets and uploaded photos.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.Static))))
	mux.Handle("GET /uploads/{filename}", files)

	// Public routes.
	mux.HandleFunc("GET /{$}", s.Index)
	mux.HandleFunc("GET /register", s.RegisterPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /report/{id}", s.ReportPage)

	// Logged-in routes.
	mux.Handle("GET /logout", requireLogin(s.Logout))
	mux.Handle("GET /submit", requireLogin(s.SubmitPage))
	mux.Handle("POST /submit", requireLogin(s.SubmitReport))
	mux.Handle("POST /report/{id}/respond", requireLogin(s.RespondSubmit))
	mux.Handle("GET /settings", requireLogin(s.SettingsPage))
	mux.Handle("POST /settings", requireLogin(s.SettingsSubmit))

	// Staff routes.
	mux.Handle("GET /admin", requireStaff(s.AdminPage))
	mux.Handle("POST /admin/update_status/{id}", requireStaff(s.UpdateStatusSubmit))
	mux.Handle("POST /admin/delete_report/{id}", requireStaff(s.DeleteReportSubmit))
	mux.Handle("GET /admin/export", requireStaff(s.ExportReports))
	mux.Handle("GET /admin/users", requireStaff(s.UsersPage))
	mux.Handle("POST /admin/users/{id}/role", requireStaff(s.UserRoleSubmit))

	return SessionMiddleware(gate)(mux), nil
}
