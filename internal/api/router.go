package api

import (
	"net/http"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/ledger"
	"github.com/erazemk/lostfound/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(l *ledger.Ledger, gate *auth.Gate) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Gate: gate}
	reportsHandler := &ReportsHandler{Ledger: l}
	usersHandler := &UsersHandler{Credentials: gate.Credentials}

	requireLogin := RequireRole(model.RoleStudent)
	requireStaff := RequireRole(model.RoleStaff)

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("GET /api/reports", reportsHandler.List)
	mux.HandleFunc("GET /api/reports/{id}", reportsHandler.Get)

	// Logged in.
	mux.Handle("POST /api/auth/logout", requireLogin(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", requireLogin(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/reports", requireLogin(http.HandlerFunc(reportsHandler.Create)))
	mux.Handle("POST /api/reports/{id}/respond", requireLogin(http.HandlerFunc(reportsHandler.Respond)))

	// Staff.
	mux.Handle("GET /api/reports/summary", requireStaff(http.HandlerFunc(reportsHandler.Summary)))
	mux.Handle("PUT /api/reports/{id}/status", requireStaff(http.HandlerFunc(reportsHandler.UpdateStatus)))
	mux.Handle("DELETE /api/reports/{id}", requireStaff(http.HandlerFunc(reportsHandler.Delete)))
	mux.Handle("GET /api/users", requireStaff(http.HandlerFunc(usersHandler.List)))
	mux.Handle("PUT /api/users/{id}/role", requireStaff(http.HandlerFunc(usersHandler.UpdateRole)))

	return IdentityMiddleware(gate)(mux)
}
