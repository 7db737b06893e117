package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/ledger"
	"github.com/erazemk/lostfound/internal/model"
)

// AdminPage handles GET /admin.
func (s *Server) AdminPage(w http.ResponseWriter, r *http.Request) {
	reports, err := s.Ledger.ListReports(r.Context(), ledger.Filter{})
	if err != nil {
		log.WithError(err).Error("Failed to list reports")
	}
	summary, err := s.Ledger.Summary(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		log.WithError(err).Error("Failed to summarise reports")
	}

	s.Templates.Render(w, "admin.html", &struct {
		PageData
		Reports []model.Report
		Summary []model.ReportCount
	}{
		PageData: s.page(w, r, "Staff dashboard"),
		Reports:  reports,
		Summary:  summary,
	})
}

// UpdateStatusSubmit handles POST /admin/update_status/{id}.
func (s *Server) UpdateStatusSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := s.Ledger.UpdateStatus(r.Context(), auth.FromContext(r.Context()), id, r.FormValue("status")); err != nil {
		fail(w, r, err, "/admin")
		return
	}
	redirectWithFlash(w, r, "/admin", FlashSuccess, "Status updated.")
}

// DeleteReportSubmit handles POST /admin/delete_report/{id}.
func (s *Server) DeleteReportSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := s.Ledger.DeleteReport(r.Context(), auth.FromContext(r.Context()), id); err != nil {
		fail(w, r, err, "/admin")
		return
	}
	redirectWithFlash(w, r, "/admin", FlashSuccess, "Report deleted.")
}

// ExportReports handles GET /admin/export.
func (s *Server) ExportReports(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.Ledger.ExportReports(r.Context(), auth.FromContext(r.Context()), &buf); err != nil {
		fail(w, r, err, "/admin")
		return
	}

	filename := fmt.Sprintf("reports-%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		log.WithError(err).Error("Failed to write export")
	}
}
