package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/imaging"
	"github.com/erazemk/lostfound/internal/ledger"
	"github.com/erazemk/lostfound/internal/model"
)

// maxFormSize bounds a report submission including its photo.
const maxFormSize = imaging.MaxUploadSize + 1<<20

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	filter := ledger.Filter{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	}

	reports, err := s.Ledger.ListReports(r.Context(), filter)
	if err != nil {
		log.WithError(err).Error("Failed to list reports")
	}

	s.Templates.Render(w, "index.html", &struct {
		PageData
		Reports  []model.Report
		Query    string
		Category string
	}{
		PageData: s.page(w, r, "Lost & Found"),
		Reports:  reports,
		Query:    filter.Query,
		Category: filter.Category,
	})
}

// SubmitPage handles GET /submit.
func (s *Server) SubmitPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "submit.html", s.page(w, r, "Submit a report"))
}

// SubmitReport handles POST /submit.
func (s *Server) SubmitReport(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		redirectWithFlash(w, r, "/submit", FlashWarning, "The upload is too large.")
		return
	}

	in := ledger.NewReport{
		Type:        r.FormValue("report_type"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		if header.Filename != "" {
			name, err := s.Files.Save(header.Filename, file)
			if err != nil {
				fail(w, r, err, "/submit")
				return
			}
			in.ImageRef = name
		}
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		log.WithError(err).Warn("Failed to read uploaded photo")
	}

	report, err := s.Ledger.FileReport(r.Context(), caller, in)
	if err != nil {
		fail(w, r, err, "/submit")
		return
	}

	redirectWithFlash(w, r, fmt.Sprintf("/report/%d", report.ID), FlashSuccess, "Report submitted.")
}

// ReportPage handles GET /report/{id}.
func (s *Server) ReportPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	report, err := s.Ledger.GetReport(r.Context(), id)
	if errors.Is(err, model.ErrNotFound) {
		http.Error(w, "report not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.WithError(err).WithField("report", id).Error("Failed to get report")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	related, err := s.Ledger.ReportsForItem(r.Context(), report.ItemID)
	if err != nil {
		log.WithError(err).WithField("item", report.ItemID).Error("Failed to list related reports")
	}

	s.Templates.Render(w, "report.html", &struct {
		PageData
		Report  *model.Report
		Related []model.Report
	}{
		PageData: s.page(w, r, fmt.Sprintf("Report #%d", report.ID)),
		Report:   report,
		Related:  related,
	})
}

// RespondSubmit handles POST /report/{id}/respond.
func (s *Server) RespondSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	back := fmt.Sprintf("/report/%d", id)
	report, err := s.Ledger.RespondToReport(r.Context(), auth.FromContext(r.Context()), id, r.FormValue("report_type"))
	if err != nil {
		fail(w, r, err, back)
		return
	}

	redirectWithFlash(w, r, fmt.Sprintf("/report/%d", report.ID), FlashSuccess, "Thanks, your report was added to this item.")
}
