package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/ledger"
	"github.com/erazemk/lostfound/internal/model"
)

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	Ledger *ledger.Ledger
}

type createReportRequest struct {
	Type        string `json:"report_type"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type respondRequest struct {
	Type string `json:"report_type"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// List handles GET /api/reports.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.Ledger.ListReports(r.Context(), ledger.Filter{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reports == nil {
		reports = []model.Report{}
	}
	jsonResponse(w, http.StatusOK, reports)
}

// Summary handles GET /api/reports/summary.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Ledger.Summary(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if counts == nil {
		counts = []model.ReportCount{}
	}
	jsonResponse(w, http.StatusOK, counts)
}

// Get handles GET /api/reports/{id}.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	report, err := h.Ledger.GetReport(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// Create handles POST /api/reports. Photos are only accepted through the
// web form.
func (h *ReportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.Ledger.FileReport(r.Context(), auth.FromContext(r.Context()), ledger.NewReport{
		Type:        req.Type,
		Category:    req.Category,
		Description: req.Description,
		Location:    req.Location,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, report)
}

// Respond handles POST /api/reports/{id}/respond.
func (h *ReportsHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req respondRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.Ledger.RespondToReport(r.Context(), auth.FromContext(r.Context()), id, req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, report)
}

// UpdateStatus handles PUT /api/reports/{id}/status.
func (h *ReportsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Ledger.UpdateStatus(r.Context(), auth.FromContext(r.Context()), id, req.Status); err != nil {
		writeError(w, r, err)
		return
	}

	report, err := h.Ledger.GetReport(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// Delete handles DELETE /api/reports/{id}.
func (h *ReportsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.Ledger.DeleteReport(r.Context(), auth.FromContext(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
