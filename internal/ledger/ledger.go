package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// FileStore removes stored item photos.
type FileStore interface {
	Remove(name string) error
}

// Ledger files, lists, updates and deletes reports and the items behind
// them.
type Ledger struct {
	DB    *db.DB
	Files FileStore
}

// New returns a ledger. files may be nil when photos are not stored.
func New(conn *db.DB, files FileStore) *Ledger {
	return &Ledger{DB: conn, Files: files}
}

// NewReport is the user input for filing a report.
type NewReport struct {
	Type        string `form:"report_type" validate:"required,oneof=lost found"`
	Category    string `form:"category" validate:"required,category"`
	Description string `form:"description" validate:"required,max=2000"`
	Location    string `form:"location" validate:"max=200"`
	ImageRef    string `form:"-"`
}

// Filter narrows ListReports.
type Filter struct {
	Query    string
	Category string
}

// FileReport creates an item and a report for it. The caller must be
// logged in. If the report cannot be stored, the photo named by ImageRef
// is removed.
func (l *Ledger) FileReport(ctx context.Context, caller *auth.Identity, in NewReport) (*model.Report, error) {
	report, err := l.fileReport(ctx, caller, in)
	if err != nil && in.ImageRef != "" {
		l.removeFile(in.ImageRef)
	}
	return report, err
}

func (l *Ledger) fileReport(ctx context.Context, caller *auth.Identity, in NewReport) (*model.Report, error) {
	if err := auth.Authorize(caller, model.RoleStudent); err != nil {
		return nil, err
	}

	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	if err := model.Validate(in); err != nil {
		return nil, err
	}

	report, err := store.CreateReport(ctx, l.DB, store.NewReport{
		UserID:      caller.UserID,
		Type:        in.Type,
		Category:    in.Category,
		Description: in.Description,
		Location:    in.Location,
		ImagePath:   in.ImageRef,
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user":     caller.UserID,
		"report":   report.ID,
		"type":     report.Type,
		"category": report.Item.Category,
		"location": report.Item.Location,
	}).Info("New report filed")
	return report, nil
}

// RespondToReport files a report of the given type against the item of an
// existing report, e.g. "I found this" on a lost report.
func (l *Ledger) RespondToReport(ctx context.Context, caller *auth.Identity, reportID int64, reportType string) (*model.Report, error) {
	if err := auth.Authorize(caller, model.RoleStudent); err != nil {
		return nil, err
	}
	if reportType != model.ReportLost && reportType != model.ReportFound {
		return nil, model.NewValidationError("report_type", "must be one of: lost found")
	}

	original, err := l.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	report, err := store.AddReportToItem(ctx, l.DB, caller.UserID, original.ItemID, reportType)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user":   caller.UserID,
		"report": report.ID,
		"item":   report.ItemID,
		"type":   report.Type,
	}).Info("Response report filed")
	return report, nil
}

// UpdateStatus overwrites the status of a report. Staff only. Any status
// may follow any other.
func (l *Ledger) UpdateStatus(ctx context.Context, caller *auth.Identity, reportID int64, status string) error {
	if err := auth.Authorize(caller, model.RoleStaff); err != nil {
		return err
	}

	status = strings.TrimSpace(status)
	if status == "" {
		return model.NewValidationError("status", "is required")
	}
	if len(status) > model.MaxStatusLength {
		return model.NewValidationError("status", fmt.Sprintf("must be at most %d characters", model.MaxStatusLength))
	}

	if err := store.UpdateReportStatus(ctx, l.DB, reportID, status); err != nil {
		return err
	}

	log.WithFields(log.Fields{"user": caller.UserID, "report": reportID, "status": status}).Info("Report status updated")
	return nil
}

// GetReport returns a report with its item, or model.ErrNotFound.
func (l *Ledger) GetReport(ctx context.Context, reportID int64) (*model.Report, error) {
	report, err := store.GetReport(ctx, l.DB, reportID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, model.ErrNotFound
	}
	return report, nil
}

// ListReports returns matching reports, newest first.
func (l *Ledger) ListReports(ctx context.Context, filter Filter) ([]model.Report, error) {
	return store.ListReports(ctx, l.DB, store.ReportFilter{
		Query:    strings.TrimSpace(filter.Query),
		Category: filter.Category,
	})
}

// ReportsForItem returns every report filed against an item, newest first.
func (l *Ledger) ReportsForItem(ctx context.Context, itemID int64) ([]model.Report, error) {
	return store.ListReportsForItem(ctx, l.DB, itemID)
}

// CountReportsForItem returns how many reports reference an item.
func (l *Ledger) CountReportsForItem(ctx context.Context, itemID int64) (int, error) {
	return store.CountReportsForItem(ctx, l.DB, itemID)
}

// Summary returns report counts by type and status. Staff only.
func (l *Ledger) Summary(ctx context.Context, caller *auth.Identity) ([]model.ReportCount, error) {
	if err := auth.Authorize(caller, model.RoleStaff); err != nil {
		return nil, err
	}
	return store.ReportSummary(ctx, l.DB)
}

// DeleteReport removes a report. Staff only. If it was the last report on
// its item, the item is removed in the same transaction and its photo is
// deleted after the commit. A photo that cannot be deleted is logged and
// otherwise ignored.
func (l *Ledger) DeleteReport(ctx context.Context, caller *auth.Identity, reportID int64) error {
	if err := auth.Authorize(caller, model.RoleStaff); err != nil {
		return err
	}

	orphan, err := store.DeleteReport(ctx, l.DB, reportID)
	if errors.Is(err, model.ErrNotFound) {
		return err
	}
	if err != nil {
		log.WithError(err).WithField("report", reportID).Error("Report deletion rolled back")
		return fmt.Errorf("%w: deleting report %d", model.ErrTransaction, reportID)
	}

	fields := log.Fields{"user": caller.UserID, "report": reportID}
	if orphan != nil {
		fields["item"] = orphan.ID
		if orphan.ImagePath != "" {
			l.removeFile(orphan.ImagePath)
		}
	}
	log.WithFields(fields).Info("Report deleted")
	return nil
}

func (l *Ledger) removeFile(name string) {
	if l.Files == nil {
		return
	}
	if err := l.Files.Remove(name); err != nil {
		log.WithError(err).WithField("file", name).Warn("Failed to remove photo")
	}
}
