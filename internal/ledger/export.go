package ledger

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/model"
)

// ExportSheet is the name of the worksheet written by ExportReports.
const ExportSheet = "Reports"

var exportHeadings = []any{
	"Report ID", "Type", "Status", "Reported", "Reporter",
	"Item ID", "Category", "Description", "Location", "Photo",
}

// ExportReports writes every report as an .xlsx workbook. Staff only.
func (l *Ledger) ExportReports(ctx context.Context, caller *auth.Identity, w io.Writer) error {
	if err := auth.Authorize(caller, model.RoleStaff); err != nil {
		return err
	}

	reports, err := l.ListReports(ctx, Filter{})
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &exportHeadings); err != nil {
		return fmt.Errorf("writing headings: %w", err)
	}

	for i, r := range reports {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.ID, r.Type, r.Status, r.CreatedAt.UTC().Format("2006-01-02 15:04"), r.ReporterName,
			r.ItemID, r.Item.Category, r.Item.Description, r.Item.Location, r.Item.ImagePath,
		}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return fmt.Errorf("writing report %d: %w", r.ID, err)
		}
	}

	f.SetColWidth(ExportSheet, "D", "E", 18)
	f.SetColWidth(ExportSheet, "H", "H", 48)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
