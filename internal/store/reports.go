package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
)

// NewReport holds the values for a report and the item it creates.
type NewReport struct {
	UserID      int64
	Type        string
	Category    string
	Description string
	Location    string
	ImagePath   string
}

// ReportFilter narrows ListReports. Empty fields match everything.
type ReportFilter struct {
	Query    string // case-insensitive substring of the item description
	Category string // exact category
}

const reportSelect = `
SELECT r.report_id, r.user_id, r.item_id, r.report_type, r.status, r.created_at,
       i.category, i.description, i.location, i.image_path, i.created_at,
       u.name
FROM reports r
JOIN items i ON i.item_id = r.item_id
JOIN users u ON u.id = r.user_id`

// CreateReport inserts an item and a report referencing it in one transaction.
func CreateReport(ctx context.Context, conn *db.DB, in NewReport) (*model.Report, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO items (category, description, location, image_path) VALUES (?, ?, ?, ?)`,
		in.Category, nullString(in.Description), nullString(in.Location), nullString(in.ImagePath),
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	itemID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	reportID, err := insertReport(ctx, tx, in.UserID, itemID, in.Type)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing report: %w", err)
	}
	return GetReport(ctx, conn, reportID)
}

// AddReportToItem files another report against an existing item.
// Returns model.ErrNotFound if the item no longer exists.
func AddReportToItem(ctx context.Context, conn *db.DB, userID, itemID int64, reportType string) (*model.Report, error) {
	tx, err := beginItemTx(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := lockItem(ctx, tx, conn.Dialect, itemID); err != nil {
		return nil, err
	}

	reportID, err := insertReport(ctx, tx, userID, itemID, reportType)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing report: %w", err)
	}
	return GetReport(ctx, conn, reportID)
}

func insertReport(ctx context.Context, tx *sql.Tx, userID, itemID int64, reportType string) (int64, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reports (user_id, item_id, report_type, status) VALUES (?, ?, ?, ?)`,
		userID, itemID, reportType, model.StatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("creating report: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting report id: %w", err)
	}
	return id, nil
}

// GetReport returns a report with its item and reporter name.
func GetReport(ctx context.Context, conn *db.DB, id int64) (*model.Report, error) {
	rows, err := conn.QueryContext(ctx, reportSelect+` WHERE r.report_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("getting report: %w", err)
	}
	defer rows.Close()

	reports, err := scanReports(rows)
	if err != nil {
		return nil, fmt.Errorf("getting report: %w", err)
	}
	if len(reports) == 0 {
		return nil, nil
	}
	return &reports[0], nil
}

// ListReports returns reports newest first.
func ListReports(ctx context.Context, conn *db.DB, filter ReportFilter) ([]model.Report, error) {
	var where []string
	var args []any

	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, `LOWER(i.description) LIKE ? ESCAPE '!'`)
		args = append(args, "%"+escapeLike(strings.ToLower(q))+"%")
	}
	if filter.Category != "" {
		where = append(where, `i.category = ?`)
		args = append(args, filter.Category)
	}

	query := reportSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY r.created_at DESC, r.report_id DESC`

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	reports, err := scanReports(rows)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return reports, nil
}

// ListReportsForItem returns every report referencing an item, newest first.
func ListReportsForItem(ctx context.Context, conn *db.DB, itemID int64) ([]model.Report, error) {
	rows, err := conn.QueryContext(ctx,
		reportSelect+` WHERE r.item_id = ? ORDER BY r.created_at DESC, r.report_id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reports for item: %w", err)
	}
	defer rows.Close()

	reports, err := scanReports(rows)
	if err != nil {
		return nil, fmt.Errorf("listing reports for item: %w", err)
	}
	return reports, nil
}

// UpdateReportStatus overwrites a report's status.
// Returns model.ErrNotFound if the report does not exist.
func UpdateReportStatus(ctx context.Context, conn *db.DB, id int64, status string) error {
	result, err := conn.ExecContext(ctx,
		`UPDATE reports SET status = ? WHERE report_id = ?`, status, id,
	)
	if err != nil {
		return fmt.Errorf("updating report status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating report status: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteReport deletes a report and, when it was the last report referencing
// its item, the item too. Everything happens in one transaction that holds
// the item lock, so concurrent deletions against the same item cannot both
// see zero remaining reports.
//
// The deleted item is returned (nil if other reports still reference it) so
// the caller can clean up its image after the commit. Returns
// model.ErrNotFound if the report does not exist.
func DeleteReport(ctx context.Context, conn *db.DB, id int64) (*model.Item, error) {
	tx, err := beginItemTx(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var itemID int64
	err = tx.QueryRowContext(ctx,
		`SELECT item_id FROM reports WHERE report_id = ?`, id,
	).Scan(&itemID)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting report: %w", err)
	}

	if err := lockItem(ctx, tx, conn.Dialect, itemID); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE report_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("deleting report: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("deleting report: %w", err)
	} else if n == 0 {
		// Another transaction removed it between our read and the lock.
		return nil, model.ErrNotFound
	}

	remaining, err := countReportsForItem(ctx, tx, itemID)
	if err != nil {
		return nil, fmt.Errorf("counting remaining reports: %w", err)
	}

	var orphan *model.Item
	if remaining == 0 {
		orphan, err = getItem(ctx, tx, itemID)
		if err != nil {
			return nil, fmt.Errorf("getting item: %w", err)
		}
		if orphan != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE item_id = ?`, itemID); err != nil {
				return nil, fmt.Errorf("deleting item: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing report deletion: %w", err)
	}
	return orphan, nil
}

func scanReports(rows *sql.Rows) ([]model.Report, error) {
	var reports []model.Report
	for rows.Next() {
		var r model.Report
		var description, location, imagePath sql.NullString
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.ItemID, &r.Type, &r.Status, &r.CreatedAt,
			&r.Item.Category, &description, &location, &imagePath, &r.Item.CreatedAt,
			&r.ReporterName,
		); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		r.Item.ID = r.ItemID
		r.Item.Description = description.String
		r.Item.Location = location.String
		r.Item.ImagePath = imagePath.String
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
