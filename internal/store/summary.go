package store

import (
	"context"
	"fmt"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
)

// ReportSummary returns report counts grouped by type and status.
func ReportSummary(ctx context.Context, conn *db.DB) ([]model.ReportCount, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT report_type, status, COUNT(*)
		 FROM reports
		 GROUP BY report_type, status
		 ORDER BY report_type, status`,
	)
	if err != nil {
		return nil, fmt.Errorf("summarising reports: %w", err)
	}
	defer rows.Close()

	var counts []model.ReportCount
	for rows.Next() {
		var c model.ReportCount
		if err := rows.Scan(&c.Type, &c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning report count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
