package model

import "time"

// Report is a lost or found claim filed by a user against an item.
type Report struct {
	ID        int64     `json:"report_id"`
	UserID    int64     `json:"user_id"`
	ItemID    int64     `json:"item_id"`
	Type      string    `json:"report_type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields (not always populated).
	Item         Item   `json:"item"`
	ReporterName string `json:"reporter_name,omitempty"`
}

// Report types.
const (
	ReportLost  = "lost"
	ReportFound = "found"
)

// Report statuses. Any status may follow any other.
const (
	StatusPending = "pending"
	StatusMatched = "matched"
	StatusClaimed = "claimed"
)

// Statuses lists the conventional statuses offered in forms.
var Statuses = []string{StatusPending, StatusMatched, StatusClaimed}

// MaxStatusLength is the width of the status column.
const MaxStatusLength = 20

// OppositeType returns the counterpart report type (lost <-> found).
func OppositeType(t string) string {
	if t == ReportLost {
		return ReportFound
	}
	return ReportLost
}

// ReportCount is the number of reports with a given type and status.
type ReportCount struct {
	Type   string `json:"report_type"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}
