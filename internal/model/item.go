package model

import "time"

// Item is the physical object a report describes. One item may be shared by
// several reports; it lives until the last of them is deleted.
type Item struct {
	ID          int64     `json:"item_id"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	ImagePath   string    `json:"image_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Item categories.
const (
	CategoryIDCard      = "ID/Card"
	CategoryBottle      = "Bottle"
	CategoryUmbrella    = "Umbrella"
	CategoryElectronics = "Electronics"
	CategoryClothing    = "Clothing"
	CategoryOther       = "Other"
)

// Categories lists item categories in display order.
var Categories = []string{
	CategoryIDCard,
	CategoryBottle,
	CategoryUmbrella,
	CategoryElectronics,
	CategoryClothing,
	CategoryOther,
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
