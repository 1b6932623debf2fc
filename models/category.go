package models

import "github.com/uptrace/bun"

// Category is a race division within an event, e.g. "10K" or "Half Marathon".
// Rankings are always computed within a single category.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:ct"`

	CategoryID int     `bun:"category_id,pk,autoincrement" json:"categoryID"`
	EventID    int     `bun:"event_id,notnull,unique:categories_no_dupes" json:"eventID"`
	Name       string  `bun:"name,notnull,unique:categories_no_dupes" json:"name"`
	DistanceKM float64 `bun:"distance_km,notnull" json:"distanceKm"`

	Event *Event `bun:"rel:belongs-to,join:event_id=event_id" json:"-"`
}
