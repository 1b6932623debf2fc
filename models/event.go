package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event represents a race event on a given date.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	EventID          int       `bun:"event_id,pk,autoincrement" json:"eventID"`
	Name             string    `bun:"name,notnull" json:"name"`
	Slug             string    `bun:"slug,notnull,unique" json:"slug"`
	Location         string    `bun:"location,notnull" json:"location"`
	Date             string    `bun:"date,notnull,type:date" json:"date"`
	RegistrationOpen bool      `bun:"registration_open,notnull,default:true" json:"registrationOpen"`
	CreatedAt        time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
