package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Result holds the recorded finish of a single participant in a category.
// CompletionTime keeps the marshal's original string; Ranking is nil until
// the category has been recalculated.
type Result struct {
	bun.BaseModel `bun:"table:results,alias:r"`

	ID             int       `bun:"id,pk,autoincrement" json:"id"`
	ParticipantID  int       `bun:"participant_id,notnull,unique:results_no_dupes" json:"participantID"`
	CategoryID     int       `bun:"category_id,notnull,unique:results_no_dupes" json:"categoryID"`
	CompletionTime string    `bun:"completion_time,notnull" json:"completionTime"`
	Ranking        *int      `bun:"ranking" json:"ranking,omitempty"`
	Note           *string   `bun:"note" json:"note,omitempty"`
	RecordedAt     time.Time `bun:"recorded_at,notnull,default:current_timestamp" json:"recordedAt"`

	Participant *Participant `bun:"rel:belongs-to,join:participant_id=participant_id" json:"-"`
}
