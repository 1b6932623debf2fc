package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Registration statuses. Only approved participants are eligible for
// result recording and check-in.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Payment statuses.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Participant is one user's registration to one category of one event.
type Participant struct {
	bun.BaseModel `bun:"table:participants,alias:p"`

	ParticipantID int        `bun:"participant_id,pk,autoincrement" json:"participantID"`
	UserID        int        `bun:"user_id,notnull,unique:participants_no_dupes" json:"userID"`
	EventID       int        `bun:"event_id,notnull" json:"eventID"`
	CategoryID    int        `bun:"category_id,notnull,unique:participants_no_dupes" json:"categoryID"`
	Status        string     `bun:"status,notnull,default:'Pending'" json:"status"`
	PaymentStatus string     `bun:"payment_status,notnull,default:'unpaid'" json:"paymentStatus"`
	CheckinToken  string     `bun:"checkin_token,notnull,unique" json:"-"`
	CheckedInAt   *time.Time `bun:"checked_in_at" json:"checkedInAt,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`

	User     *User     `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	Category *Category `bun:"rel:belongs-to,join:category_id=category_id" json:"-"`
}
