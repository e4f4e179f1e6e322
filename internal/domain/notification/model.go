package notification

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeReminder = "reminder"
	TypeInfo     = "info"
	TypeAlert    = "alert"
)

var validTypes = map[string]bool{
	TypeReminder: true,
	TypeInfo:     true,
	TypeAlert:    true,
}

// Notification is an entry in a user's in-app feed.
type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Type      string    `db:"type" json:"type"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
