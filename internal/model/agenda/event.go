package agenda

import "time"

// Event statuses. Drafts hold raw message text until a later parsing pass
// fills in the structured fields.
const (
	StatusConfirmed = "confirmed"
	StatusDraft     = "draft"
)

// Event is a calendar entry owned by a user.
type Event struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Title    string    `json:"title"`
	StartsAt time.Time `json:"startsAt"`
	RawText  string    `json:"rawText,omitempty"`
	Status   string    `json:"status"`
}
