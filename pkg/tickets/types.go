package tickets

import "time"

// Status is the lifecycle state of a ticket
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Ticket is a support ticket opened from the Discord server
type Ticket struct {
	ID        int64     `json:"id"`
	Reference string    `json:"reference"`
	SubjectID string    `json:"subject_id"`
	Topic     string    `json:"topic"`
	Status    Status    `json:"status"`
	ClosedBy  string    `json:"closed_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Warning is a moderation warning issued against a subject
type Warning struct {
	ID          int64     `json:"id"`
	SubjectID   string    `json:"subject_id"`
	ModeratorID string    `json:"moderator_id"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}
