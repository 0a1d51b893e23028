package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventVerificationSucceeded EventType = "verification_succeeded"
	EventVerificationDuplicate EventType = "verification_duplicate"
	EventUserVerified          EventType = "user_verified"
	EventTokenIssued           EventType = "token_issued"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	FID       int64       `json:"fid"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// VerificationSucceededPayload payload.
type VerificationSucceededPayload struct {
	UserID         string  `json:"user_id"`
	EventID        string  `json:"event_id"`
	TicketCategory *string `json:"ticket_category,omitempty"`
	Watermark      string  `json:"watermark"`
}

// VerificationDuplicatePayload payload.
type VerificationDuplicatePayload struct {
	UserID  string `json:"user_id"`
	EventID string `json:"event_id"`
}

// UserVerifiedPayload payload.
type UserVerifiedPayload struct {
	UserID string `json:"user_id"`
}

// TokenIssuedPayload payload.
type TokenIssuedPayload struct {
	UserID    string    `json:"user_id"`
	Audience  string    `json:"audience"`
	ExpiresAt time.Time `json:"expires_at"`
}
