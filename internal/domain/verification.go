package domain

import "time"

// EventBinding is the (event id, issuer public key) pair every accepted proof
// must match.
type EventBinding struct {
	EventID         string
	EventName       string
	IssuerPublicKey [2]string
}

// TicketRecord holds the fields a prover revealed from their ticket. All
// fields except EventID are optional; nil means the prover chose not to
// reveal that field.
type TicketRecord struct {
	EventID        string
	EventName      string
	TicketID       *string
	TicketCategory *string
	AttendeeName   *string
	AttendeeEmail  *string
	ProductID      *string
}

// VerificationRecord is the durable ledger entry. At most one exists per
// (UserID, EventID) pair.
type VerificationRecord struct {
	ID             string
	UserID         string
	EventID        string
	EventName      *string
	TicketID       *string
	TicketCategory *string
	AttendeeName   *string
	AttendeeEmail  *string
	ProductID      *string
	ProofWatermark string
	VerifiedAt     time.Time
}
