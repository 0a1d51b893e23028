package zupass

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
)

// PCDType is the only proof container type this service accepts.
const PCDType = "zk-eddsa-event-ticket-pcd"

// PartialTicket carries the ticket fields the prover chose to reveal. Nil
// means the field was not revealed.
type PartialTicket struct {
	EventID        *string `json:"eventId,omitempty"`
	EventName      *string `json:"eventName,omitempty"`
	TicketID       *string `json:"ticketId,omitempty"`
	TicketCategory *string `json:"ticketCategory,omitempty"`
	AttendeeName   *string `json:"attendeeName,omitempty"`
	AttendeeEmail  *string `json:"attendeeEmail,omitempty"`
	ProductID      *string `json:"productId,omitempty"`
}

// Claim is the public claim embedded in a ticket proof.
type Claim struct {
	PartialTicket PartialTicket `json:"partialTicket"`
	Watermark     string        `json:"watermark,omitempty"`
	Signer        [2]string     `json:"signer,omitempty"`
}

// ProofObject is a deserialized proof container.
type ProofObject struct {
	ID    string          `json:"id,omitempty"`
	Type  string          `json:"type,omitempty"`
	Claim Claim           `json:"claim"`
	Proof json.RawMessage `json:"proof,omitempty"`

	serialized string
}

// Serialized returns the original wire form the object was deserialized from.
func (p *ProofObject) Serialized() string {
	return p.serialized
}

// VerifiedClaim is the outcome of a successful verification path.
type VerifiedClaim struct {
	Type          string
	PartialTicket PartialTicket
}

// RevealSpec names the claim fields the prover is asked to reveal.
type RevealSpec struct {
	RevealEventID        bool `json:"revealEventId"`
	RevealTicketID       bool `json:"revealTicketId"`
	RevealTicketCategory bool `json:"revealTicketCategory"`
	RevealProductID      bool `json:"revealProductId"`
}

// DefaultRevealSpec matches the fields the ledger persists.
func DefaultRevealSpec() RevealSpec {
	return RevealSpec{
		RevealEventID:        true,
		RevealTicketID:       true,
		RevealTicketCategory: true,
		RevealProductID:      true,
	}
}

// EventConfig is the per-event entry passed to the authenticate capability.
type EventConfig struct {
	PCDType   string    `json:"pcdType"`
	PublicKey [2]string `json:"publicKey"`
	EventID   string    `json:"eventId"`
	EventName string    `json:"eventName"`
}

// AuthenticateArgs bundles the arguments for the primary verification path.
type AuthenticateArgs struct {
	Watermark      *big.Int
	Config         []EventConfig
	FieldsToReveal RevealSpec
}

// RejectionError marks a definitive cryptographic or structural rejection by
// the proof system, as opposed to a timeout or transport failure. A rejected
// proof must not get a second chance via the fallback path.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("proof rejected: %s", e.Reason)
}

// ProofSystem is the opaque capability this service consumes. The actual
// pairing checks and circuit constraints live behind it; the pipeline only
// sees authenticate/deserialize/verify. Implementations are constructed once
// at process start and injected, never reached through package state.
type ProofSystem interface {
	// Authenticate runs the full authenticated verification of a tagged
	// proof envelope. A *RejectionError means the proof is definitively
	// invalid; any other error means the attempt was inconclusive.
	Authenticate(ctx context.Context, envelope string, args AuthenticateArgs) (*VerifiedClaim, error)
	// Deserialize parses a bare serialized proof into a ProofObject.
	Deserialize(ctx context.Context, serialized string) (*ProofObject, error)
	// Verify checks a deserialized proof, returning its validity.
	Verify(ctx context.Context, proof *ProofObject) (bool, error)
}
