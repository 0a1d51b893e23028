package zupass

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/farconnect/attestation-service/internal/domain"
)

// ErrEventMismatch reports a proof bound to a different event than the one
// this service accepts.
var ErrEventMismatch = errors.New("proof is for a different event")

// CheckBinding validates the claim's event id against the configured binding.
// A claim with no revealed event id passes provisionally: the expected id is
// substituted downstream, and binding correctness for such proofs rests on
// the cryptographic verification step. A pass here is never sufficient alone.
func CheckBinding(claimEventID *string, binding domain.EventBinding) error {
	if claimEventID == nil || *claimEventID == "" {
		return nil
	}
	if *claimEventID != binding.EventID {
		return fmt.Errorf("%w: got %s", ErrEventMismatch, *claimEventID)
	}
	return nil
}

// ParseWatermark converts the wire decimal string into the arbitrary
// precision integer the authenticate capability consumes. Negative or
// non-numeric input is invalid.
func ParseWatermark(raw string) (*big.Int, error) {
	if raw == "" {
		return nil, errors.New("empty watermark")
	}
	wm, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("watermark %q is not a decimal integer", raw)
	}
	if wm.Sign() < 0 {
		return nil, fmt.Errorf("watermark %q is negative", raw)
	}
	return wm, nil
}

// ExtractTicket maps a verified claim to the canonical ticket record. The
// event id defaults to the configured binding when the prover did not reveal
// it, mirroring CheckBinding's leniency. The event name is always the
// configured display name; it is not a trust-bearing field.
func ExtractTicket(claim *VerifiedClaim, binding domain.EventBinding) domain.TicketRecord {
	record := domain.TicketRecord{
		EventID:   binding.EventID,
		EventName: binding.EventName,
	}
	if claim == nil {
		return record
	}

	partial := claim.PartialTicket
	if partial.EventID != nil && *partial.EventID != "" {
		record.EventID = *partial.EventID
	}
	record.TicketID = partial.TicketID
	record.TicketCategory = partial.TicketCategory
	record.AttendeeName = partial.AttendeeName
	record.AttendeeEmail = partial.AttendeeEmail
	record.ProductID = partial.ProductID
	return record
}
