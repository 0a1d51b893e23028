package zupass

import (
	"errors"
	"testing"

	"github.com/farconnect/attestation-service/internal/domain"
)

var testBinding = domain.EventBinding{
	EventID:         "1f36ddce-e538-4c7a-9f31-6a4b2221ecac",
	EventName:       "Devconnect ARG",
	IssuerPublicKey: [2]string{"aa", "bb"},
}

func strPtr(s string) *string { return &s }

func TestCheckBinding(t *testing.T) {
	tests := []struct {
		name    string
		claimID *string
		wantErr bool
	}{
		{name: "matching event", claimID: strPtr(testBinding.EventID)},
		{name: "no claimed event passes provisionally", claimID: nil},
		{name: "empty claimed event passes provisionally", claimID: strPtr("")},
		{name: "wrong event", claimID: strPtr("other-event"), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckBinding(tc.claimID, testBinding)
			if tc.wantErr {
				if !errors.Is(err, ErrEventMismatch) {
					t.Fatalf("expected ErrEventMismatch, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseWatermark(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "small", raw: "123456789"},
		{name: "zero", raw: "0"},
		{name: "larger than uint64", raw: "340282366920938463463374607431768211456"},
		{name: "empty", raw: "", wantErr: true},
		{name: "negative", raw: "-5", wantErr: true},
		{name: "not a number", raw: "abc", wantErr: true},
		{name: "hex rejected", raw: "0xff", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wm, err := ParseWatermark(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", wm)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if wm.String() != tc.raw {
				t.Fatalf("round trip mismatch: %s != %s", wm.String(), tc.raw)
			}
		})
	}
}

func TestExtractTicketDefaults(t *testing.T) {
	claim := &VerifiedClaim{Type: PCDType, PartialTicket: PartialTicket{}}

	record := ExtractTicket(claim, testBinding)

	if record.EventID != testBinding.EventID {
		t.Fatalf("missing event id should default to binding, got %s", record.EventID)
	}
	if record.EventName != testBinding.EventName {
		t.Fatalf("event name should be the configured display name, got %s", record.EventName)
	}
	if record.TicketID != nil || record.AttendeeName != nil {
		t.Fatal("unrevealed fields must stay absent, not default to empty strings")
	}
}

func TestExtractTicketRevealedFields(t *testing.T) {
	claim := &VerifiedClaim{
		Type: PCDType,
		PartialTicket: PartialTicket{
			EventID:        strPtr(testBinding.EventID),
			EventName:      strPtr("Spoofed Name"),
			TicketID:       strPtr("ticket-1"),
			TicketCategory: strPtr("GA"),
			AttendeeName:   strPtr("Alice"),
		},
	}

	record := ExtractTicket(claim, testBinding)

	if record.EventName != testBinding.EventName {
		t.Fatalf("claimed event name must be overwritten, got %s", record.EventName)
	}
	if record.TicketID == nil || *record.TicketID != "ticket-1" {
		t.Fatalf("ticket id not carried over: %v", record.TicketID)
	}
	if record.TicketCategory == nil || *record.TicketCategory != "GA" {
		t.Fatalf("ticket category not carried over: %v", record.TicketCategory)
	}
}

func TestExtractTicketNilClaim(t *testing.T) {
	record := ExtractTicket(nil, testBinding)
	if record.EventID != testBinding.EventID {
		t.Fatalf("nil claim should still yield the bound event, got %s", record.EventID)
	}
}
