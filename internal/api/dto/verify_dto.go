package dto

import (
	"time"

	"github.com/farconnect/attestation-service/internal/domain"
)

// VerifyRequest is the client-submitted verification payload.
type VerifyRequest struct {
	PCD         string  `json:"pcd"`
	Watermark   string  `json:"watermark"`
	FID         int64   `json:"fid"`
	Username    *string `json:"username,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
	PfpURL      *string `json:"pfpUrl,omitempty"`
}

// VerifiedUser is the subject view returned on success.
type VerifiedUser struct {
	FID            int64 `json:"fid"`
	ZupassVerified bool  `json:"zupassVerified"`
}

// VerifyResponse is the success envelope for verification calls.
type VerifyResponse struct {
	Success  bool         `json:"success"`
	Verified bool         `json:"verified"`
	User     VerifiedUser `json:"user"`
}

// TicketData mirrors the client-side extracted ticket fields.
type TicketData struct {
	EventID        *string `json:"eventId,omitempty"`
	EventName      *string `json:"eventName,omitempty"`
	TicketID       *string `json:"ticketId,omitempty"`
	TicketCategory *string `json:"ticketCategory,omitempty"`
	AttendeeName   *string `json:"attendeeName,omitempty"`
	AttendeeEmail  *string `json:"attendeeEmail,omitempty"`
	ProductID      *string `json:"productId,omitempty"`
}

// StoreVerifiedRequest carries client-verified ticket data.
type StoreVerifiedRequest struct {
	FID         int64       `json:"fid"`
	Username    *string     `json:"username,omitempty"`
	DisplayName *string     `json:"displayName,omitempty"`
	PfpURL      *string     `json:"pfpUrl,omitempty"`
	Watermark   string      `json:"watermark,omitempty"`
	TicketData  *TicketData `json:"ticketData"`
}

// ToTicketRecord converts the wire shape to the domain record.
func (t *TicketData) ToTicketRecord() domain.TicketRecord {
	record := domain.TicketRecord{}
	if t == nil {
		return record
	}
	if t.EventID != nil {
		record.EventID = *t.EventID
	}
	if t.EventName != nil {
		record.EventName = *t.EventName
	}
	record.TicketID = t.TicketID
	record.TicketCategory = t.TicketCategory
	record.AttendeeName = t.AttendeeName
	record.AttendeeEmail = t.AttendeeEmail
	record.ProductID = t.ProductID
	return record
}

// VerificationView is the ledger entry as exposed on the status endpoint.
type VerificationView struct {
	EventID        string    `json:"eventId"`
	EventName      *string   `json:"eventName,omitempty"`
	TicketID       *string   `json:"ticketId,omitempty"`
	TicketCategory *string   `json:"ticketCategory,omitempty"`
	VerifiedAt     time.Time `json:"verifiedAt"`
}

// StatusResponse reports the subject's attendance state.
type StatusResponse struct {
	Verified      bool               `json:"verified"`
	Verifications []VerificationView `json:"verifications"`
}

// NewVerificationViews maps ledger records to their wire shape.
func NewVerificationViews(records []domain.VerificationRecord) []VerificationView {
	views := make([]VerificationView, 0, len(records))
	for _, rec := range records {
		views = append(views, VerificationView{
			EventID:        rec.EventID,
			EventName:      rec.EventName,
			TicketID:       rec.TicketID,
			TicketCategory: rec.TicketCategory,
			VerifiedAt:     rec.VerifiedAt,
		})
	}
	return views
}
