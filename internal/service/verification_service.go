package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/farconnect/attestation-service/internal/domain"
	"github.com/farconnect/attestation-service/internal/events"
	"github.com/farconnect/attestation-service/internal/repository"
	"github.com/farconnect/attestation-service/internal/zupass"
	apperrors "github.com/farconnect/attestation-service/pkg/util"
)

// MissingInputMessage is the wire-level message for an incomplete request.
const MissingInputMessage = "Missing required data (pcd, watermark, or fid)"

// VerificationService drives a verification attempt end to end: replay and
// binding guards, the two-path verifier, ticket extraction and the idempotent
// ledger write. Attempts are request-scoped; the only durable state lives in
// the repositories.
type VerificationService struct {
	verifier      *zupass.Verifier
	system        zupass.ProofSystem
	nonces        zupass.NonceRegistry
	users         repository.UserRepository
	verifications repository.VerificationRepository
	binding       domain.EventBinding
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// VerificationDependencies bundles collaborators for the service.
type VerificationDependencies struct {
	Verifier         *zupass.Verifier
	ProofSystem      zupass.ProofSystem
	NonceRegistry    zupass.NonceRegistry
	UserRepo         repository.UserRepository
	VerificationRepo repository.VerificationRepository
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// VerifyInput is the client-submitted verification request.
type VerifyInput struct {
	PCD         string
	Watermark   string
	FID         int64
	Username    *string
	DisplayName *string
	PfpURL      *string
}

// StoreVerifiedInput carries client-verified ticket data for direct storage.
type StoreVerifiedInput struct {
	FID         int64
	Username    *string
	DisplayName *string
	PfpURL      *string
	Watermark   string
	Ticket      domain.TicketRecord
}

// VerifyOutcome reports the terminal state of an attempt.
type VerifyOutcome struct {
	State         domain.AttemptState
	User          *domain.User
	RecordCreated bool
}

// NewVerificationService constructs the orchestrator.
func NewVerificationService(binding domain.EventBinding, deps VerificationDependencies) *VerificationService {
	return &VerificationService{
		verifier:      deps.Verifier,
		system:        deps.ProofSystem,
		nonces:        deps.NonceRegistry,
		users:         deps.UserRepo,
		verifications: deps.VerificationRepo,
		binding:       binding,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
	}
}

// VerifyAttendance runs the full pipeline for one attempt.
func (s *VerificationService) VerifyAttendance(ctx context.Context, input VerifyInput) (*VerifyOutcome, error) {
	if input.PCD == "" || input.Watermark == "" || input.FID == 0 {
		// Terminal immediately; no attempt state is retained.
		return nil, apperrors.NewMissingInput(MissingInputMessage)
	}

	watermark, err := zupass.ParseWatermark(input.Watermark)
	if err != nil {
		return nil, apperrors.NewMissingInput("invalid watermark: " + err.Error())
	}

	if s.nonces != nil && !s.nonces.Register(ctx, input.Watermark) {
		return nil, apperrors.NewWatermarkReplayed("watermark already used")
	}

	// Binding guard runs before and independent of any cryptographic call.
	// A structurally unreadable proof passes provisionally; the verifier
	// settles it.
	if claimEventID := s.peekClaimEventID(ctx, input.PCD); claimEventID != nil {
		if err := zupass.CheckBinding(claimEventID, s.binding); err != nil {
			return nil, apperrors.NewEventMismatch(err.Error())
		}
	}

	claim, err := s.verifier.Verify(ctx, input.PCD, watermark)
	if err != nil {
		s.logger.Info("verification rejected",
			zap.Int64("fid", input.FID),
			zap.String("state", string(domain.AttemptRejected)),
			zap.Error(err))
		return nil, apperrors.NewVerifyRejected(err.Error())
	}

	ticket := zupass.ExtractTicket(claim, s.binding)
	if err := zupass.CheckBinding(&ticket.EventID, s.binding); err != nil {
		return nil, apperrors.NewEventMismatch(err.Error())
	}

	// The ledger write failing after a successful proof is a storage
	// failure, not a rejection; the caller may retry the same claim safely.
	outcome, err := s.persistVerification(ctx, input.FID, input.Username, input.DisplayName, input.PfpURL, ticket, input.Watermark)
	if err != nil {
		s.logger.Error("verification attempt failed",
			zap.Int64("fid", input.FID),
			zap.String("state", string(domain.AttemptFailed)),
			zap.Error(err))
		return nil, err
	}
	outcome.State = domain.AttemptVerified
	return outcome, nil
}

// StoreVerified persists ticket data verified client-side. Only the event
// binding is checked here; the cryptographic verification happened in the
// client's prover.
func (s *VerificationService) StoreVerified(ctx context.Context, input StoreVerifiedInput) (*VerifyOutcome, error) {
	if input.FID == 0 {
		return nil, apperrors.NewMissingInput("Missing required data (fid or ticketData)")
	}

	ticket := input.Ticket
	if ticket.EventID == "" {
		ticket.EventID = s.binding.EventID
	}
	if err := zupass.CheckBinding(&ticket.EventID, s.binding); err != nil {
		return nil, apperrors.NewEventMismatch("Invalid event - only " + s.binding.EventName + " tickets are accepted")
	}
	ticket.EventName = s.binding.EventName

	watermark := input.Watermark
	if watermark == "" {
		watermark = "client-verified"
	}

	outcome, err := s.persistVerification(ctx, input.FID, input.Username, input.DisplayName, input.PfpURL, ticket, watermark)
	if err != nil {
		return nil, err
	}
	outcome.State = domain.AttemptVerified
	return outcome, nil
}

// Status returns the subject's attendance flag and ledger entries.
func (s *VerificationService) Status(ctx context.Context, fid int64) (bool, []domain.VerificationRecord, error) {
	user, err := s.users.GetByFID(ctx, fid)
	if err != nil {
		if isNoRows(err) {
			return false, []domain.VerificationRecord{}, nil
		}
		return false, nil, apperrors.NewStoreFailure(err)
	}

	records, err := s.verifications.ListByUser(ctx, user.ID)
	if err != nil {
		return false, nil, apperrors.NewStoreFailure(err)
	}
	return user.ZupassVerified, records, nil
}

// persistVerification upserts the subject, marks attendance and writes the
// ledger entry. The attendance flag is set on every successful verification,
// even when the ledger insert is a duplicate no-op; both writes are
// idempotent so a retried request never double-charges side effects.
func (s *VerificationService) persistVerification(ctx context.Context, fid int64, username, displayName, pfpURL *string, ticket domain.TicketRecord, watermark string) (*VerifyOutcome, error) {
	verified := true
	user, err := s.users.Upsert(ctx, domain.UserUpsert{
		FID:         fid,
		Username:    username,
		DisplayName: displayName,
		PfpURL:      pfpURL,
		Verified:    &verified,
	})
	if err != nil {
		s.logger.Error("user upsert failed", zap.Int64("fid", fid), zap.Error(err))
		return nil, apperrors.NewStoreFailure(err)
	}

	record := &domain.VerificationRecord{
		UserID:         user.ID,
		EventID:        ticket.EventID,
		EventName:      &ticket.EventName,
		TicketID:       ticket.TicketID,
		TicketCategory: ticket.TicketCategory,
		AttendeeName:   ticket.AttendeeName,
		AttendeeEmail:  ticket.AttendeeEmail,
		ProductID:      ticket.ProductID,
		ProofWatermark: watermark,
	}
	created, err := s.verifications.InsertIfAbsent(ctx, record)
	if err != nil {
		s.logger.Error("ledger insert failed",
			zap.String("user_id", user.ID),
			zap.String("event_id", ticket.EventID),
			zap.Error(err))
		return nil, apperrors.NewStoreFailure(err)
	}

	if created {
		s.publishEvent(ctx, events.Event{
			Type: events.EventVerificationSucceeded,
			FID:  fid,
			Payload: events.VerificationSucceededPayload{
				UserID:         user.ID,
				EventID:        ticket.EventID,
				TicketCategory: ticket.TicketCategory,
				Watermark:      watermark,
			},
		})
		s.publishEvent(ctx, events.Event{
			Type:    events.EventUserVerified,
			FID:     fid,
			Payload: events.UserVerifiedPayload{UserID: user.ID},
		})
	} else {
		s.logger.Info("verification already recorded",
			zap.String("user_id", user.ID),
			zap.String("event_id", ticket.EventID))
		s.publishEvent(ctx, events.Event{
			Type:    events.EventVerificationDuplicate,
			FID:     fid,
			Payload: events.VerificationDuplicatePayload{UserID: user.ID, EventID: ticket.EventID},
		})
	}

	return &VerifyOutcome{User: user, RecordCreated: created}, nil
}

// peekClaimEventID extracts the self-reported event id from the proof
// structure without any cryptographic work. Unreadable input returns nil.
func (s *VerificationService) peekClaimEventID(ctx context.Context, rawEnvelope string) *string {
	env, err := zupass.ParseEnvelope(zupass.NormalizeEnvelope(rawEnvelope))
	if err != nil {
		return nil
	}
	proof, err := s.system.Deserialize(ctx, env.PCD)
	if err != nil {
		return nil
	}
	return proof.Claim.PartialTicket.EventID
}

func (s *VerificationService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
