package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/farconnect/attestation-service/internal/domain"
	"github.com/farconnect/attestation-service/internal/events"
	"github.com/farconnect/attestation-service/internal/observability"
	"github.com/farconnect/attestation-service/internal/zupass"
	apperrors "github.com/farconnect/attestation-service/pkg/util"
)

var testBinding = domain.EventBinding{
	EventID:         "1f36ddce-e538-4c7a-9f31-6a4b2221ecac",
	EventName:       "Devconnect ARG",
	IssuerPublicKey: [2]string{"aa", "bb"},
}

func strPtr(s string) *string { return &s }

type fakeUserRepo struct {
	users       map[int64]*domain.User
	nextID      int
	upsertCalls atomic.Int32
	failUpsert  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) GetByFID(_ context.Context, fid int64) (*domain.User, error) {
	if user, ok := r.users[fid]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) Upsert(_ context.Context, input domain.UserUpsert) (*domain.User, error) {
	r.upsertCalls.Add(1)
	if r.failUpsert != nil {
		return nil, r.failUpsert
	}
	user, ok := r.users[input.FID]
	if !ok {
		r.nextID++
		user = &domain.User{
			ID:          fmt.Sprintf("user-%d", r.nextID),
			FID:         input.FID,
			Username:    fmt.Sprintf("user_%d", input.FID),
			DisplayName: fmt.Sprintf("User %d", input.FID),
			CreatedAt:   time.Now(),
		}
		r.users[input.FID] = user
	}
	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.PfpURL != nil {
		user.PfpURL = input.PfpURL
	}
	if input.Verified != nil {
		user.ZupassVerified = *input.Verified
	}
	user.UpdatedAt = time.Now()
	copied := *user
	return &copied, nil
}

type fakeVerificationRepo struct {
	records     map[string]*domain.VerificationRecord
	insertCalls atomic.Int32
	failInsert  error
}

func newFakeVerificationRepo() *fakeVerificationRepo {
	return &fakeVerificationRepo{records: make(map[string]*domain.VerificationRecord)}
}

func (r *fakeVerificationRepo) key(userID, eventID string) string {
	return userID + "|" + eventID
}

func (r *fakeVerificationRepo) InsertIfAbsent(_ context.Context, record *domain.VerificationRecord) (bool, error) {
	r.insertCalls.Add(1)
	if r.failInsert != nil {
		return false, r.failInsert
	}
	key := r.key(record.UserID, record.EventID)
	if _, ok := r.records[key]; ok {
		return false, nil
	}
	stored := *record
	stored.VerifiedAt = time.Now()
	r.records[key] = &stored
	return true, nil
}

func (r *fakeVerificationRepo) ListByUser(_ context.Context, userID string) ([]domain.VerificationRecord, error) {
	out := []domain.VerificationRecord{}
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// memoryNonceRegistry tracks used watermarks in-process, standing in for the
// redis-backed registry.
type memoryNonceRegistry struct {
	used map[string]bool
}

func newMemoryNonceRegistry() *memoryNonceRegistry {
	return &memoryNonceRegistry{used: make(map[string]bool)}
}

func (m *memoryNonceRegistry) Register(_ context.Context, watermark string) bool {
	if m.used[watermark] {
		return false
	}
	m.used[watermark] = true
	return true
}

// fakeProofSystem authenticates any structurally valid proof whose claim
// matches the configured event, mimicking the prover sidecar.
type fakeProofSystem struct {
	authErr   error
	authCalls atomic.Int32
}

func (f *fakeProofSystem) Authenticate(_ context.Context, envelope string, _ zupass.AuthenticateArgs) (*zupass.VerifiedClaim, error) {
	f.authCalls.Add(1)
	if f.authErr != nil {
		return nil, f.authErr
	}
	env, err := zupass.ParseEnvelope(envelope)
	if err != nil {
		return nil, &zupass.RejectionError{Reason: "unreadable envelope"}
	}
	proof, err := f.Deserialize(context.Background(), env.PCD)
	if err != nil {
		return nil, &zupass.RejectionError{Reason: "unreadable proof"}
	}
	return &zupass.VerifiedClaim{Type: zupass.PCDType, PartialTicket: proof.Claim.PartialTicket}, nil
}

func (f *fakeProofSystem) Deserialize(_ context.Context, serialized string) (*zupass.ProofObject, error) {
	var proof zupass.ProofObject
	if err := json.Unmarshal([]byte(serialized), &proof); err != nil {
		return nil, err
	}
	return &proof, nil
}

func (f *fakeProofSystem) Verify(context.Context, *zupass.ProofObject) (bool, error) {
	return false, errors.New("fallback not available in tests")
}

type fixture struct {
	service       *VerificationService
	users         *fakeUserRepo
	verifications *fakeVerificationRepo
	system        *fakeProofSystem
}

func newFixture() *fixture {
	logger := zap.NewNop()
	users := newFakeUserRepo()
	verifications := newFakeVerificationRepo()
	system := &fakeProofSystem{}
	verifier := zupass.NewVerifier(system, testBinding, time.Second, logger, observability.NewMetrics())

	svc := NewVerificationService(testBinding, VerificationDependencies{
		Verifier:         verifier,
		ProofSystem:      system,
		NonceRegistry:    newMemoryNonceRegistry(),
		UserRepo:         users,
		VerificationRepo: verifications,
		Dispatcher:       events.NewInMemoryDispatcher(logger),
		Logger:           logger,
	})
	return &fixture{service: svc, users: users, verifications: verifications, system: system}
}

func serializedProof(eventID string) string {
	claim := zupass.Claim{PartialTicket: zupass.PartialTicket{TicketID: strPtr("ticket-1")}}
	if eventID != "" {
		claim.PartialTicket.EventID = strPtr(eventID)
	}
	raw, _ := json.Marshal(zupass.ProofObject{ID: "proof-1", Claim: claim})
	return string(raw)
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return domainErr.Code
}

func TestVerifyAttendanceMissingInput(t *testing.T) {
	tests := []struct {
		name  string
		input VerifyInput
	}{
		{name: "missing pcd", input: VerifyInput{Watermark: "123", FID: 42}},
		{name: "missing watermark", input: VerifyInput{PCD: serializedProof(testBinding.EventID), FID: 42}},
		{name: "missing fid", input: VerifyInput{PCD: serializedProof(testBinding.EventID), Watermark: "123"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.service.VerifyAttendance(context.Background(), tc.input)
			if code := domainCode(t, err); code != apperrors.CodeMissingInput {
				t.Fatalf("expected MISSING_INPUT, got %s", code)
			}
			if err.Error() != MissingInputMessage {
				t.Fatalf("wire message mismatch: %q", err.Error())
			}
			if f.users.upsertCalls.Load() != 0 || f.verifications.insertCalls.Load() != 0 {
				t.Fatal("no store calls may happen on missing input")
			}
			if f.system.authCalls.Load() != 0 {
				t.Fatal("no verification calls may happen on missing input")
			}
		})
	}
}

func TestVerifyAttendanceInvalidWatermark(t *testing.T) {
	f := newFixture()
	_, err := f.service.VerifyAttendance(context.Background(), VerifyInput{
		PCD:       serializedProof(testBinding.EventID),
		Watermark: "not-a-number",
		FID:       42,
	})
	if code := domainCode(t, err); code != apperrors.CodeMissingInput {
		t.Fatalf("expected MISSING_INPUT, got %s", code)
	}
	if f.system.authCalls.Load() != 0 {
		t.Fatal("malformed watermark must fail before verification")
	}
}

func TestVerifyAttendanceSuccess(t *testing.T) {
	f := newFixture()

	outcome, err := f.service.VerifyAttendance(context.Background(), VerifyInput{
		PCD:       serializedProof(testBinding.EventID),
		Watermark: "123456789",
		FID:       42,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.State != domain.AttemptVerified {
		t.Fatalf("expected VERIFIED, got %s", outcome.State)
	}
	if !outcome.RecordCreated {
		t.Fatal("first verification must create a ledger record")
	}
	if outcome.User.FID != 42 || !outcome.User.ZupassVerified {
		t.Fatalf("user not marked verified: %+v", outcome.User)
	}
	if len(f.verifications.records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(f.verifications.records))
	}

	for _, rec := range f.verifications.records {
		if rec.EventID != testBinding.EventID {
			t.Fatalf("record bound to wrong event: %s", rec.EventID)
		}
		if rec.ProofWatermark != "123456789" {
			t.Fatalf("watermark provenance not stored: %s", rec.ProofWatermark)
		}
		if rec.TicketID == nil || *rec.TicketID != "ticket-1" {
			t.Fatalf("ticket fields not persisted: %+v", rec)
		}
	}
}

func TestVerifyAttendanceIdempotent(t *testing.T) {
	f := newFixture()
	input := VerifyInput{PCD: serializedProof(testBinding.EventID), Watermark: "111", FID: 42}

	if _, err := f.service.VerifyAttendance(context.Background(), input); err != nil {
		t.Fatalf("first attempt: %v", err)
	}

	// Fresh proof, fresh watermark, same subject and event.
	input.Watermark = "222"
	outcome, err := f.service.VerifyAttendance(context.Background(), input)
	if err != nil {
		t.Fatalf("second attempt must succeed silently: %v", err)
	}
	if outcome.RecordCreated {
		t.Fatal("second attempt must not create another record")
	}
	if len(f.verifications.records) != 1 {
		t.Fatalf("expected one record after two attempts, got %d", len(f.verifications.records))
	}
	if !outcome.User.ZupassVerified {
		t.Fatal("attendance flag must remain set")
	}
}

func TestVerifyAttendanceWatermarkReplay(t *testing.T) {
	f := newFixture()
	input := VerifyInput{PCD: serializedProof(testBinding.EventID), Watermark: "777", FID: 42}

	if _, err := f.service.VerifyAttendance(context.Background(), input); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	authCallsAfterFirst := f.system.authCalls.Load()

	// Same watermark again: the literal replay must be refused before any
	// cryptographic work.
	_, err := f.service.VerifyAttendance(context.Background(), input)
	if code := domainCode(t, err); code != apperrors.CodeWatermarkReplayed {
		t.Fatalf("expected WATERMARK_REPLAYED, got %s", code)
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.HTTPStatus != 400 {
		t.Fatalf("replay must map to 400, got %v", err)
	}
	if f.system.authCalls.Load() != authCallsAfterFirst {
		t.Fatal("replayed watermark must not reach the verifier")
	}

	// A fresh watermark from the same subject keeps working.
	input.Watermark = "778"
	if _, err := f.service.VerifyAttendance(context.Background(), input); err != nil {
		t.Fatalf("fresh watermark must succeed: %v", err)
	}
}

func TestVerifyAttendanceEventMismatchBeforeCrypto(t *testing.T) {
	f := newFixture()

	_, err := f.service.VerifyAttendance(context.Background(), VerifyInput{
		PCD:       serializedProof("some-other-event"),
		Watermark: "123",
		FID:       42,
	})
	if code := domainCode(t, err); code != apperrors.CodeEventMismatch {
		t.Fatalf("expected EVENT_MISMATCH, got %s", code)
	}
	if f.system.authCalls.Load() != 0 {
		t.Fatal("binding guard must reject before any cryptographic verification call")
	}
	if f.verifications.insertCalls.Load() != 0 {
		t.Fatal("no ledger writes on rejection")
	}
}

func TestVerifyAttendanceNoClaimedEventIsAccepted(t *testing.T) {
	f := newFixture()

	outcome, err := f.service.VerifyAttendance(context.Background(), VerifyInput{
		PCD:       serializedProof(""),
		Watermark: "123",
		FID:       42,
	})
	if err != nil {
		t.Fatalf("proof without revealed event id must pass: %v", err)
	}

	for _, rec := range f.verifications.records {
		if rec.EventID != testBinding.EventID {
			t.Fatalf("expected configured event id substituted, got %s", rec.EventID)
		}
	}
	if outcome.State != domain.AttemptVerified {
		t.Fatalf("expected VERIFIED, got %s", outcome.State)
	}
}

func TestVerifyAttendanceRejection(t *testing.T) {
	f := newFixture()
	f.system.authErr = &zupass.RejectionError{Reason: "invalid proof"}

	_, err := f.service.VerifyAttendance(context.Background(), VerifyInput{
		PCD:       serializedProof(testBinding.EventID),
		Watermark: "123",
		FID:       42,
	})
	if code := domainCode(t, err); code != apperrors.CodeVerifyRejected {
		t.Fatalf("expected VERIFY_REJECTED, got %s", code)
	}
	if f.verifications.insertCalls.Load() != 0 || f.users.upsertCalls.Load() != 0 {
		t.Fatal("rejected proof must not reach the ledger")
	}
}

func TestVerifyAttendanceStoreFailure(t *testing.T) {
	f := newFixture()
	f.verifications.failInsert = errors.New("connection reset")

	_, err := f.service.VerifyAttendance(context.Background(), VerifyInput{
		PCD:       serializedProof(testBinding.EventID),
		Watermark: "123",
		FID:       42,
	})

	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if domainErr.Code != apperrors.CodeStoreFailure {
		t.Fatalf("expected STORE_FAILURE, got %s", domainErr.Code)
	}
	if domainErr.HTTPStatus != 500 {
		t.Fatalf("storage failure must be a server fault, got %d", domainErr.HTTPStatus)
	}
	// The generic message must not leak storage internals.
	if domainErr.Message != "storage failure" {
		t.Fatalf("unexpected client-facing message: %q", domainErr.Message)
	}
}

func TestStoreVerifiedRejectsForeignEvent(t *testing.T) {
	f := newFixture()

	_, err := f.service.StoreVerified(context.Background(), StoreVerifiedInput{
		FID:    42,
		Ticket: domain.TicketRecord{EventID: "another-event"},
	})
	if code := domainCode(t, err); code != apperrors.CodeEventMismatch {
		t.Fatalf("expected EVENT_MISMATCH, got %s", code)
	}
}

func TestStoreVerifiedDefaultsWatermark(t *testing.T) {
	f := newFixture()

	outcome, err := f.service.StoreVerified(context.Background(), StoreVerifiedInput{
		FID:    42,
		Ticket: domain.TicketRecord{TicketID: strPtr("ticket-9")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.RecordCreated {
		t.Fatal("expected a new ledger record")
	}

	for _, rec := range f.verifications.records {
		if rec.ProofWatermark != "client-verified" {
			t.Fatalf("expected client-verified provenance, got %s", rec.ProofWatermark)
		}
		if rec.EventID != testBinding.EventID {
			t.Fatalf("expected configured event, got %s", rec.EventID)
		}
	}
}

func TestStatusUnknownSubject(t *testing.T) {
	f := newFixture()

	verified, records, err := f.service.Status(context.Background(), 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verified {
		t.Fatal("unknown subject cannot be verified")
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestStatusAfterVerification(t *testing.T) {
	f := newFixture()
	if _, err := f.service.VerifyAttendance(context.Background(), VerifyInput{
		PCD:       serializedProof(testBinding.EventID),
		Watermark: "123",
		FID:       42,
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	verified, records, err := f.service.Status(context.Background(), 42)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !verified {
		t.Fatal("subject should be verified")
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
}
