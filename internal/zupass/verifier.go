package zupass

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/farconnect/attestation-service/internal/domain"
	"github.com/farconnect/attestation-service/internal/observability"
)

// VerifyError is the terminal failure of both verification paths. Message
// carries the primary path's failure reason, since that path ran first and
// represents the expected route.
type VerifyError struct {
	Message string
	// Definitive is set when the proof system itself rejected the proof,
	// as opposed to timing out or failing structurally.
	Definitive bool
	// TimedOut is set when the primary path hit its deadline.
	TimedOut bool
}

func (e *VerifyError) Error() string {
	return e.Message
}

// Verifier runs the two-path verification strategy against an injected proof
// system capability, bounded by a hard timeout on the primary path.
type Verifier struct {
	system  ProofSystem
	binding domain.EventBinding
	reveal  RevealSpec
	timeout time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewVerifier builds a verifier for the configured event binding.
func NewVerifier(system ProofSystem, binding domain.EventBinding, timeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Verifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Verifier{
		system:  system,
		binding: binding,
		reveal:  DefaultRevealSpec(),
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

type authResult struct {
	claim *VerifiedClaim
	err   error
}

// Verify attempts the primary authenticated path and, only when that path
// did not definitively reject the proof, the manual fallback path. The first
// success wins.
func (v *Verifier) Verify(ctx context.Context, rawEnvelope string, watermark *big.Int) (*VerifiedClaim, error) {
	envelope := NormalizeEnvelope(rawEnvelope)

	claim, primaryErr := v.authenticateWithTimeout(ctx, envelope, watermark)
	if primaryErr == nil {
		v.metrics.RecordVerification("primary", "ok")
		return claim, nil
	}

	var rejection *RejectionError
	if errors.As(primaryErr, &rejection) {
		// A definitive rejection never falls through to the weaker manual
		// check; that would mask a cryptographic failure.
		v.metrics.RecordVerification("primary", "rejected")
		return nil, &VerifyError{Message: primaryErr.Error(), Definitive: true}
	}

	timedOut := errors.Is(primaryErr, context.DeadlineExceeded)
	if timedOut {
		v.metrics.RecordVerification("primary", "timeout")
		v.logger.Warn("primary verification timed out; trying fallback",
			zap.Duration("timeout", v.timeout))
	} else {
		v.metrics.RecordVerification("primary", "error")
		v.logger.Warn("primary verification failed; trying fallback", zap.Error(primaryErr))
	}

	claim, fallbackErr := v.verifyManually(ctx, envelope)
	if fallbackErr == nil {
		v.metrics.RecordVerification("fallback", "ok")
		return claim, nil
	}

	v.metrics.RecordVerification("fallback", "rejected")
	v.logger.Warn("fallback verification failed", zap.Error(fallbackErr))
	return nil, &VerifyError{
		Message:  fmt.Sprintf("authentication failed: %v", primaryErr),
		TimedOut: timedOut,
	}
}

// authenticateWithTimeout races the authenticate call against the hard
// deadline; first to resolve wins. The losing goroutine drains into the
// buffered channel when its context is cancelled.
func (v *Verifier) authenticateWithTimeout(ctx context.Context, envelope string, watermark *big.Int) (*VerifiedClaim, error) {
	authCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	args := AuthenticateArgs{
		Watermark:      watermark,
		Config:         []EventConfig{v.eventConfig()},
		FieldsToReveal: v.reveal,
	}

	resultCh := make(chan authResult, 1)
	go func() {
		claim, err := v.system.Authenticate(authCtx, envelope, args)
		resultCh <- authResult{claim: claim, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		return res.claim, nil
	case <-authCtx.Done():
		return nil, authCtx.Err()
	}
}

// verifyManually is the structural fallback: deserialize the inner proof and
// invoke the opaque verify capability directly. Only an explicit true result
// is a success.
func (v *Verifier) verifyManually(ctx context.Context, envelope string) (*VerifiedClaim, error) {
	parsed, err := ParseEnvelope(envelope)
	if err != nil {
		return nil, err
	}

	proof, err := v.system.Deserialize(ctx, parsed.PCD)
	if err != nil {
		return nil, fmt.Errorf("deserialize: %w", err)
	}

	valid, err := v.system.Verify(ctx, proof)
	if err != nil {
		return nil, fmt.Errorf("manual verify: %w", err)
	}
	if !valid {
		return nil, errors.New("manual verification returned false")
	}

	return &VerifiedClaim{
		Type:          PCDType,
		PartialTicket: proof.Claim.PartialTicket,
	}, nil
}

func (v *Verifier) eventConfig() EventConfig {
	return EventConfig{
		PCDType:   "eddsa-ticket-pcd",
		PublicKey: v.binding.IssuerPublicKey,
		EventID:   v.binding.EventID,
		EventName: v.binding.EventName,
	}
}
