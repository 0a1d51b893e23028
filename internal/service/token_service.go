package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/farconnect/attestation-service/internal/auth"
	"github.com/farconnect/attestation-service/internal/events"
	"github.com/farconnect/attestation-service/internal/repository"
	apperrors "github.com/farconnect/attestation-service/pkg/util"
)

// TokenService mints realtime trust tokens for verified subjects. The
// verification-status check happens here, before minting; the token manager
// itself is pure credential minting.
type TokenService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	audience   string
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTokenService builds the service.
func NewTokenService(users repository.UserRepository, tokens *auth.TokenManager, audience string, dispatcher events.Dispatcher, logger *zap.Logger) *TokenService {
	return &TokenService{
		users:      users,
		tokens:     tokens,
		audience:   audience,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// IssueToken mints a token for the subject identified by FID. The subject
// must already hold a successful verification; otherwise the call is refused.
func (s *TokenService) IssueToken(ctx context.Context, fid int64) (string, int64, error) {
	user, err := s.users.GetByFID(ctx, fid)
	if err != nil {
		if isNoRows(err) {
			return "", 0, apperrors.NewNotVerified("User not verified")
		}
		return "", 0, apperrors.NewStoreFailure(err)
	}
	if !user.ZupassVerified {
		return "", 0, apperrors.NewNotVerified("User not verified")
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, fid)
	if err != nil {
		s.logger.Error("token issuance failed", zap.Int64("fid", fid), zap.Error(err))
		return "", 0, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTokenIssued,
			FID:       fid,
			Timestamp: time.Now(),
			Payload: events.TokenIssuedPayload{
				UserID:    user.ID,
				Audience:  s.audience,
				ExpiresAt: expiresAt,
			},
		})
	}

	return token, s.tokens.TTLSeconds(), nil
}
