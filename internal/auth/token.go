package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/farconnect/attestation-service/pkg/util"
)

// RoleAuthenticatedUser is the fixed role claim carried by every trust token.
const RoleAuthenticatedUser = "authenticated_user"

// TokenManager mints and validates the audience-scoped realtime trust token.
// It is a pure function of (subject, fid, now); nothing is persisted and
// expiry is the only termination.
type TokenManager struct {
	secret   []byte
	audience string
	ttl      time.Duration
}

// NewTokenManager builds a new manager. An empty secret is tolerated at
// construction so the service can boot for verification-only use; issuance
// with an empty secret fails as a configuration error.
func NewTokenManager(secret, audience string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), audience: audience, ttl: ttl}
}

// Claims describes the trust token payload.
type Claims struct {
	FID  int64  `json:"fid"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a trust token scoped to the subject and audience.
func (tm *TokenManager) Issue(subjectID string, fid int64) (string, time.Time, error) {
	if len(tm.secret) == 0 {
		return "", time.Time{}, apperrors.NewSigningConfigMissing()
	}

	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		FID:  fid,
		Role: RoleAuthenticatedUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{tm.audience},
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates signature, expiry and audience, returning the claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithAudience(tm.audience))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Role != RoleAuthenticatedUser {
		return nil, errors.New("unexpected role claim")
	}
	return claims, nil
}

// TTLSeconds returns the token lifetime in whole seconds, as reported on the
// token endpoint.
func (tm *TokenManager) TTLSeconds() int64 {
	return int64(tm.ttl / time.Second)
}
