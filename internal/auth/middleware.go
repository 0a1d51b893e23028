package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/farconnect/attestation-service/internal/domain"
	"github.com/farconnect/attestation-service/internal/repository"
	apperrors "github.com/farconnect/attestation-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User   *domain.User
	Claims *Claims
}

// Middleware validates bearer trust tokens and loads the principal. It is
// the in-process analogue of the downstream realtime authorizer: a token
// whose subject does not match the stored user is refused.
type Middleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, users repository.UserRepository) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewDomainError("UNAUTHORIZED", "missing authorization header", fiber.StatusUnauthorized)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewDomainError("UNAUTHORIZED", "invalid authorization header", fiber.StatusUnauthorized)
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewDomainError("UNAUTHORIZED", "invalid token", fiber.StatusUnauthorized)
	}

	user, err := m.users.GetByFID(c.Context(), claims.FID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewDomainError("UNAUTHORIZED", "user not found", fiber.StatusUnauthorized)
		}
		return apperrors.NewStoreFailure(err)
	}

	// Subject scoping: a token minted for one subject must not authorize
	// another, even with a matching fid claim.
	if user.ID != claims.Subject {
		return apperrors.NewDomainError("UNAUTHORIZED", "token subject mismatch", fiber.StatusUnauthorized)
	}

	c.Locals(principalKey, &Principal{User: user, Claims: claims})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
