package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farconnect/attestation-service/internal/api/dto"
	"github.com/farconnect/attestation-service/internal/auth"
	"github.com/farconnect/attestation-service/internal/domain"
	"github.com/farconnect/attestation-service/internal/repository"
	apperrors "github.com/farconnect/attestation-service/pkg/util"
)

// UsersHandler exposes profile endpoints.
type UsersHandler struct {
	users repository.UserRepository
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users repository.UserRepository) *UsersHandler {
	return &UsersHandler{users: users}
}

// Upsert handles POST /api/users.
func (h *UsersHandler) Upsert(c *fiber.Ctx) error {
	var req dto.UserUpsertRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewMissingInput("FID is required")
	}
	if req.FID == 0 {
		return apperrors.NewMissingInput("FID is required")
	}

	user, err := h.users.Upsert(c.Context(), domain.UserUpsert{
		FID:         req.FID,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		PfpURL:      req.PfpURL,
		Verified:    req.ZupassVerified,
	})
	if err != nil {
		return apperrors.NewStoreFailure(err)
	}

	return c.JSON(fiber.Map{"user": dto.NewUserView(user)})
}

// Me handles GET /api/users/me for token-bearing callers.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewDomainError("UNAUTHORIZED", "authentication required", fiber.StatusUnauthorized)
	}
	return c.JSON(fiber.Map{"user": dto.NewUserView(principal.User)})
}
