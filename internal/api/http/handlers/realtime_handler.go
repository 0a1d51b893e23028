package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farconnect/attestation-service/internal/api/dto"
	"github.com/farconnect/attestation-service/internal/service"
	apperrors "github.com/farconnect/attestation-service/pkg/util"
)

// RealtimeHandler exposes trust token issuance for the realtime consumer.
type RealtimeHandler struct {
	tokens *service.TokenService
}

// NewRealtimeHandler constructs handler.
func NewRealtimeHandler(tokens *service.TokenService) *RealtimeHandler {
	return &RealtimeHandler{tokens: tokens}
}

// Token handles POST /api/realtime/token.
func (h *RealtimeHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewMissingInput("FID is required")
	}
	if req.FID == 0 {
		return apperrors.NewMissingInput("FID is required")
	}

	token, expiresIn, err := h.tokens.IssueToken(c.Context(), req.FID)
	if err != nil {
		return err
	}

	return c.JSON(dto.TokenResponse{Token: token, ExpiresIn: expiresIn})
}
