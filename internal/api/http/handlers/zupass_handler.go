package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/farconnect/attestation-service/internal/api/dto"
	"github.com/farconnect/attestation-service/internal/service"
	apperrors "github.com/farconnect/attestation-service/pkg/util"
)

// ZupassHandler exposes the verification pipeline.
type ZupassHandler struct {
	verifications *service.VerificationService
}

// NewZupassHandler constructs handler.
func NewZupassHandler(verifications *service.VerificationService) *ZupassHandler {
	return &ZupassHandler{verifications: verifications}
}

// Verify handles POST /api/zupass/verify.
func (h *ZupassHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewMissingInput(service.MissingInputMessage)
	}

	outcome, err := h.verifications.VerifyAttendance(c.Context(), service.VerifyInput{
		PCD:         req.PCD,
		Watermark:   req.Watermark,
		FID:         req.FID,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		PfpURL:      req.PfpURL,
	})
	if err != nil {
		return err
	}

	return c.JSON(dto.VerifyResponse{
		Success:  true,
		Verified: true,
		User: dto.VerifiedUser{
			FID:            outcome.User.FID,
			ZupassVerified: outcome.User.ZupassVerified,
		},
	})
}

// Status handles GET /api/zupass/verify.
func (h *ZupassHandler) Status(c *fiber.Ctx) error {
	rawFID := c.Query("fid")
	if rawFID == "" {
		return apperrors.NewMissingInput("Missing FID parameter")
	}
	fid, err := strconv.ParseInt(rawFID, 10, 64)
	if err != nil {
		return apperrors.NewMissingInput("Invalid FID parameter")
	}

	verified, records, err := h.verifications.Status(c.Context(), fid)
	if err != nil {
		return err
	}

	return c.JSON(dto.StatusResponse{
		Verified:      verified,
		Verifications: dto.NewVerificationViews(records),
	})
}

// StoreVerified handles POST /api/zupass/store-verified.
func (h *ZupassHandler) StoreVerified(c *fiber.Ctx) error {
	var req dto.StoreVerifiedRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewMissingInput("Missing required data (fid or ticketData)")
	}
	if req.FID == 0 || req.TicketData == nil {
		return apperrors.NewMissingInput("Missing required data (fid or ticketData)")
	}

	outcome, err := h.verifications.StoreVerified(c.Context(), service.StoreVerifiedInput{
		FID:         req.FID,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		PfpURL:      req.PfpURL,
		Watermark:   req.Watermark,
		Ticket:      req.TicketData.ToTicketRecord(),
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(dto.VerifyResponse{
		Success:  true,
		Verified: true,
		User: dto.VerifiedUser{
			FID:            outcome.User.FID,
			ZupassVerified: outcome.User.ZupassVerified,
		},
	})
}
