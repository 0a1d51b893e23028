package ratelimit

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/farconnect/attestation-service/pkg/util"
)

// Handler gates a route on the limiter, keyed by caller IP. This is the
// pre-check gate in front of the verification pipeline; a rejected request
// never reaches the verifier.
func Handler(limiter *Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result := limiter.Check(c.Context(), c.IP())
		c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			c.Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			return apperrors.NewRateLimited("too many verification attempts, try again later")
		}
		return c.Next()
	}
}
