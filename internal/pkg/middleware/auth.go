package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fredsterzcode/motalert/internal/pkg/billing"
	"github.com/fredsterzcode/motalert/internal/pkg/database"
	"github.com/fredsterzcode/motalert/internal/pkg/entitlements"
	icuser "github.com/fredsterzcode/motalert/internal/pkg/usercontext"
)

// RequireAPISessionAuth ensures a logged-in session for API routes and returns JSON 401 instead of redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	v := c.Locals(icuser.KeyFromProtected)
	loggedIn := false
	if b, ok := v.(bool); ok {
		loggedIn = b
	}
	if !loggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// RequireSubscription gates premium features: the user must be logged in and
// pass the feature-access predicate (active, trialing, or in grace period).
func RequireSubscription(c *fiber.Ctx) error {
	userCtx := icuser.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	sub, err := svc.GetSubscription(c.Context(), userCtx.UserID)
	if err != nil {
		log.Errorf("[Middleware] Subscription lookup failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "subscription_lookup_failed",
		})
	}
	if !entitlements.CanAccessFeatures(sub) {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":   "subscription_required",
			"message": "an active subscription is required for this feature",
		})
	}
	return c.Next()
}
