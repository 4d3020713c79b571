package router

import (
	"github.com/fredsterzcode/motalert/app/controllers"
	"github.com/fredsterzcode/motalert/internal/pkg/constants"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Billing provider webhooks (no CSRF, signature-verified in controller)
	app.Post(constants.StripeWebhookRoute, controllers.HandleStripeWebhook)
}
