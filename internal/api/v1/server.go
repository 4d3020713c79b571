package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fredsterzcode/motalert/internal/pkg/middleware"
)

// Pong is the ping endpoint response body.
type Pong struct {
	Ping string `json:"ping"`
}

// ServerInterface lists every handler the v1 API exposes. Mirrors
// public/docs/v1/openapi.yml.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	PostBillingCheckout(c *fiber.Ctx) error
	PostBillingPortal(c *fiber.Ctx) error
	GetSubscription(c *fiber.Ctx) error
	PostVehicle(c *fiber.Ctx) error
	GetVehicles(c *fiber.Ctx) error
	DeleteVehicle(c *fiber.Ctx) error
}

// RegisterHandlers attaches the v1 API to a router group. Vehicle routes
// require both a session and an entitled subscription; the subscription
// status route only needs a session so the UI can render paywall state.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	router.Get("/ping", si.GetPing)

	router.Post("/billing/checkout", si.PostBillingCheckout)
	router.Post("/billing/portal", si.PostBillingPortal)

	router.Get("/subscription", middleware.RequireAPISessionAuth, si.GetSubscription)

	vehicles := router.Group("/vehicles", middleware.RequireAPISessionAuth, middleware.RequireSubscription)
	vehicles.Post("/", si.PostVehicle)
	vehicles.Get("/", si.GetVehicles)
	vehicles.Delete("/:uuid", si.DeleteVehicle)
}
