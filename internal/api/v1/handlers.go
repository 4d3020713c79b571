package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/fredsterzcode/motalert/app/controllers"
)

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// PostBillingCheckout starts a hosted checkout session for a plan.
func (s *APIServer) PostBillingCheckout(c *fiber.Ctx) error {
	return controllers.HandleCreateCheckoutSession(c)
}

// PostBillingPortal returns the billing portal URL for an existing customer.
func (s *APIServer) PostBillingPortal(c *fiber.Ctx) error {
	return controllers.HandleCreatePortalSession(c)
}

// GetSubscription reports the session user's subscription and entitlements.
func (s *APIServer) GetSubscription(c *fiber.Ctx) error {
	return controllers.HandleSubscriptionStatus(c)
}

// PostVehicle adds a vehicle to the session user's watch list.
func (s *APIServer) PostVehicle(c *fiber.Ctx) error {
	return controllers.HandleAddVehicle(c)
}

// GetVehicles lists the session user's vehicles.
func (s *APIServer) GetVehicles(c *fiber.Ctx) error {
	return controllers.HandleListVehicles(c)
}

// DeleteVehicle removes a vehicle by its public UUID.
func (s *APIServer) DeleteVehicle(c *fiber.Ctx) error {
	return controllers.HandleDeleteVehicle(c)
}
