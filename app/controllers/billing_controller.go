package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fredsterzcode/motalert/internal/pkg/billing"
	"github.com/fredsterzcode/motalert/internal/pkg/database"
	"github.com/fredsterzcode/motalert/internal/pkg/entitlements"
	"github.com/fredsterzcode/motalert/internal/pkg/usercontext"
)

var billingService *billing.Service

// InitializeBillingController injects the billing service. Called once from
// the router at startup; tests inject a service wired to fakes.
func InitializeBillingController(svc *billing.Service) {
	billingService = svc
}

func getBillingService() *billing.Service {
	if billingService == nil {
		billingService = billing.NewServiceFromDB(database.GetDB())
	}
	return billingService
}

type checkoutRequest struct {
	UserID     uint   `json:"userId"`
	Plan       string `json:"plan"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

type portalRequest struct {
	UserID uint `json:"userId"`
}

// HandleCreateCheckoutSession starts a hosted checkout for the selected
// plan. Invoked by the UI layer with the user id and plan selector.
func HandleCreateCheckoutSession(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request_body"})
	}
	if req.UserID == 0 || req.Plan == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_required_parameters"})
	}

	plan := billing.Plan(req.Plan)
	if !plan.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_plan"})
	}

	result, err := getBillingService().CreateCheckoutSession(c.Context(), req.UserID, plan, req.SuccessURL, req.CancelURL)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
		}
		log.Errorf("[Billing] Checkout session creation failed for user %d: %v", req.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "checkout_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// HandleCreatePortalSession returns the hosted billing portal URL for a
// user that already has a billing customer on file.
func HandleCreatePortalSession(c *fiber.Ctx) error {
	var req portalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request_body"})
	}
	if req.UserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_user_id"})
	}

	url, err := getBillingService().CreatePortalSession(c.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, billing.ErrNoBillingCustomer) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no_subscription_found"})
		}
		log.Errorf("[Billing] Portal session creation failed for user %d: %v", req.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "portal_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"url": url})
}

// HandleStripeWebhook consumes the asynchronous Stripe event stream. The
// signature is verified against the raw body before anything is touched;
// unrecognized event types and missing correlations are acknowledged so
// Stripe does not redeliver them.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")

	err := getBillingService().HandleWebhook(c.Context(), rawBody, signature)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			log.Warnf("[Billing] Webhook signature verification failed: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
		}
		// Returning 500 makes Stripe retry the whole event.
		log.Errorf("[Billing] Webhook processing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

// HandleSubscriptionStatus reports the session user's subscription record
// and the derived entitlement flags.
func HandleSubscriptionStatus(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	sub, err := getBillingService().GetSubscription(c.Context(), userCtx.UserID)
	if err != nil {
		log.Errorf("[Billing] Subscription lookup failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_lookup_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"subscription":              sub,
		"status_text":               entitlements.StatusText(sub),
		"can_access_features":       entitlements.CanAccessFeatures(sub),
		"can_receive_notifications": entitlements.CanReceiveNotifications(sub),
		"in_grace_period":           entitlements.IsInGracePeriod(sub),
		"expiring_soon":             entitlements.IsExpiringSoon(sub, entitlements.DefaultExpiryHorizonDays),
	})
}
