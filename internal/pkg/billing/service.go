package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	stripe "github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"

	"github.com/fredsterzcode/motalert/app/models"
	"github.com/fredsterzcode/motalert/internal/pkg/env"
)

// Config carries the Stripe price mapping and redirect defaults.
type Config struct {
	MonthlyPriceID string
	AnnualPriceID  string
	AppURL         string
}

// NewConfigFromEnv reads the price/redirect configuration from the
// environment.
func NewConfigFromEnv() Config {
	return Config{
		MonthlyPriceID: env.GetEnv("STRIPE_MONTHLY_PRICE_ID", ""),
		AnnualPriceID:  env.GetEnv("STRIPE_ANNUAL_PRICE_ID", ""),
		AppURL:         env.GetEnv("APP_URL", "http://localhost:4000"),
	}
}

// PriceID resolves a plan selector to the configured Stripe price.
func (c Config) PriceID(plan Plan) (string, error) {
	switch plan {
	case PlanMonthly:
		return c.MonthlyPriceID, nil
	case PlanAnnual:
		return c.AnnualPriceID, nil
	default:
		return "", ErrInvalidPlan
	}
}

// Service owns checkout initiation, the customer portal and the webhook
// reconciler. Both collaborators are injected so tests can run against
// fakes; neither is a package-level singleton.
type Service struct {
	api  StripeAPI
	repo Repository
	cfg  Config
}

// NewService creates a billing service from injected collaborators.
func NewService(api StripeAPI, repo Repository, cfg Config) *Service {
	return &Service{api: api, repo: repo, cfg: cfg}
}

// NewServiceFromDB wires the real Stripe client against a GORM handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewStripeClientFromEnv(), NewRepository(db), NewConfigFromEnv())
}

// GetSubscription returns the authoritative subscription record for a user,
// or nil when the user never started billing.
func (s *Service) GetSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	_ = ctx
	if userID == 0 {
		return nil, nil
	}
	return s.repo.GetLatestSubscriptionByUserID(userID)
}

// CreateCheckoutSession resolves or creates the Stripe customer for the user
// and starts a subscription-mode checkout for the selected plan. Customer
// creation is idempotent: an existing stripe_customer_id is always reused.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID uint, plan Plan, successURL, cancelURL string) (*CheckoutResult, error) {
	priceID, err := s.cfg.PriceID(plan)
	if err != nil {
		return nil, err
	}
	if priceID == "" {
		return nil, fmt.Errorf("billing: no price configured for plan %q", plan)
	}

	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.GetLatestSubscriptionByUserID(userID)
	if err != nil {
		return nil, err
	}

	customerID := ""
	if sub != nil {
		customerID = sub.StripeCustomerID
	}
	if customerID == "" {
		customerID, err = s.api.CreateCustomer(ctx, user.Email, userID)
		if err != nil {
			return nil, err
		}
		// Placeholder row: the reconciler fills in the subscription id and
		// real status once Stripe reports them.
		if err := s.repo.UpsertSubscription(&models.Subscription{
			UserID:           userID,
			StripeCustomerID: customerID,
			Status:           models.SubscriptionStatusInactive,
		}); err != nil {
			return nil, err
		}
	}

	if successURL == "" {
		successURL = s.cfg.AppURL + "/dashboard?success=true"
	}
	if cancelURL == "" {
		cancelURL = s.cfg.AppURL + "/dashboard?canceled=true"
	}

	sess, err := s.api.CreateCheckoutSession(ctx, customerID, priceID, userID, successURL, cancelURL)
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

// CreatePortalSession returns the hosted self-service billing portal URL for
// a user with a billing customer on file.
func (s *Service) CreatePortalSession(ctx context.Context, userID uint) (string, error) {
	sub, err := s.repo.GetLatestSubscriptionByUserID(userID)
	if err != nil {
		return "", err
	}
	if sub == nil || sub.StripeCustomerID == "" {
		return "", ErrNoBillingCustomer
	}
	sess, err := s.api.CreatePortalSession(ctx, sub.StripeCustomerID, s.cfg.AppURL+"/dashboard")
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// HandleWebhook verifies, records and dispatches a single Stripe event.
//
// Contract per delivery:
//   - signature failure returns ErrInvalidSignature with zero mutation
//   - event ids already processed successfully are acknowledged without
//     reprocessing; redeliveries of a failed event are dispatched again
//   - handlers write the absolute upstream state (idempotent on replay)
//   - missing user correlation is logged and swallowed; retries cannot fix
//     missing metadata
//   - upstream lookup failures are returned so the provider redelivers
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := s.api.ConstructEvent(payload, signatureHeader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	created, stored, err := s.repo.CreateWebhookEventIfNotExists(&models.WebhookEvent{
		StripeEventID: event.ID,
		EventType:     string(event.Type),
		PayloadJSON:   string(payload),
	})
	if err != nil {
		return err
	}
	if !created {
		// Only a successfully processed delivery counts as a duplicate.
		// A redelivery after a dispatch failure is the provider's retry
		// mechanism and must run again.
		if stored.ProcessedAt != nil && stored.ProcessingError == "" {
			log.Infof("[Billing] Duplicate event %s (%s), acknowledging", event.ID, event.Type)
			return nil
		}
		log.Infof("[Billing] Redelivery of event %s (%s) after failed processing, dispatching again", event.ID, event.Type)
	}

	dispatchErr := s.dispatchEvent(ctx, event)
	errMsg := ""
	if dispatchErr != nil {
		errMsg = dispatchErr.Error()
	}
	if err := s.repo.MarkWebhookProcessed(stored.ID, errMsg); err != nil {
		log.Errorf("[Billing] Failed to mark event %s processed: %v", event.ID, err)
	}
	return dispatchErr
}

func (s *Service) dispatchEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutSessionCompleted(ctx, event)
	case "customer.subscription.created", "customer.subscription.updated":
		return s.handleSubscriptionUpserted(ctx, event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event)
	case "customer.subscription.trial_will_end":
		return s.handleTrialWillEnd(ctx, event)
	case "invoice.payment_failed", "invoice.payment_succeeded", "invoice.payment_action_required":
		return s.handleInvoiceEvent(ctx, event)
	case "customer.created", "customer.updated", "customer.deleted":
		// Customer lifecycle is fully derived from subscription events.
		return nil
	default:
		log.Infof("[Billing] Ignoring unhandled event type %s", event.Type)
		return nil
	}
}

func (s *Service) handleCheckoutSessionCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("billing: parse checkout session event: %w", err)
	}
	if sess.Mode != stripe.CheckoutSessionModeSubscription || sess.Subscription == nil {
		return nil
	}

	userID, ok := parseUserID(sess.Metadata)
	if !ok {
		// Data-quality condition, not a transient fault: retries cannot
		// conjure up the missing correlation key.
		log.Warnf("[Billing] Checkout session %s completed without user_id metadata", sess.ID)
		return nil
	}

	// Enrich before mutating: the session only carries the subscription id.
	sub, err := s.api.GetSubscription(ctx, sess.Subscription.ID)
	if err != nil {
		return err
	}

	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	} else if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	return s.repo.UpsertSubscription(&models.Subscription{
		UserID:               userID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: sub.ID,
		Status:               string(sub.Status),
		CurrentPeriodEnd:     subscriptionPeriodEnd(sub),
	})
}

func (s *Service) handleSubscriptionUpserted(ctx context.Context, event stripe.Event) error {
	_ = ctx
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("billing: parse subscription event: %w", err)
	}

	userID, ok := parseUserID(sub.Metadata)
	if !ok {
		log.Warnf("[Billing] Subscription %s event without user_id metadata", sub.ID)
		return nil
	}

	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	return s.repo.UpsertSubscription(&models.Subscription{
		UserID:               userID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: sub.ID,
		Status:               string(sub.Status),
		CurrentPeriodEnd:     subscriptionPeriodEnd(&sub),
	})
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	_ = ctx
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("billing: parse subscription deleted event: %w", err)
	}

	userID, ok := parseUserID(sub.Metadata)
	if !ok {
		log.Warnf("[Billing] Subscription %s deleted without user_id metadata", sub.ID)
		return nil
	}

	// Status only; the last known period end stays on record so the UI can
	// still show when paid access runs out.
	return s.repo.UpdateSubscriptionStatus(userID, models.SubscriptionStatusCanceled, nil)
}

func (s *Service) handleTrialWillEnd(ctx context.Context, event stripe.Event) error {
	_ = ctx
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("billing: parse trial_will_end event: %w", err)
	}

	userID, ok := parseUserID(sub.Metadata)
	if !ok {
		log.Warnf("[Billing] trial_will_end for %s without user_id metadata", sub.ID)
		return nil
	}

	// Advisory event; just refresh status and period to upstream values.
	return s.repo.UpdateSubscriptionStatus(userID, string(sub.Status), subscriptionPeriodEnd(&sub))
}

func (s *Service) handleInvoiceEvent(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("billing: parse invoice event: %w", err)
	}

	subscriptionID := invoiceSubscriptionID(&inv)
	if subscriptionID == "" {
		return nil
	}

	// The invoice carries no correlation key; resolve the subscription and
	// take its absolute status.
	sub, err := s.api.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}

	userID, ok := parseUserID(sub.Metadata)
	if !ok {
		log.Warnf("[Billing] Invoice %s resolved subscription %s without user_id metadata", inv.ID, subscriptionID)
		return nil
	}

	return s.repo.UpdateSubscriptionStatus(userID, string(sub.Status), subscriptionPeriodEnd(sub))
}
