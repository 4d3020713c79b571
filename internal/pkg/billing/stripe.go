package billing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/fredsterzcode/motalert/internal/pkg/env"
)

// MetadataUserIDKey is the correlation key carried in outbound customer,
// session and subscription metadata. It is the only reliable way to map the
// very first webhook event back to a local user.
const MetadataUserIDKey = "user_id"

// StripeAPI is the slice of the Stripe API the billing service needs.
// The real client is constructed once at process start and injected;
// tests substitute a fake.
type StripeAPI interface {
	CreateCustomer(ctx context.Context, email string, userID uint) (customerID string, err error)
	CreateCheckoutSession(ctx context.Context, customerID, priceID string, userID uint, successURL, cancelURL string) (*stripe.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error)
}

// StripeClient implements StripeAPI against the live Stripe API.
type StripeClient struct {
	webhookSecret string
	trialDays     int64
}

// NewStripeClient sets the package-level API key once and returns a client.
func NewStripeClient(apiKey, webhookSecret string, trialDays int64) *StripeClient {
	stripe.Key = apiKey
	return &StripeClient{
		webhookSecret: webhookSecret,
		trialDays:     trialDays,
	}
}

// NewStripeClientFromEnv builds the client from STRIPE_SECRET_KEY and
// STRIPE_WEBHOOK_SECRET.
func NewStripeClientFromEnv() *StripeClient {
	trialDays, err := strconv.ParseInt(env.GetEnv("STRIPE_TRIAL_DAYS", "14"), 10, 64)
	if err != nil {
		trialDays = 14
	}
	return NewStripeClient(
		env.GetEnv("STRIPE_SECRET_KEY", ""),
		env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		trialDays,
	)
}

func (c *StripeClient) CreateCustomer(_ context.Context, email string, userID uint) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.AddMetadata(MetadataUserIDKey, formatUserID(userID))
	cus, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create stripe customer: %w", err)
	}
	return cus.ID, nil
}

func (c *StripeClient) CreateCheckoutSession(_ context.Context, customerID, priceID string, userID uint, successURL, cancelURL string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(c.trialDays),
			Metadata: map[string]string{
				MetadataUserIDKey: formatUserID(userID),
			},
		},
	}
	params.AddMetadata(MetadataUserIDKey, formatUserID(userID))
	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("billing: create checkout session: %w", err)
	}
	return sess, nil
}

func (c *StripeClient) CreatePortalSession(_ context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	sess, err := portalsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("billing: create portal session: %w", err)
	}
	return sess, nil
}

func (c *StripeClient) GetSubscription(_ context.Context, subscriptionID string) (*stripe.Subscription, error) {
	sub, err := subscription.Get(subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("billing: retrieve subscription %s: %w", subscriptionID, err)
	}
	return sub, nil
}

func (c *StripeClient) ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signatureHeader, c.webhookSecret)
}

func formatUserID(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

// parseUserID reads the correlation key back out of event metadata.
func parseUserID(metadata map[string]string) (uint, bool) {
	raw, ok := metadata[MetadataUserIDKey]
	if !ok || raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// subscriptionPeriodEnd extracts the latest current_period_end across the
// subscription items (where the API reports it since the 2025 Basil release).
func subscriptionPeriodEnd(sub *stripe.Subscription) *time.Time {
	if sub == nil || sub.Items == nil {
		return nil
	}
	var latest int64
	for _, item := range sub.Items.Data {
		if item != nil && item.CurrentPeriodEnd > latest {
			latest = item.CurrentPeriodEnd
		}
	}
	if latest == 0 {
		return nil
	}
	t := time.Unix(latest, 0).UTC()
	return &t
}

// invoiceSubscriptionID digs the subscription id out of an invoice, which
// nests it under parent.subscription_details. Empty when the invoice is not
// tied to a subscription.
func invoiceSubscriptionID(inv *stripe.Invoice) string {
	if inv == nil || inv.Parent == nil || inv.Parent.SubscriptionDetails == nil {
		return ""
	}
	if sub := inv.Parent.SubscriptionDetails.Subscription; sub != nil {
		return sub.ID
	}
	return ""
}
