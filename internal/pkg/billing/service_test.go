package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"

	"github.com/fredsterzcode/motalert/app/models"
)

// fakeStripeAPI records outbound calls and serves canned responses.
type fakeStripeAPI struct {
	event        stripe.Event
	constructErr error

	subs      map[string]*stripe.Subscription
	getSubErr error

	createdCustomers int
	nextCustomerID   string

	lastCheckoutCustomer string
	lastCheckoutPrice    string
}

func (f *fakeStripeAPI) CreateCustomer(_ context.Context, email string, userID uint) (string, error) {
	f.createdCustomers++
	if f.nextCustomerID == "" {
		f.nextCustomerID = "cus_test"
	}
	return f.nextCustomerID, nil
}

func (f *fakeStripeAPI) CreateCheckoutSession(_ context.Context, customerID, priceID string, userID uint, successURL, cancelURL string) (*stripe.CheckoutSession, error) {
	f.lastCheckoutCustomer = customerID
	f.lastCheckoutPrice = priceID
	return &stripe.CheckoutSession{ID: "cs_test", URL: "https://checkout.stripe.com/cs_test"}, nil
}

func (f *fakeStripeAPI) CreatePortalSession(_ context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error) {
	return &stripe.BillingPortalSession{URL: "https://billing.stripe.com/" + customerID}, nil
}

func (f *fakeStripeAPI) GetSubscription(_ context.Context, subscriptionID string) (*stripe.Subscription, error) {
	if f.getSubErr != nil {
		return nil, f.getSubErr
	}
	sub, ok := f.subs[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("no such subscription %s", subscriptionID)
	}
	return sub, nil
}

func (f *fakeStripeAPI) ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	if f.constructErr != nil {
		return stripe.Event{}, f.constructErr
	}
	return f.event, nil
}

// fakeRepository is an in-memory Repository.
type fakeRepository struct {
	users  map[uint]*models.User
	subs   map[uint]*models.Subscription
	events map[string]*models.WebhookEvent
	nextID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:  make(map[uint]*models.User),
		subs:   make(map[uint]*models.Subscription),
		events: make(map[string]*models.WebhookEvent),
	}
}

func (r *fakeRepository) GetUserByID(id uint) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeRepository) UpsertSubscription(sub *models.Subscription) error {
	existing, ok := r.subs[sub.UserID]
	if ok {
		existing.StripeCustomerID = sub.StripeCustomerID
		existing.StripeSubscriptionID = sub.StripeSubscriptionID
		existing.Status = sub.Status
		existing.CurrentPeriodEnd = sub.CurrentPeriodEnd
		*sub = *existing
		return nil
	}
	r.nextID++
	sub.ID = r.nextID
	sub.CreatedAt = time.Now()
	copied := *sub
	r.subs[sub.UserID] = &copied
	return nil
}

func (r *fakeRepository) UpdateSubscriptionStatus(userID uint, status string, periodEnd *time.Time) error {
	sub, ok := r.subs[userID]
	if !ok {
		return nil
	}
	sub.Status = status
	if periodEnd != nil {
		sub.CurrentPeriodEnd = periodEnd
	}
	return nil
}

func (r *fakeRepository) GetLatestSubscriptionByUserID(userID uint) (*models.Subscription, error) {
	sub, ok := r.subs[userID]
	if !ok {
		return nil, nil
	}
	copied := *sub
	return &copied, nil
}

func (r *fakeRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if stored, ok := r.events[event.StripeEventID]; ok {
		return false, stored, nil
	}
	r.nextID++
	event.ID = r.nextID
	r.events[event.StripeEventID] = event
	return true, event, nil
}

func (r *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, event := range r.events {
		if event.ID == id {
			now := time.Now()
			event.ProcessedAt = &now
			event.ProcessingError = processingError
			return nil
		}
	}
	return nil
}

func newTestService(api *fakeStripeAPI, repo *fakeRepository) *Service {
	return NewService(api, repo, Config{
		MonthlyPriceID: "price_monthly",
		AnnualPriceID:  "price_annual",
		AppURL:         "https://motalert.test",
	})
}

func rawEvent(id string, eventType stripe.EventType, object interface{}) stripe.Event {
	raw, err := json.Marshal(object)
	if err != nil {
		panic(err)
	}
	return stripe.Event{
		ID:   id,
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func stripeSubscription(id, customerID, status string, userID string, periodEnd int64) *stripe.Subscription {
	sub := &stripe.Subscription{
		ID:       id,
		Status:   stripe.SubscriptionStatus(status),
		Customer: &stripe.Customer{ID: customerID},
		Metadata: map[string]string{},
	}
	if userID != "" {
		sub.Metadata[MetadataUserIDKey] = userID
	}
	if periodEnd > 0 {
		sub.Items = &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{CurrentPeriodEnd: periodEnd}},
		}
	}
	return sub
}

func TestCreateCheckoutSessionCreatesPlaceholderForNewCustomer(t *testing.T) {
	api := &fakeStripeAPI{nextCustomerID: "cus_new"}
	repo := newFakeRepository()
	repo.users[1] = &models.User{ID: 1, Email: "driver@example.com"}
	svc := newTestService(api, repo)

	result, err := svc.CreateCheckoutSession(context.Background(), 1, PlanMonthly, "", "")
	require.NoError(t, err)
	assert.Equal(t, "cs_test", result.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/cs_test", result.URL)
	assert.Equal(t, 1, api.createdCustomers)
	assert.Equal(t, "price_monthly", api.lastCheckoutPrice)

	sub, err := repo.GetLatestSubscriptionByUserID(1)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "cus_new", sub.StripeCustomerID)
	assert.Equal(t, models.SubscriptionStatusInactive, sub.Status)
	assert.Empty(t, sub.StripeSubscriptionID)
}

func TestCreateCheckoutSessionReusesExistingCustomer(t *testing.T) {
	api := &fakeStripeAPI{}
	repo := newFakeRepository()
	repo.users[1] = &models.User{ID: 1, Email: "driver@example.com"}
	repo.subs[1] = &models.Subscription{ID: 1, UserID: 1, StripeCustomerID: "cus_keep", Status: models.SubscriptionStatusCanceled}
	svc := newTestService(api, repo)

	_, err := svc.CreateCheckoutSession(context.Background(), 1, PlanAnnual, "", "")
	require.NoError(t, err)
	assert.Zero(t, api.createdCustomers)
	assert.Equal(t, "cus_keep", api.lastCheckoutCustomer)
	assert.Equal(t, "price_annual", api.lastCheckoutPrice)
}

func TestCreateCheckoutSessionRejectsInvalidPlan(t *testing.T) {
	svc := newTestService(&fakeStripeAPI{}, newFakeRepository())

	_, err := svc.CreateCheckoutSession(context.Background(), 1, Plan("lifetime"), "", "")
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestCreateCheckoutSessionUnknownUser(t *testing.T) {
	svc := newTestService(&fakeStripeAPI{}, newFakeRepository())

	_, err := svc.CreateCheckoutSession(context.Background(), 42, PlanMonthly, "", "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreatePortalSessionWithoutCustomer(t *testing.T) {
	svc := newTestService(&fakeStripeAPI{}, newFakeRepository())

	_, err := svc.CreatePortalSession(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoBillingCustomer)
}

func TestHandleWebhookInvalidSignature(t *testing.T) {
	api := &fakeStripeAPI{constructErr: errors.New("signature mismatch")}
	repo := newFakeRepository()
	svc := newTestService(api, repo)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "t=bad")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Empty(t, repo.events, "rejected events must not be recorded")
	assert.Empty(t, repo.subs, "rejected events must not mutate state")
}

func TestHandleWebhookCheckoutSessionCompleted(t *testing.T) {
	periodEnd := time.Now().Add(14 * 24 * time.Hour).Unix()
	api := &fakeStripeAPI{
		subs: map[string]*stripe.Subscription{
			"sub_1": stripeSubscription("sub_1", "cus_1", "trialing", "1", periodEnd),
		},
	}
	api.event = rawEvent("evt_1", "checkout.session.completed", map[string]interface{}{
		"id":           "cs_1",
		"mode":         "subscription",
		"subscription": "sub_1",
		"customer":     "cus_1",
		"metadata":     map[string]string{MetadataUserIDKey: "1"},
	})
	repo := newFakeRepository()
	svc := newTestService(api, repo)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	sub := repo.subs[1]
	require.NotNil(t, sub)
	assert.Equal(t, "cus_1", sub.StripeCustomerID)
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
	assert.Equal(t, models.SubscriptionStatusTrialing, sub.Status)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, periodEnd, sub.CurrentPeriodEnd.Unix())

	event := repo.events["evt_1"]
	require.NotNil(t, event)
	assert.NotNil(t, event.ProcessedAt)
	assert.Empty(t, event.ProcessingError)
}

func TestHandleWebhookDuplicateEventIsAcknowledged(t *testing.T) {
	api := &fakeStripeAPI{}
	api.event = rawEvent("evt_dup", "customer.subscription.updated", map[string]interface{}{
		"id":       "sub_1",
		"status":   "active",
		"customer": "cus_1",
		"metadata": map[string]string{MetadataUserIDKey: "1"},
	})
	repo := newFakeRepository()
	processedAt := time.Now().Add(-time.Minute)
	repo.events["evt_dup"] = &models.WebhookEvent{ID: 99, StripeEventID: "evt_dup", ProcessedAt: &processedAt}
	svc := newTestService(api, repo)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	assert.Empty(t, repo.subs, "duplicate delivery must not be reprocessed")
}

func TestHandleWebhookRedeliveryAfterFailureIsReprocessed(t *testing.T) {
	periodEnd := time.Now().Add(14 * 24 * time.Hour).Unix()
	api := &fakeStripeAPI{getSubErr: errors.New("stripe is down")}
	api.event = rawEvent("evt_retry", "checkout.session.completed", map[string]interface{}{
		"id":           "cs_1",
		"mode":         "subscription",
		"subscription": "sub_1",
		"customer":     "cus_1",
		"metadata":     map[string]string{MetadataUserIDKey: "1"},
	})
	repo := newFakeRepository()
	svc := newTestService(api, repo)

	// First delivery fails during enrichment and surfaces the error.
	require.Error(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	assert.Empty(t, repo.subs)

	// Stripe redelivers the same event id once the outage is over; the
	// recorded-but-failed event must be dispatched again, not swallowed.
	api.getSubErr = nil
	api.subs = map[string]*stripe.Subscription{
		"sub_1": stripeSubscription("sub_1", "cus_1", "trialing", "1", periodEnd),
	}
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	sub := repo.subs[1]
	require.NotNil(t, sub, "redelivery must reach the store")
	assert.Equal(t, models.SubscriptionStatusTrialing, sub.Status)

	event := repo.events["evt_retry"]
	require.NotNil(t, event)
	assert.NotNil(t, event.ProcessedAt)
	assert.Empty(t, event.ProcessingError, "successful retry clears the recorded failure")
}

func TestHandleWebhookSubscriptionUpdatedWritesAbsoluteState(t *testing.T) {
	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	api := &fakeStripeAPI{}
	api.event = rawEvent("evt_2", "customer.subscription.updated", map[string]interface{}{
		"id":       "sub_1",
		"status":   "active",
		"customer": "cus_1",
		"metadata": map[string]string{MetadataUserIDKey: "1"},
		"items": map[string]interface{}{
			"data": []map[string]interface{}{{"current_period_end": periodEnd}},
		},
	})
	repo := newFakeRepository()
	repo.subs[1] = &models.Subscription{ID: 1, UserID: 1, StripeCustomerID: "cus_1", Status: models.SubscriptionStatusTrialing}
	svc := newTestService(api, repo)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	sub := repo.subs[1]
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, periodEnd, sub.CurrentPeriodEnd.Unix())
}

func TestHandleWebhookSubscriptionDeletedPreservesPeriodEnd(t *testing.T) {
	lastPaid := time.Now().Add(5 * 24 * time.Hour).UTC().Truncate(time.Second)
	api := &fakeStripeAPI{}
	api.event = rawEvent("evt_3", "customer.subscription.deleted", map[string]interface{}{
		"id":       "sub_1",
		"status":   "canceled",
		"metadata": map[string]string{MetadataUserIDKey: "1"},
	})
	repo := newFakeRepository()
	repo.subs[1] = &models.Subscription{
		ID: 1, UserID: 1, StripeCustomerID: "cus_1",
		Status:           models.SubscriptionStatusActive,
		CurrentPeriodEnd: &lastPaid,
	}
	svc := newTestService(api, repo)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	sub := repo.subs[1]
	assert.Equal(t, models.SubscriptionStatusCanceled, sub.Status)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.True(t, sub.CurrentPeriodEnd.Equal(lastPaid), "deletion must keep the last known period end")
}

func TestHandleWebhookMissingUserMetadataIsSwallowed(t *testing.T) {
	api := &fakeStripeAPI{}
	api.event = rawEvent("evt_4", "customer.subscription.updated", map[string]interface{}{
		"id":       "sub_1",
		"status":   "active",
		"customer": "cus_1",
	})
	repo := newFakeRepository()
	svc := newTestService(api, repo)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	assert.Empty(t, repo.subs)

	event := repo.events["evt_4"]
	require.NotNil(t, event)
	assert.NotNil(t, event.ProcessedAt, "uncorrelatable events are still acknowledged")
}

func TestHandleWebhookInvoicePaymentFailed(t *testing.T) {
	api := &fakeStripeAPI{
		subs: map[string]*stripe.Subscription{
			"sub_1": stripeSubscription("sub_1", "cus_1", "past_due", "1", 0),
		},
	}
	api.event = rawEvent("evt_5", "invoice.payment_failed", map[string]interface{}{
		"id": "in_1",
		"parent": map[string]interface{}{
			"subscription_details": map[string]interface{}{
				"subscription": "sub_1",
			},
		},
	})
	repo := newFakeRepository()
	repo.subs[1] = &models.Subscription{ID: 1, UserID: 1, StripeCustomerID: "cus_1", Status: models.SubscriptionStatusActive}
	svc := newTestService(api, repo)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	assert.Equal(t, models.SubscriptionStatusPastDue, repo.subs[1].Status)
}

func TestHandleWebhookUpstreamLookupFailureReturnsError(t *testing.T) {
	api := &fakeStripeAPI{getSubErr: errors.New("stripe is down")}
	api.event = rawEvent("evt_6", "checkout.session.completed", map[string]interface{}{
		"id":           "cs_1",
		"mode":         "subscription",
		"subscription": "sub_1",
		"metadata":     map[string]string{MetadataUserIDKey: "1"},
	})
	repo := newFakeRepository()
	svc := newTestService(api, repo)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.Error(t, err, "transient upstream failure must surface so Stripe redelivers")

	event := repo.events["evt_6"]
	require.NotNil(t, event)
	assert.Contains(t, event.ProcessingError, "stripe is down")
}

func TestHandleWebhookUnknownEventTypeIsAcknowledged(t *testing.T) {
	api := &fakeStripeAPI{}
	api.event = rawEvent("evt_7", "charge.refunded", map[string]interface{}{"id": "ch_1"})
	repo := newFakeRepository()
	svc := newTestService(api, repo)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	assert.Empty(t, repo.subs)
}
