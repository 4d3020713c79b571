package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fredsterzcode/motalert/app/models"
)

func subWithStatus(status string) *models.Subscription {
	return &models.Subscription{ID: 1, UserID: 1, Status: status}
}

func TestAccessPredicatesByStatus(t *testing.T) {
	tests := []struct {
		status        string
		activeAccess  bool
		grace         bool
		features      bool
		notifications bool
	}{
		{models.SubscriptionStatusActive, true, false, true, true},
		{models.SubscriptionStatusTrialing, true, false, true, true},
		{models.SubscriptionStatusPastDue, false, true, true, false},
		{models.SubscriptionStatusCanceled, false, false, false, false},
		{models.SubscriptionStatusUnpaid, false, false, false, false},
		{models.SubscriptionStatusIncomplete, false, false, false, false},
		{models.SubscriptionStatusIncompleteExpired, false, false, false, false},
		{models.SubscriptionStatusPaused, false, false, false, false},
		{models.SubscriptionStatusInactive, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			sub := subWithStatus(tt.status)
			assert.Equal(t, tt.activeAccess, HasActiveAccess(sub))
			assert.Equal(t, tt.grace, IsInGracePeriod(sub))
			assert.Equal(t, tt.features, CanAccessFeatures(sub))
			assert.Equal(t, tt.notifications, CanReceiveNotifications(sub))
		})
	}
}

func TestPredicatesAreTotalOverNil(t *testing.T) {
	assert.False(t, HasActiveAccess(nil))
	assert.False(t, IsInGracePeriod(nil))
	assert.False(t, IsCanceled(nil))
	assert.False(t, CanAccessFeatures(nil))
	assert.False(t, CanReceiveNotifications(nil))
	assert.False(t, IsExpiringSoon(nil, DefaultExpiryHorizonDays))
	assert.Equal(t, -1, DaysUntilExpiry(nil))
	assert.Equal(t, "No subscription", StatusText(nil))
}

func TestGracePeriodKeepsFeaturesButNotNotifications(t *testing.T) {
	sub := subWithStatus(models.SubscriptionStatusPastDue)
	assert.True(t, CanAccessFeatures(sub))
	assert.False(t, CanReceiveNotifications(sub), "past due users must not receive reminder emails")
}

func TestIsExpiringSoon(t *testing.T) {
	in3Days := time.Now().Add(3 * 24 * time.Hour)
	in30Days := time.Now().Add(30 * 24 * time.Hour)
	expired := time.Now().Add(-24 * time.Hour)

	sub := subWithStatus(models.SubscriptionStatusActive)
	assert.False(t, IsExpiringSoon(sub, DefaultExpiryHorizonDays), "no period end known")

	sub.CurrentPeriodEnd = &in3Days
	assert.True(t, IsExpiringSoon(sub, DefaultExpiryHorizonDays))

	sub.CurrentPeriodEnd = &in30Days
	assert.False(t, IsExpiringSoon(sub, DefaultExpiryHorizonDays))
	assert.True(t, IsExpiringSoon(sub, 31))

	sub.CurrentPeriodEnd = &expired
	assert.False(t, IsExpiringSoon(sub, DefaultExpiryHorizonDays), "already expired is not expiring soon")
}

func TestDaysUntilExpiry(t *testing.T) {
	sub := subWithStatus(models.SubscriptionStatusActive)

	halfDay := time.Now().Add(12 * time.Hour)
	sub.CurrentPeriodEnd = &halfDay
	assert.Equal(t, 1, DaysUntilExpiry(sub), "partial days round up")

	expired := time.Now().Add(-48 * time.Hour)
	sub.CurrentPeriodEnd = &expired
	assert.Equal(t, 0, DaysUntilExpiry(sub))
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "Active", StatusText(subWithStatus(models.SubscriptionStatusActive)))
	assert.Equal(t, "Trial", StatusText(subWithStatus(models.SubscriptionStatusTrialing)))
	assert.Equal(t, "Payment overdue", StatusText(subWithStatus(models.SubscriptionStatusPastDue)))
	assert.Equal(t, "Unknown", StatusText(subWithStatus("some_future_status")))
}
