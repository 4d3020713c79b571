package entitlements

import (
	"time"

	"github.com/fredsterzcode/motalert/app/models"
)

// DefaultExpiryHorizonDays is the window used by IsExpiringSoon when the
// caller has no specific horizon.
const DefaultExpiryHorizonDays = 7

// All predicates are total over *models.Subscription: a nil record always
// takes the no-access branch, never an error.

// HasActiveAccess reports whether the subscription is in a fully paid-up
// state (active or trialing).
func HasActiveAccess(sub *models.Subscription) bool {
	if sub == nil {
		return false
	}
	switch sub.Status {
	case models.SubscriptionStatusActive, models.SubscriptionStatusTrialing:
		return true
	default:
		return false
	}
}

// IsInGracePeriod reports whether the subscription is past due. Past-due
// users deliberately keep feature access while billing is unresolved.
func IsInGracePeriod(sub *models.Subscription) bool {
	return sub != nil && sub.Status == models.SubscriptionStatusPastDue
}

// IsCanceled reports whether the subscription has been canceled.
func IsCanceled(sub *models.Subscription) bool {
	return sub != nil && sub.Status == models.SubscriptionStatusCanceled
}

// CanAccessFeatures gates the premium features (vehicle tracking).
func CanAccessFeatures(sub *models.Subscription) bool {
	return HasActiveAccess(sub) || IsInGracePeriod(sub)
}

// CanReceiveNotifications gates the reminder pipeline. No grace period
// here: users with unresolved billing are not emailed.
func CanReceiveNotifications(sub *models.Subscription) bool {
	return HasActiveAccess(sub)
}

// IsExpiringSoon reports whether the current billing period ends within
// horizonDays from now. Records without a period end never expire soon.
func IsExpiringSoon(sub *models.Subscription, horizonDays int) bool {
	if sub == nil || sub.CurrentPeriodEnd == nil {
		return false
	}
	days := daysUntil(*sub.CurrentPeriodEnd)
	return days > 0 && days <= horizonDays
}

// DaysUntilExpiry returns the whole days until the period end, or -1 when
// no period end is known. Expired periods return 0.
func DaysUntilExpiry(sub *models.Subscription) int {
	if sub == nil || sub.CurrentPeriodEnd == nil {
		return -1
	}
	if days := daysUntil(*sub.CurrentPeriodEnd); days > 0 {
		return days
	}
	return 0
}

// StatusText returns a human readable label for the subscription status.
func StatusText(sub *models.Subscription) string {
	if sub == nil {
		return "No subscription"
	}
	switch sub.Status {
	case models.SubscriptionStatusActive:
		return "Active"
	case models.SubscriptionStatusTrialing:
		return "Trial"
	case models.SubscriptionStatusPastDue:
		return "Payment overdue"
	case models.SubscriptionStatusCanceled:
		return "Canceled"
	case models.SubscriptionStatusUnpaid:
		return "Payment failed"
	case models.SubscriptionStatusIncomplete:
		return "Incomplete"
	case models.SubscriptionStatusIncompleteExpired:
		return "Expired"
	case models.SubscriptionStatusPaused:
		return "Paused"
	case models.SubscriptionStatusInactive:
		return "Inactive"
	default:
		return "Unknown"
	}
}

func daysUntil(t time.Time) int {
	d := time.Until(t)
	days := int(d.Hours() / 24)
	if d > 0 && d.Hours() > float64(days)*24 {
		days++ // round up partial days, matching how users read "days left"
	}
	return days
}
