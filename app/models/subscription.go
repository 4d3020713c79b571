package models

import "time"

// Subscription status values. These mirror the Stripe subscription lifecycle
// plus our local "inactive" placeholder used between checkout initiation and
// the first webhook.
const (
	SubscriptionStatusInactive          = "inactive"
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusActive            = "active"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusUnpaid            = "unpaid"
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusPaused            = "paused"
)

// Subscription maps a user to their Stripe billing state. Status is written
// only by checkout initiation (placeholder row) and the webhook reconciler;
// handlers always write the absolute status Stripe reports, never deltas.
type Subscription struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               uint       `gorm:"not null;uniqueIndex:ux_subscriptions_user" json:"user_id"`
	StripeCustomerID     string     `gorm:"type:varchar(191);default:'';index" json:"stripe_customer_id"`
	StripeSubscriptionID string     `gorm:"type:varchar(191);default:'';index" json:"stripe_subscription_id"`
	Status               string     `gorm:"type:varchar(32);not null;default:'inactive';index" json:"status"`
	CurrentPeriodEnd     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the status ends the lifecycle of this Stripe
// subscription object. A new checkout creates a fresh subscription id.
func IsTerminalSubscriptionStatus(status string) bool {
	switch status {
	case SubscriptionStatusCanceled, SubscriptionStatusIncompleteExpired:
		return true
	default:
		return false
	}
}
