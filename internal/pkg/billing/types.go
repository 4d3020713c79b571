package billing

import "errors"

// Plan selects one of the two Stripe prices offered at checkout.
type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanAnnual  Plan = "annual"
)

// Valid reports whether the plan selector is one we sell.
func (p Plan) Valid() bool {
	return p == PlanMonthly || p == PlanAnnual
}

var (
	// ErrInvalidPlan rejects checkout requests before any upstream call.
	ErrInvalidPlan = errors.New("billing: invalid plan selector")
	// ErrInvalidSignature marks webhook payloads failing verification.
	ErrInvalidSignature = errors.New("billing: invalid webhook signature")
	// ErrNoBillingCustomer marks portal requests for users that never
	// checked out.
	ErrNoBillingCustomer = errors.New("billing: no billing customer on file")
)

// CheckoutResult carries the Stripe session handle back to the caller so the
// UI can redirect to the hosted checkout page.
type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}
