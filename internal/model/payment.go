package model

import "time"

// Payment statuses.  PENDING payments count toward a member's
// outstanding debt; a FAILED payment newer than the last PAID one
// blocks admission until it is resolved.
const (
	PaymentPending  = "PENDING"
	PaymentPaid     = "PAID"
	PaymentFailed   = "FAILED"
	PaymentRefunded = "REFUNDED"
)

// Payment is a row in the `payments` table, attached to exactly one
// subscription.
//
// Fields:
//  ID             – primary key identifier.
//  SubscriptionID – subscription this payment settles.
//  AmountCents    – amount in cents.
//  Status         – one of the Payment* constants.
//  Reference      – external payment reference (NULL if none).
//  PaidAt         – settlement time (NULL until PAID).
//  CreatedAt      – row creation timestamp.
type Payment struct {
	ID             uint64     // payments.id
	SubscriptionID uint64     // payments.subscription_id
	AmountCents    int64      // payments.amount_cents
	Status         string     // payments.status
	Reference      *string    // payments.reference (nullable)
	PaidAt         *time.Time // payments.paid_at (nullable)
	CreatedAt      time.Time  // payments.created_at
}
