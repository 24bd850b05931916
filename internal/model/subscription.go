package model

import "time"

// Subscription statuses.  EXPIRED is never stored: whether a
// subscription is expired or frozen is always derived from ExpiresAt
// and FrozenUntil against the evaluation time, so admission decisions
// never act on a stale cached status.
const (
	SubscriptionActive   = "ACTIVE"
	SubscriptionFrozen   = "FROZEN"
	SubscriptionCanceled = "CANCELED"
)

// Subscription links a member to a plan for a bounded period.  It is
// the primary input of the admission engine: expiry, freeze window,
// and remaining entries are all read from this row under a row lock
// while a check-in verdict is computed.
//
// Fields:
//  ID               – primary key identifier.
//  MemberID         – owning member.
//  PlanID           – plan this subscription was bought against.
//  Status           – stored status (ACTIVE, FROZEN, CANCELED).
//  StartsAt         – activation timestamp.
//  ExpiresAt        – hard end of validity.
//  FrozenUntil      – freeze end (NULL = not frozen).
//  RemainingEntries – entries left (NULL = unlimited).
//  CreatedAt        – row creation timestamp.
//  UpdatedAt        – last update timestamp.
type Subscription struct {
	ID               uint64     // subscriptions.id
	MemberID         uint64     // subscriptions.member_id
	PlanID           uint64     // subscriptions.plan_id
	Status           string     // subscriptions.status
	StartsAt         time.Time  // subscriptions.starts_at
	ExpiresAt        time.Time  // subscriptions.expires_at
	FrozenUntil      *time.Time // subscriptions.frozen_until (nullable)
	RemainingEntries *int       // subscriptions.remaining_entries (nullable)
	CreatedAt        time.Time  // subscriptions.created_at
	UpdatedAt        time.Time  // subscriptions.updated_at
}

// ExpiredAt reports whether the subscription validity window has
// ended at the given instant.
func (s *Subscription) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// FrozenAt reports whether the subscription is frozen at the given
// instant.
func (s *Subscription) FrozenAt(now time.Time) bool {
	return s.FrozenUntil != nil && s.FrozenUntil.After(now)
}
