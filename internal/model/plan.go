package model

import "time"

// Plan types.  VIP plans grant queue precedence on session waitlists;
// all other types map to the standard tier.
const (
	PlanMonthly = "MONTHLY"
	PlanYearly  = "YEARLY"
	PlanWeekly  = "WEEKLY"
	PlanDaily   = "DAILY"
	PlanVIP     = "VIP"
)

// Plan is a row in the `plans` catalog.  A plan defines how long a
// subscription bought against it is valid and how many entries it
// includes.  MaxEntries is nullable: NULL means unlimited entries
// (typical for monthly/yearly plans), a number means a punch card.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – human readable plan name.
//  PlanType   – one of the Plan* constants above.
//  PriceCents – plan price in cents.
//  ValidDays  – subscription lifetime in days from activation.
//  MaxEntries – included entries (NULL = unlimited).
//  CreatedAt  – row creation timestamp.
type Plan struct {
	ID         uint64    // plans.id
	Name       string    // plans.name
	PlanType   string    // plans.plan_type
	PriceCents int64     // plans.price_cents
	ValidDays  int       // plans.valid_days
	MaxEntries *int      // plans.max_entries (nullable)
	CreatedAt  time.Time // plans.created_at
}
