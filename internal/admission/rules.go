// Package admission implements the check-in decision engine.  A
// check-in attempt is evaluated against a fixed, ordered chain of
// business rules; the first failing rule determines the single denial
// reason.  The chain is deliberately a plain ordered slice of
// predicates over one evaluation context — the rules are a small,
// enumerable set, not a user-extensible rules engine.
package admission

import (
	"time"

	"github.com/iliyamo/gym-operations/internal/config"
	"github.com/iliyamo/gym-operations/internal/model"
)

// Denial reasons recorded on denied check-ins and returned to the
// front desk.  Earlier rules in the chain represent harder blocks, so
// a member with an expired subscription AND debt is always denied for
// the expiry, never the debt.
const (
	ReasonSubscriptionExpired = "SUBSCRIPTION_EXPIRED"
	ReasonSubscriptionFrozen  = "SUBSCRIPTION_FROZEN"
	ReasonOutstandingDebt     = "OUTSTANDING_DEBT"
	ReasonPaymentFailed       = "PAYMENT_FAILED"
	ReasonNoEntriesRemaining  = "NO_ENTRIES_REMAINING"
	ReasonDailyLimitExceeded  = "DAILY_LIMIT_EXCEEDED"
	ReasonWeeklyLimitExceeded = "WEEKLY_LIMIT_EXCEEDED"
)

// ruleContext is the single evaluation context the chain runs over.
// It is assembled inside the admission transaction so every rule sees
// one consistent snapshot.
type ruleContext struct {
	now         time.Time
	sub         *model.Subscription // nil when the member has no current subscription
	debtCents   int64
	failedOwing bool // FAILED payment newer than the last PAID one
	dailyCount  int
	weeklyCount int
	cfg         config.AdmissionConfig
}

// rule is one link of the chain: a name for the audit trail, the
// denial reason it produces, and the predicate that reports whether
// the rule blocks admission.
type rule struct {
	name    string
	reason  string
	blocked func(rc *ruleContext) bool
}

// chain is the fixed rule order.  Changing the order changes which
// denial reason wins, so it is append-only by convention.
var chain = []rule{
	{
		name:   "subscription_valid",
		reason: ReasonSubscriptionExpired,
		blocked: func(rc *ruleContext) bool {
			return rc.sub == nil || rc.sub.ExpiredAt(rc.now)
		},
	},
	{
		name:   "subscription_not_frozen",
		reason: ReasonSubscriptionFrozen,
		blocked: func(rc *ruleContext) bool {
			return rc.sub.FrozenAt(rc.now)
		},
	},
	{
		name:   "no_outstanding_debt",
		reason: ReasonOutstandingDebt,
		blocked: func(rc *ruleContext) bool {
			return rc.debtCents > 0
		},
	},
	{
		name:   "no_unresolved_failed_payment",
		reason: ReasonPaymentFailed,
		blocked: func(rc *ruleContext) bool {
			return rc.failedOwing
		},
	},
	{
		name:   "entries_remaining",
		reason: ReasonNoEntriesRemaining,
		blocked: func(rc *ruleContext) bool {
			return rc.sub.RemainingEntries != nil && *rc.sub.RemainingEntries <= 0
		},
	},
	{
		name:   "daily_limit",
		reason: ReasonDailyLimitExceeded,
		blocked: func(rc *ruleContext) bool {
			return rc.dailyCount >= rc.cfg.DailyLimit
		},
	},
	{
		name:   "weekly_limit",
		reason: ReasonWeeklyLimitExceeded,
		blocked: func(rc *ruleContext) bool {
			return rc.weeklyCount >= rc.cfg.WeeklyLimit
		},
	},
}

// evaluate runs the chain with short-circuit semantics and returns
// the failing rule, or ok=true when every rule passes.
func evaluate(rc *ruleContext) (failed rule, ok bool) {
	for _, r := range chain {
		if r.blocked(rc) {
			return r, false
		}
	}
	return rule{}, true
}

// dayStart returns the beginning of the local calendar day containing t.
func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
