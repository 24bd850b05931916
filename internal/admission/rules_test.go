package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gym-operations/internal/config"
	"github.com/iliyamo/gym-operations/internal/model"
)

func testAdmissionConfig() config.AdmissionConfig {
	return config.AdmissionConfig{DailyLimit: 3, WeeklyLimit: 15, WeeklyWindow: 7 * 24 * time.Hour}
}

func intPtr(n int) *int { return &n }

// healthyContext returns a context that passes every rule.
func healthyContext(now time.Time) *ruleContext {
	return &ruleContext{
		now: now,
		sub: &model.Subscription{
			ID:               1,
			MemberID:         7,
			Status:           model.SubscriptionActive,
			ExpiresAt:        now.Add(30 * 24 * time.Hour),
			RemainingEntries: intPtr(5),
		},
		cfg: testAdmissionConfig(),
	}
}

func TestEvaluateApprovesHealthyMember(t *testing.T) {
	_, ok := evaluate(healthyContext(time.Now().UTC()))
	assert.True(t, ok)
}

func TestEvaluateNoSubscription(t *testing.T) {
	now := time.Now().UTC()
	rc := &ruleContext{now: now, cfg: testAdmissionConfig()}

	failed, ok := evaluate(rc)
	require.False(t, ok)
	assert.Equal(t, ReasonSubscriptionExpired, failed.reason)
	assert.Equal(t, "subscription_valid", failed.name)
}

func TestEvaluateExpiredWinsOverEverything(t *testing.T) {
	now := time.Now().UTC()
	frozen := now.Add(48 * time.Hour)
	rc := healthyContext(now)
	rc.sub.ExpiresAt = now.Add(-time.Hour)
	rc.sub.FrozenUntil = &frozen
	rc.debtCents = 5000
	rc.failedOwing = true
	rc.sub.RemainingEntries = intPtr(0)
	rc.dailyCount = 99
	rc.weeklyCount = 99

	failed, ok := evaluate(rc)
	require.False(t, ok)
	assert.Equal(t, ReasonSubscriptionExpired, failed.reason)
}

func TestEvaluateExpiryBoundaryIsInclusive(t *testing.T) {
	now := time.Now().UTC()
	rc := healthyContext(now)
	rc.sub.ExpiresAt = now // expires exactly now -> expired

	failed, ok := evaluate(rc)
	require.False(t, ok)
	assert.Equal(t, ReasonSubscriptionExpired, failed.reason)
}

func TestEvaluateFrozenBeforeDebt(t *testing.T) {
	now := time.Now().UTC()
	frozen := now.Add(24 * time.Hour)
	rc := healthyContext(now)
	rc.sub.FrozenUntil = &frozen
	rc.debtCents = 5000

	failed, ok := evaluate(rc)
	require.False(t, ok)
	assert.Equal(t, ReasonSubscriptionFrozen, failed.reason)
}

func TestEvaluateLapsedFreezeDoesNotBlock(t *testing.T) {
	now := time.Now().UTC()
	frozen := now.Add(-time.Minute)
	rc := healthyContext(now)
	rc.sub.FrozenUntil = &frozen

	_, ok := evaluate(rc)
	assert.True(t, ok)
}

func TestEvaluateOutstandingDebt(t *testing.T) {
	rc := healthyContext(time.Now().UTC())
	rc.debtCents = 1

	failed, ok := evaluate(rc)
	require.False(t, ok)
	assert.Equal(t, ReasonOutstandingDebt, failed.reason)
}

func TestEvaluateUnresolvedFailedPayment(t *testing.T) {
	rc := healthyContext(time.Now().UTC())
	rc.failedOwing = true

	failed, ok := evaluate(rc)
	require.False(t, ok)
	assert.Equal(t, ReasonPaymentFailed, failed.reason)
}

func TestEvaluateNoEntriesRemaining(t *testing.T) {
	rc := healthyContext(time.Now().UTC())
	rc.sub.RemainingEntries = intPtr(0)

	failed, ok := evaluate(rc)
	require.False(t, ok)
	assert.Equal(t, ReasonNoEntriesRemaining, failed.reason)
}

func TestEvaluateNilEntriesMeansUnlimited(t *testing.T) {
	rc := healthyContext(time.Now().UTC())
	rc.sub.RemainingEntries = nil
	rc.dailyCount = 2 // below limit

	_, ok := evaluate(rc)
	assert.True(t, ok)
}

func TestEvaluateDailyLimit(t *testing.T) {
	rc := healthyContext(time.Now().UTC())
	rc.dailyCount = 3

	failed, ok := evaluate(rc)
	require.False(t, ok)
	assert.Equal(t, ReasonDailyLimitExceeded, failed.reason)
	assert.Equal(t, "daily_limit", failed.name)
}

func TestEvaluateWeeklyLimit(t *testing.T) {
	rc := healthyContext(time.Now().UTC())
	rc.dailyCount = 2
	rc.weeklyCount = 15

	failed, ok := evaluate(rc)
	require.False(t, ok)
	assert.Equal(t, ReasonWeeklyLimitExceeded, failed.reason)
}

func TestChainOrderIsFixed(t *testing.T) {
	want := []string{
		"subscription_valid",
		"subscription_not_frozen",
		"no_outstanding_debt",
		"no_unresolved_failed_payment",
		"entries_remaining",
		"daily_limit",
		"weekly_limit",
	}
	require.Len(t, chain, len(want))
	for i, r := range chain {
		assert.Equal(t, want[i], r.name)
	}
}

func TestDayStart(t *testing.T) {
	loc := time.FixedZone("test", 3*60*60)
	at := time.Date(2025, 3, 14, 23, 59, 59, 0, loc)
	start := dayStart(at)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, loc), start)
}
