package admission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/gym-operations/internal/config"
	"github.com/iliyamo/gym-operations/internal/lock"
	"github.com/iliyamo/gym-operations/internal/model"
	"github.com/iliyamo/gym-operations/internal/queue"
	"github.com/iliyamo/gym-operations/internal/repository"
)

// Engine evaluates check-in attempts.  One Engine instance serves all
// reception terminals; attempts for the same member are serialized
// through the keyed lock so the usage ledger and the entry counter
// are never double-spent by concurrent swipes.
type Engine struct {
	db       *sql.DB
	members  *repository.MemberRepo
	subs     *repository.SubscriptionRepo
	payments *repository.PaymentRepo
	checkins *repository.CheckinRepo
	locks    *lock.Keyed
	cfg      config.AdmissionConfig

	// publish, when non-nil, emits the audit event after a successful
	// commit.  Publishing is best-effort; the durable audit row is the
	// hard requirement, the event feeds notifications and analytics.
	publish func(ctx context.Context, ev queue.CheckinRecordedEvent)
}

// NewEngine constructs an admission engine over the given
// repositories.  All repositories must be bound to the same database
// pool as db.
func NewEngine(
	db *sql.DB,
	members *repository.MemberRepo,
	subs *repository.SubscriptionRepo,
	payments *repository.PaymentRepo,
	checkins *repository.CheckinRepo,
	locks *lock.Keyed,
	cfg config.AdmissionConfig,
) *Engine {
	if db == nil || members == nil || subs == nil || payments == nil || checkins == nil || locks == nil {
		panic("nil dependency passed to admission.NewEngine")
	}
	return &Engine{
		db:       db,
		members:  members,
		subs:     subs,
		payments: payments,
		checkins: checkins,
		locks:    locks,
		cfg:      cfg,
	}
}

// SetPublisher wires the post-commit event sink.  Called once during
// startup; not safe to call while Evaluate is running.
func (e *Engine) SetPublisher(fn func(ctx context.Context, ev queue.CheckinRecordedEvent)) {
	e.publish = fn
}

// Evaluate decides whether the member may enter the facility at
// `now`.  Every attempt, approved or denied, is committed as an
// immutable checkin row before the verdict is returned; on approval
// the entry decrement commits in the same transaction, so the audit
// trail, the usage ledger and the subscription counter can never
// drift apart.  An unknown member returns ErrMemberNotFound without
// writing anything.
func (e *Engine) Evaluate(ctx context.Context, memberID uint64, now time.Time) (*model.Checkin, error) {
	key := fmt.Sprintf("member:%d", memberID)
	e.locks.Lock(key)
	defer e.locks.Unlock(key)

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin admission tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	exists, err := e.members.ExistsTx(ctx, tx, memberID)
	if err != nil {
		return nil, fmt.Errorf("lookup member: %w", err)
	}
	if !exists {
		return nil, repository.ErrMemberNotFound
	}

	rc, err := e.buildContext(ctx, tx, memberID, now)
	if err != nil {
		return nil, err
	}

	rec := &model.Checkin{MemberID: memberID, CreatedAt: now}
	failed, ok := evaluate(rc)
	if ok {
		rec.Result = model.CheckinApproved
		if rc.sub.RemainingEntries != nil {
			if err := e.subs.DecrementEntriesTx(ctx, tx, rc.sub.ID); err != nil {
				return nil, fmt.Errorf("decrement entries: %w", err)
			}
		}
	} else {
		rec.Result = model.CheckinDenied
		reason, name := failed.reason, failed.name
		rec.Reason, rec.Rule = &reason, &name
	}

	if err := e.checkins.InsertTx(ctx, tx, rec); err != nil {
		return nil, fmt.Errorf("append checkin record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit admission tx: %w", err)
	}
	committed = true

	e.emit(ctx, rec)
	return rec, nil
}

// buildContext assembles the rule evaluation snapshot inside the
// admission transaction.  Financial and usage lookups are skipped
// when the member has no current subscription — rule one already
// decides that case.
func (e *Engine) buildContext(ctx context.Context, tx *sql.Tx, memberID uint64, now time.Time) (*ruleContext, error) {
	rc := &ruleContext{now: now, cfg: e.cfg}

	sub, _, err := e.subs.CurrentByMemberTx(ctx, tx, memberID)
	switch {
	case errors.Is(err, repository.ErrSubscriptionNotFound):
		return rc, nil
	case err != nil:
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	rc.sub = &sub

	if rc.debtCents, err = e.payments.OutstandingDebtTx(ctx, tx, memberID); err != nil {
		return nil, fmt.Errorf("sum outstanding debt: %w", err)
	}
	if rc.failedOwing, err = e.payments.HasUnresolvedFailureTx(ctx, tx, memberID); err != nil {
		return nil, fmt.Errorf("check failed payments: %w", err)
	}

	if rc.dailyCount, err = e.checkins.CountApprovedTx(ctx, tx, memberID, dayStart(now), now); err != nil {
		return nil, fmt.Errorf("count daily checkins: %w", err)
	}
	if rc.weeklyCount, err = e.checkins.CountApprovedTx(ctx, tx, memberID, now.Add(-e.cfg.WeeklyWindow), now); err != nil {
		return nil, fmt.Errorf("count weekly checkins: %w", err)
	}
	return rc, nil
}

func (e *Engine) emit(ctx context.Context, rec *model.Checkin) {
	if e.publish == nil {
		return
	}
	ev := queue.CheckinRecordedEvent{
		CheckinID: rec.ID,
		MemberID:  rec.MemberID,
		Result:    rec.Result,
		At:        rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if rec.Reason != nil {
		ev.Reason = *rec.Reason
	}
	if rec.Rule != nil {
		ev.Rule = *rec.Rule
	}
	e.publish(ctx, ev)
}
