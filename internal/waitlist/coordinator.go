// Package waitlist implements session enrollment and the waitlist
// promotion cycle for full sessions.
package waitlist

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

// Coordinator owns the lifecycle of session enrollments and waitlist
// entries.  All state transitions for a given session run under that
// session's keyed lock and inside a single transaction, so a freed
// slot is either handed to exactly one promoted entry or returned to
// open capacity — never both, never twice.
type Coordinator struct {
	db          *sql.DB
	sessions    *repository.SessionRepo
	enrollments *repository.EnrollmentRepo
	entries     *repository.WaitlistRepo
	subs        *repository.SubscriptionRepo
	locks       *lock.Keyed
	cfg         config.WaitlistConfig

	// publish, when non-nil, emits the promotion event after a
	// successful commit so a notification worker can reach the member.
	publish func(ctx context.Context, ev queue.WaitlistPromotedEvent)
}

// NewCoordinator constructs a waitlist coordinator over the given
// repositories.  All repositories must be bound to the same database
// pool as db.
func NewCoordinator(
	db *sql.DB,
	sessions *repository.SessionRepo,
	enrollments *repository.EnrollmentRepo,
	entries *repository.WaitlistRepo,
	subs *repository.SubscriptionRepo,
	locks *lock.Keyed,
	cfg config.WaitlistConfig,
) *Coordinator {
	if db == nil || sessions == nil || enrollments == nil || entries == nil || subs == nil || locks == nil {
		panic("nil dependency passed to waitlist.NewCoordinator")
	}
	return &Coordinator{
		db:          db,
		sessions:    sessions,
		enrollments: enrollments,
		entries:     entries,
		subs:        subs,
		locks:       locks,
		cfg:         cfg,
	}
}

// SetPublisher wires the post-commit event sink.  Called once during
// startup; not safe to call while the coordinator is serving requests.
func (c *Coordinator) SetPublisher(fn func(ctx context.Context, ev queue.WaitlistPromotedEvent)) {
	c.publish = fn
}

// EnrollResult reports what a member's enrollment attempt produced:
// either a direct enrollment or a waitlist entry with its queue
// position.
type EnrollResult struct {
	Enrolled   bool
	Entry      *model.WaitlistEntry
	Position   int
	QueueAhead int // entries that will be promoted before this one
}

// Enroll registers the member into the session, or joins the waitlist
// when the session is full.  Returns ErrSessionClosed for closed
// sessions, ErrAlreadyEnrolled when the member already holds an
// active enrollment, and ErrAlreadyWaitlisted when the member already
// queues for this session.
func (c *Coordinator) Enroll(ctx context.Context, sessionID, memberID uint64, now time.Time) (*EnrollResult, error) {
	key := sessionKey(sessionID)
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enroll tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sess, err := c.sessions.GetByIDTx(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != model.SessionOpen {
		return nil, repository.ErrSessionClosed
	}

	active, err := c.enrollments.ActiveExistsTx(ctx, tx, sessionID, memberID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if active {
		return nil, repository.ErrAlreadyEnrolled
	}

	// A slot freed for an in-flight promotion is reserved: walk-ins
	// queue behind it instead of stealing it.
	reserved, err := c.entries.HasAssignedTx(ctx, tx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("check assigned entry: %w", err)
	}

	if sess.Full() || reserved {
		entry, pos, err := c.joinTx(ctx, tx, &sess, reserved, memberID, now)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit waitlist join: %w", err)
		}
		committed = true
		return &EnrollResult{Entry: entry, Position: pos, QueueAhead: pos - 1}, nil
	}

	enr := &model.Enrollment{SessionID: sessionID, MemberID: memberID, Status: model.EnrollmentRegistered, CreatedAt: now}
	if err := c.enrollments.CreateTx(ctx, tx, enr); err != nil {
		return nil, fmt.Errorf("create enrollment: %w", err)
	}
	if err := c.sessions.AdjustEnrolledTx(ctx, tx, sessionID, +1); err != nil {
		return nil, fmt.Errorf("take slot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enrollment: %w", err)
	}
	committed = true
	return &EnrollResult{Enrolled: true}, nil
}

// joinTx appends the member to the session's waitlist inside the
// caller's transaction.  The tier is fixed at join time from the
// member's current plan; plan changes later do not reorder the queue.
func (c *Coordinator) joinTx(ctx context.Context, tx *sql.Tx, sess *model.ClassSession, reserved bool, memberID uint64, now time.Time) (*model.WaitlistEntry, int, error) {
	if !sess.Full() && !reserved {
		return nil, 0, repository.ErrSessionNotFull
	}

	queued, err := c.entries.ActiveExistsTx(ctx, tx, sess.ID, memberID)
	if err != nil {
		return nil, 0, fmt.Errorf("check waitlist: %w", err)
	}
	if queued {
		return nil, 0, repository.ErrAlreadyWaitlisted
	}

	tier := model.TierStandard
	planType, err := c.subs.CurrentPlanTypeTx(ctx, tx, memberID)
	switch {
	case errors.Is(err, repository.ErrSubscriptionNotFound):
		// no current subscription still queues as STANDARD
	case err != nil:
		return nil, 0, fmt.Errorf("resolve tier: %w", err)
	case planType == model.PlanVIP:
		tier = model.TierVIP
	}

	entry := &model.WaitlistEntry{
		SessionID: sess.ID,
		MemberID:  memberID,
		Tier:      tier,
		Status:    model.WaitlistWaiting,
		JoinedAt:  now,
	}
	if err := c.entries.CreateTx(ctx, tx, entry); err != nil {
		return nil, 0, fmt.Errorf("create waitlist entry: %w", err)
	}
	pos, err := c.entries.PositionTx(ctx, tx, entry)
	if err != nil {
		return nil, 0, fmt.Errorf("compute position: %w", err)
	}
	return entry, pos, nil
}

// CancelEnrollment releases the member's slot and immediately runs
// the promotion cycle on the freed capacity, all in one transaction.
// Returns ErrNoActiveEnrollment when the member holds no REGISTERED
// enrollment for the session.
func (c *Coordinator) CancelEnrollment(ctx context.Context, sessionID, memberID uint64, reason *string, now time.Time) error {
	key := sessionKey(sessionID)
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cancel tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := c.enrollments.CancelTx(ctx, tx, sessionID, memberID, reason, now); err != nil {
		return err
	}
	if err := c.sessions.AdjustEnrolledTx(ctx, tx, sessionID, -1); err != nil {
		return fmt.Errorf("release slot: %w", err)
	}

	promoted, err := c.promoteNextTx(ctx, tx, sessionID, now)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cancellation: %w", err)
	}
	committed = true

	c.emitPromoted(ctx, promoted, now)
	return nil
}

// Confirm converts the member's ASSIGNED entry into a REGISTERED
// enrollment.  A confirmation arriving after the deadline expires the
// entry, promotes the next waiting member, and returns
// ErrDeadlineExpired; the state transition is a compare-and-set so a
// racing sweep can never double-resolve the entry.
func (c *Coordinator) Confirm(ctx context.Context, entryID, memberID uint64, now time.Time) error {
	entry, err := c.entries.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.MemberID != memberID {
		return repository.ErrEntryNotFound
	}

	key := sessionKey(entry.SessionID)
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin confirm tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Re-read under the lock; the snapshot above may be stale.
	entry, err = c.entries.GetByIDTx(ctx, tx, entryID)
	if err != nil {
		return err
	}
	if entry.Status != model.WaitlistAssigned {
		return repository.ErrNotPromoted
	}

	// The window is half-open: a confirmation at the deadline instant
	// is already late, matching the sweep's deadline <= now predicate.
	if entry.Deadline != nil && !now.Before(*entry.Deadline) {
		// Too late: resolve the entry and hand the slot onward.
		if err := c.entries.ExpireTx(ctx, tx, entryID, now); err != nil {
			return err
		}
		promoted, err := c.promoteNextTx(ctx, tx, entry.SessionID, now)
		if err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit late confirmation: %w", err)
		}
		committed = true
		c.emitPromoted(ctx, promoted, now)
		return repository.ErrDeadlineExpired
	}

	if err := c.entries.ConfirmTx(ctx, tx, entryID, now); err != nil {
		return err
	}
	enr := &model.Enrollment{SessionID: entry.SessionID, MemberID: memberID, Status: model.EnrollmentRegistered, CreatedAt: now}
	if err := c.enrollments.CreateTx(ctx, tx, enr); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	if err := c.sessions.AdjustEnrolledTx(ctx, tx, entry.SessionID, +1); err != nil {
		return fmt.Errorf("take reserved slot: %w", err)
	}

	// More than one slot may have been freed while this promotion was
	// in flight; hand any remaining capacity to the next waiter.
	promoted, err := c.promoteNextTx(ctx, tx, entry.SessionID, now)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit confirmation: %w", err)
	}
	committed = true

	c.emitPromoted(ctx, promoted, now)
	return nil
}

// Withdraw removes the member's WAITING entry from the queue.  An
// ASSIGNED entry cannot be withdrawn — the member either confirms or
// lets the deadline expire.  Returns ErrNotWaiting when the entry is
// not in the WAITING state.
func (c *Coordinator) Withdraw(ctx context.Context, entryID, memberID uint64, now time.Time) error {
	entry, err := c.entries.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.MemberID != memberID {
		return repository.ErrEntryNotFound
	}

	key := sessionKey(entry.SessionID)
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin withdraw tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := c.entries.WithdrawTx(ctx, tx, entryID, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit withdrawal: %w", err)
	}
	committed = true
	return nil
}

// ExpireOverdue resolves every ASSIGNED entry whose deadline has
// passed and promotes the next waiting member for each freed slot.
// It is the reconciliation half of the deadline mechanism: run
// periodically and once at startup, it guarantees overdue
// reservations are resolved even across process restarts.  Returns
// the number of entries expired.
func (c *Coordinator) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	overdue, err := c.entries.OverdueAssigned(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list overdue entries: %w", err)
	}

	expired := 0
	for i := range overdue {
		ok, err := c.expireOne(ctx, &overdue[i], now)
		if err != nil {
			return expired, err
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

// expireOne expires a single overdue entry under its session lock.
// A false return with nil error means the entry was resolved by a
// concurrent confirmation or an earlier sweep; the slot is not
// touched in that case.
func (c *Coordinator) expireOne(ctx context.Context, entry *model.WaitlistEntry, now time.Time) (bool, error) {
	key := sessionKey(entry.SessionID)
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin expire tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := c.entries.ExpireTx(ctx, tx, entry.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotPromoted) {
			return false, nil // lost the race, nothing to do
		}
		return false, err
	}
	promoted, err := c.promoteNextTx(ctx, tx, entry.SessionID, now)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit expiry: %w", err)
	}
	committed = true

	c.emitPromoted(ctx, promoted, now)
	return true, nil
}

// promoteNextTx hands a free slot to the head of the queue, if any.
// The promoted entry holds the slot reserved until it is confirmed
// (enrolled_count stays below capacity meanwhile); when the queue is
// empty the capacity simply remains open.  At most one entry per
// session is ASSIGNED at a time, guarded by HasAssignedTx under the
// session lock.
func (c *Coordinator) promoteNextTx(ctx context.Context, tx *sql.Tx, sessionID uint64, now time.Time) (*model.WaitlistEntry, error) {
	sess, err := c.sessions.GetByIDTx(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Full() {
		return nil, nil
	}
	held, err := c.entries.HasAssignedTx(ctx, tx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("check assigned entry: %w", err)
	}
	if held {
		return nil, nil
	}

	next, err := c.entries.NextWaitingTx(ctx, tx, sessionID)
	switch {
	case errors.Is(err, repository.ErrEntryNotFound):
		return nil, nil // queue drained
	case err != nil:
		return nil, fmt.Errorf("pick next waiting: %w", err)
	}

	deadline := now.Add(c.cfg.ConfirmWindow)
	if err := c.entries.PromoteTx(ctx, tx, next.ID, now, deadline); err != nil {
		return nil, fmt.Errorf("promote entry: %w", err)
	}
	next.Status = model.WaitlistAssigned
	next.AssignedAt = &now
	next.Deadline = &deadline
	return &next, nil
}

func (c *Coordinator) emitPromoted(ctx context.Context, entry *model.WaitlistEntry, now time.Time) {
	if c.publish == nil || entry == nil {
		return
	}
	ev := queue.WaitlistPromotedEvent{
		EntryID:   entry.ID,
		SessionID: entry.SessionID,
		MemberID:  entry.MemberID,
		Tier:      entry.Tier,
		At:        now.UTC().Format(time.RFC3339),
	}
	if entry.Deadline != nil {
		ev.Deadline = entry.Deadline.UTC().Format(time.RFC3339)
	}
	c.publish(ctx, ev)
}

func sessionKey(id uint64) string { return fmt.Sprintf("session:%d", id) }
