package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/gym-operations/internal/model"
)

// SubscriptionRepo manages persistence for subscriptions.  The
// admission engine reads the current subscription under a row lock
// (SELECT ... FOR UPDATE) so concurrent check-ins for the same member
// cannot both observe and spend the last remaining entry.
type SubscriptionRepo struct {
	db *sql.DB
}

// NewSubscriptionRepo returns a new SubscriptionRepo bound to the
// provided database.
func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

const subCols = `s.id, s.member_id, s.plan_id, s.status, s.starts_at, s.expires_at,
	s.frozen_until, s.remaining_entries, s.created_at, s.updated_at`

func scanSubscription(row interface{ Scan(...any) error }, s *model.Subscription) error {
	return row.Scan(&s.ID, &s.MemberID, &s.PlanID, &s.Status, &s.StartsAt, &s.ExpiresAt,
		&s.FrozenUntil, &s.RemainingEntries, &s.CreatedAt, &s.UpdatedAt)
}

// Create inserts a subscription and fills in the generated ID.
func (r *SubscriptionRepo) Create(ctx context.Context, s *model.Subscription) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (member_id, plan_id, status, starts_at, expires_at, frozen_until, remaining_entries)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.MemberID, s.PlanID, s.Status, s.StartsAt, s.ExpiresAt, s.FrozenUntil, s.RemainingEntries)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID fetches a subscription by id.
func (r *SubscriptionRepo) GetByID(ctx context.Context, id uint64) (model.Subscription, error) {
	var s model.Subscription
	err := scanSubscription(r.db.QueryRowContext(ctx,
		`SELECT `+subCols+` FROM subscriptions s WHERE s.id = ?`, id), &s)
	if err == sql.ErrNoRows {
		return model.Subscription{}, ErrSubscriptionNotFound
	}
	return s, err
}

// CurrentByMemberTx loads the member's most recent non-canceled
// subscription together with its plan type, locking the subscription
// row for the duration of the caller's transaction.  Returns
// ErrSubscriptionNotFound when the member has never subscribed or all
// subscriptions are canceled.  Expiry and freeze are NOT filtered
// here: the admission rule chain derives them from the row against
// the evaluation time so the denial reason stays precise.
func (r *SubscriptionRepo) CurrentByMemberTx(ctx context.Context, tx *sql.Tx, memberID uint64) (model.Subscription, string, error) {
	var (
		s        model.Subscription
		planType string
	)
	err := tx.QueryRowContext(ctx,
		`SELECT `+subCols+`, p.plan_type
		 FROM subscriptions s
		 JOIN plans p ON p.id = s.plan_id
		 WHERE s.member_id = ? AND s.status <> ?
		 ORDER BY s.expires_at DESC
		 LIMIT 1
		 FOR UPDATE`,
		memberID, model.SubscriptionCanceled).
		Scan(&s.ID, &s.MemberID, &s.PlanID, &s.Status, &s.StartsAt, &s.ExpiresAt,
			&s.FrozenUntil, &s.RemainingEntries, &s.CreatedAt, &s.UpdatedAt, &planType)
	if err == sql.ErrNoRows {
		return model.Subscription{}, "", ErrSubscriptionNotFound
	}
	return s, planType, err
}

// CurrentPlanTypeTx returns the plan type of the member's most recent
// non-canceled subscription, inside the caller's transaction.  The
// waitlist coordinator uses it so the priority tier is derived from
// the same snapshot as the rest of the join.
func (r *SubscriptionRepo) CurrentPlanTypeTx(ctx context.Context, tx *sql.Tx, memberID uint64) (string, error) {
	var planType string
	err := tx.QueryRowContext(ctx,
		`SELECT p.plan_type
		 FROM subscriptions s
		 JOIN plans p ON p.id = s.plan_id
		 WHERE s.member_id = ? AND s.status <> ?
		 ORDER BY s.expires_at DESC
		 LIMIT 1`,
		memberID, model.SubscriptionCanceled).Scan(&planType)
	if err == sql.ErrNoRows {
		return "", ErrSubscriptionNotFound
	}
	return planType, err
}

// DecrementEntriesTx spends one entry from a punch-card subscription
// inside the caller's transaction.  The guard on remaining_entries
// keeps the counter from ever dipping below zero even if callers
// race.
func (r *SubscriptionRepo) DecrementEntriesTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE subscriptions SET remaining_entries = remaining_entries - 1
		 WHERE id = ? AND remaining_entries IS NOT NULL AND remaining_entries > 0`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// Freeze sets the freeze window end on a subscription.  Passing a
// time in the past effectively unfreezes it.
func (r *SubscriptionRepo) Freeze(ctx context.Context, id uint64, until time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET frozen_until = ? WHERE id = ?`, until, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// ListByMember returns all subscriptions for a member, newest first.
func (r *SubscriptionRepo) ListByMember(ctx context.Context, memberID uint64) ([]model.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subCols+` FROM subscriptions s WHERE s.member_id = ? ORDER BY s.starts_at DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Subscription
	for rows.Next() {
		var s model.Subscription
		if err := scanSubscription(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
