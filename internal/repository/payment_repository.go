package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/gym-operations/internal/model"
)

// PaymentRepo manages persistence for payments.  Besides plain CRUD it
// answers the two financial questions the admission rule chain asks:
// how much outstanding debt a member carries, and whether a failed
// payment is still unresolved.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the provided database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a payment and fills in the generated ID.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (subscription_id, amount_cents, status, reference, paid_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.SubscriptionID, p.AmountCents, p.Status, p.Reference, p.PaidAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// OutstandingDebtTx sums the member's unpaid obligations inside the
// caller's transaction: every PENDING payment across all of the
// member's subscriptions counts as debt until it is settled or
// refunded.
func (r *PaymentRepo) OutstandingDebtTx(ctx context.Context, tx *sql.Tx, memberID uint64) (int64, error) {
	var debt int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(p.amount_cents), 0)
		 FROM payments p
		 JOIN subscriptions s ON s.id = p.subscription_id
		 WHERE s.member_id = ? AND p.status = ?`,
		memberID, model.PaymentPending).Scan(&debt)
	return debt, err
}

// HasUnresolvedFailureTx reports whether the member has a FAILED
// payment more recent than their last PAID one, inside the caller's
// transaction.  A failure that was followed by a successful payment
// is considered resolved and does not block admission.
func (r *PaymentRepo) HasUnresolvedFailureTx(ctx context.Context, tx *sql.Tx, memberID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*)
		 FROM payments p
		 JOIN subscriptions s ON s.id = p.subscription_id
		 WHERE s.member_id = ? AND p.status = ?
		   AND p.created_at > COALESCE((
		       SELECT MAX(p2.created_at)
		       FROM payments p2
		       JOIN subscriptions s2 ON s2.id = p2.subscription_id
		       WHERE s2.member_id = ? AND p2.status = ?
		   ), '1970-01-01')`,
		memberID, model.PaymentFailed, memberID, model.PaymentPaid).Scan(&n)
	return n > 0, err
}

// MarkPaid settles a pending payment.
func (r *PaymentRepo) MarkPaid(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, paid_at = NOW() WHERE id = ? AND status = ?`,
		model.PaymentPaid, id, model.PaymentPending)
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

// FinancialSummary aggregates revenue and debt figures for reporting.
type FinancialSummary struct {
	PaidRevenueCents     int64 `json:"paid_revenue_cents"`
	OutstandingDebtCents int64 `json:"outstanding_debt_cents"`
	FailedPayments       int64 `json:"failed_payments"`
	RefundedCents        int64 `json:"refunded_cents"`
}

// Summary computes the facility-wide financial summary in a single
// aggregation pass over the payments table.
func (r *PaymentRepo) Summary(ctx context.Context) (FinancialSummary, error) {
	var out FinancialSummary
	err := r.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN status = ? THEN amount_cents ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN status = ? THEN amount_cents ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN status = ? THEN amount_cents ELSE 0 END), 0)
		 FROM payments`,
		model.PaymentPaid, model.PaymentPending, model.PaymentFailed, model.PaymentRefunded).
		Scan(&out.PaidRevenueCents, &out.OutstandingDebtCents, &out.FailedPayments, &out.RefundedCents)
	return out, err
}
