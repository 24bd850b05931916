package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/gym-operations/internal/model"
)

// EnrollmentRepo manages persistence for enrollments.  All writes run
// inside the coordinator's per-session transaction together with the
// enrolled_count adjustment on the session row.
type EnrollmentRepo struct {
	db *sql.DB
}

// NewEnrollmentRepo returns a new EnrollmentRepo bound to the
// provided database.
func NewEnrollmentRepo(db *sql.DB) *EnrollmentRepo { return &EnrollmentRepo{db: db} }

// CreateTx inserts a REGISTERED enrollment inside the caller's
// transaction and fills in the generated ID.
func (r *EnrollmentRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.Enrollment) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO enrollments (session_id, member_id, status, created_at) VALUES (?, ?, ?, ?)`,
		e.SessionID, e.MemberID, e.Status, e.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ActiveExistsTx reports whether the member already holds a
// REGISTERED enrollment for the session, inside the caller's
// transaction.
func (r *EnrollmentRepo) ActiveExistsTx(ctx context.Context, tx *sql.Tx, sessionID, memberID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM enrollments WHERE session_id = ? AND member_id = ? AND status = ? LIMIT 1`,
		sessionID, memberID, model.EnrollmentRegistered).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CancelTx marks the member's REGISTERED enrollment for the session
// as CANCELED inside the caller's transaction.  Returns
// ErrNoActiveEnrollment when there is nothing to cancel, which also
// makes double cancellation a clean conflict instead of a silent
// second decrement.
func (r *EnrollmentRepo) CancelTx(ctx context.Context, tx *sql.Tx, sessionID, memberID uint64, reason *string, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE enrollments SET status = ?, cancel_reason = ?, canceled_at = ?
		 WHERE session_id = ? AND member_id = ? AND status = ?`,
		model.EnrollmentCanceled, reason, now, sessionID, memberID, model.EnrollmentRegistered)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoActiveEnrollment
	}
	return nil
}

// ListBySession returns all enrollments for a session, active first.
func (r *EnrollmentRepo) ListBySession(ctx context.Context, sessionID uint64) ([]model.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, member_id, status, cancel_reason, canceled_at, created_at
		 FROM enrollments WHERE session_id = ? ORDER BY status, created_at`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.ID, &e.SessionID, &e.MemberID, &e.Status, &e.CancelReason, &e.CanceledAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
