package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/gym-operations/internal/model"
)

// CheckinRepo manages the immutable check-in audit trail.  The same
// table backs the usage ledger: daily and weekly entry counts are
// derived by counting approved rows inside the admission
// transaction, so the ledger can never diverge from the audit trail.
type CheckinRepo struct {
	db *sql.DB
}

// NewCheckinRepo returns a new CheckinRepo bound to the provided database.
func NewCheckinRepo(db *sql.DB) *CheckinRepo { return &CheckinRepo{db: db} }

// InsertTx appends a check-in record inside the caller's transaction.
// Rows are never updated or deleted afterwards.
func (r *CheckinRepo) InsertTx(ctx context.Context, tx *sql.Tx, c *model.Checkin) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO checkins (member_id, result, reason, rule, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.MemberID, c.Result, c.Reason, c.Rule, c.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// CountApprovedTx counts a member's approved check-ins in the window
// [from, to], inside the caller's transaction.  The admission engine
// calls this twice per evaluation: once with the calendar-day window
// and once with the rolling weekly window ending at the evaluation
// time.
func (r *CheckinRepo) CountApprovedTx(ctx context.Context, tx *sql.Tx, memberID uint64, from, to time.Time) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM checkins
		 WHERE member_id = ? AND result = ? AND created_at >= ? AND created_at <= ?`,
		memberID, model.CheckinApproved, from, to).Scan(&n)
	return n, err
}

// HistoryByMember returns a member's check-in records, newest first,
// capped at limit rows.
func (r *CheckinRepo) HistoryByMember(ctx context.Context, memberID uint64, limit int) ([]model.Checkin, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, member_id, result, reason, rule, created_at
		 FROM checkins WHERE member_id = ? ORDER BY created_at DESC LIMIT ?`,
		memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Checkin
	for rows.Next() {
		var c model.Checkin
		if err := rows.Scan(&c.ID, &c.MemberID, &c.Result, &c.Reason, &c.Rule, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
