package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/gym-operations/internal/model"
)

// WaitlistRepo manages persistence for waitlist entries.  State
// transitions are single-statement compare-and-set UPDATEs guarded on
// the current status; the rows-affected count tells the caller
// whether it won the transition.  This is what resolves the
// confirm-versus-expire race without relying on timer cancellation.
type WaitlistRepo struct {
	db *sql.DB
}

// NewWaitlistRepo returns a new WaitlistRepo bound to the provided database.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

const entryCols = `id, session_id, member_id, tier, status, joined_at, assigned_at, deadline, confirmed_at, resolved_at`

func scanEntry(row interface{ Scan(...any) error }) (model.WaitlistEntry, error) {
	var e model.WaitlistEntry
	err := row.Scan(&e.ID, &e.SessionID, &e.MemberID, &e.Tier, &e.Status,
		&e.JoinedAt, &e.AssignedAt, &e.Deadline, &e.ConfirmedAt, &e.ResolvedAt)
	return e, err
}

// CreateTx inserts a WAITING entry inside the caller's transaction
// and fills in the generated ID.
func (r *WaitlistRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.WaitlistEntry) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO waitlist_entries (session_id, member_id, tier, status, joined_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.SessionID, e.MemberID, e.Tier, e.Status, e.JoinedAt)
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

// GetByID fetches an entry by id without locking.
func (r *WaitlistRepo) GetByID(ctx context.Context, id uint64) (model.WaitlistEntry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx,
		`SELECT `+entryCols+` FROM waitlist_entries WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return model.WaitlistEntry{}, ErrEntryNotFound
	}
	return e, err
}

// GetByIDTx fetches an entry with a row lock inside the caller's
// transaction.
func (r *WaitlistRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.WaitlistEntry, error) {
	e, err := scanEntry(tx.QueryRowContext(ctx,
		`SELECT `+entryCols+` FROM waitlist_entries WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return model.WaitlistEntry{}, ErrEntryNotFound
	}
	return e, err
}

// ActiveExistsTx reports whether the member already holds a WAITING
// or ASSIGNED entry for the session, inside the caller's transaction.
// This is the idempotency guard behind ErrAlreadyWaitlisted.
func (r *WaitlistRepo) ActiveExistsTx(ctx context.Context, tx *sql.Tx, sessionID, memberID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM waitlist_entries
		 WHERE session_id = ? AND member_id = ? AND status IN (?, ?) LIMIT 1`,
		sessionID, memberID, model.WaitlistWaiting, model.WaitlistAssigned).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// HasAssignedTx reports whether a promotion cycle is already in
// flight for the session (one entry ASSIGNED), inside the caller's
// transaction.
func (r *WaitlistRepo) HasAssignedTx(ctx context.Context, tx *sql.Tx, sessionID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM waitlist_entries WHERE session_id = ? AND status = ? LIMIT 1`,
		sessionID, model.WaitlistAssigned).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NextWaitingTx selects the highest-priority WAITING entry for the
// session inside the caller's transaction: VIP tier before STANDARD,
// then strict FIFO on join time.  Returns ErrEntryNotFound when the
// queue is empty.
func (r *WaitlistRepo) NextWaitingTx(ctx context.Context, tx *sql.Tx, sessionID uint64) (model.WaitlistEntry, error) {
	e, err := scanEntry(tx.QueryRowContext(ctx,
		`SELECT `+entryCols+` FROM waitlist_entries
		 WHERE session_id = ? AND status = ?
		 ORDER BY (tier = ?) DESC, joined_at ASC, id ASC
		 LIMIT 1
		 FOR UPDATE`,
		sessionID, model.WaitlistWaiting, model.TierVIP))
	if err == sql.ErrNoRows {
		return model.WaitlistEntry{}, ErrEntryNotFound
	}
	return e, err
}

// PromoteTx transitions an entry WAITING -> ASSIGNED with the given
// confirmation deadline.  Compare-and-set: returns ErrNotWaiting when
// the entry already left the WAITING state.
func (r *WaitlistRepo) PromoteTx(ctx context.Context, tx *sql.Tx, id uint64, now, deadline time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE waitlist_entries SET status = ?, assigned_at = ?, deadline = ?
		 WHERE id = ? AND status = ?`,
		model.WaitlistAssigned, now, deadline, id, model.WaitlistWaiting)
	if err != nil {
		return err
	}
	return casResult(res, ErrNotWaiting)
}

// ConfirmTx transitions an entry ASSIGNED -> CONFIRMED.
// Compare-and-set: returns ErrNotPromoted when the entry is not
// pending confirmation anymore — the loser of the confirm/expire race
// lands here.
func (r *WaitlistRepo) ConfirmTx(ctx context.Context, tx *sql.Tx, id uint64, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE waitlist_entries SET status = ?, confirmed_at = ?, resolved_at = ?, deadline = NULL
		 WHERE id = ? AND status = ?`,
		model.WaitlistConfirmed, now, now, id, model.WaitlistAssigned)
	if err != nil {
		return err
	}
	return casResult(res, ErrNotPromoted)
}

// ExpireTx transitions an entry ASSIGNED -> EXPIRED.  Compare-and-set
// mirror of ConfirmTx; exactly one of the two can win for a given
// entry.
func (r *WaitlistRepo) ExpireTx(ctx context.Context, tx *sql.Tx, id uint64, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE waitlist_entries SET status = ?, resolved_at = ?, deadline = NULL
		 WHERE id = ? AND status = ?`,
		model.WaitlistExpired, now, id, model.WaitlistAssigned)
	if err != nil {
		return err
	}
	return casResult(res, ErrNotPromoted)
}

// WithdrawTx transitions an entry WAITING -> WITHDRAWN.  Members
// cannot withdraw once promoted; they either confirm or let the
// deadline lapse.  Returns ErrNotWaiting otherwise, so withdrawing an
// already-withdrawn entry is a conflict rather than a silent success.
func (r *WaitlistRepo) WithdrawTx(ctx context.Context, tx *sql.Tx, id uint64, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE waitlist_entries SET status = ?, resolved_at = ?
		 WHERE id = ? AND status = ?`,
		model.WaitlistWithdrawn, now, id, model.WaitlistWaiting)
	if err != nil {
		return err
	}
	return casResult(res, ErrNotWaiting)
}

// PositionTx computes the 1-based queue position of a WAITING entry
// inside the caller's transaction: the count of WAITING entries
// ranked ahead of it (better tier, or same tier and earlier join)
// plus one.
func (r *WaitlistRepo) PositionTx(ctx context.Context, tx *sql.Tx, e *model.WaitlistEntry) (int, error) {
	sameTier := `tier = ? AND (joined_at < ? OR (joined_at = ? AND id < ?))`
	q := `SELECT COUNT(*) FROM waitlist_entries
	 WHERE session_id = ? AND status = ? AND id <> ? AND (` + sameTier + `)`
	args := []any{e.SessionID, model.WaitlistWaiting, e.ID, e.Tier, e.JoinedAt, e.JoinedAt, e.ID}
	if e.Tier != model.TierVIP {
		// Standard entries also queue behind every waiting VIP.
		q = `SELECT COUNT(*) FROM waitlist_entries
		 WHERE session_id = ? AND status = ? AND id <> ? AND (tier = ? OR (` + sameTier + `))`
		args = []any{e.SessionID, model.WaitlistWaiting, e.ID, model.TierVIP, e.Tier, e.JoinedAt, e.JoinedAt, e.ID}
	}
	var ahead int
	err := tx.QueryRowContext(ctx, q, args...).Scan(&ahead)
	return ahead + 1, err
}

// ListBySession returns the session's waitlist in promotion order:
// the in-flight ASSIGNED entry first, then WAITING entries by tier
// and join time.
func (r *WaitlistRepo) ListBySession(ctx context.Context, sessionID uint64) ([]model.WaitlistEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryCols+` FROM waitlist_entries
		 WHERE session_id = ? AND status IN (?, ?)
		 ORDER BY (status = ?) DESC, (tier = ?) DESC, joined_at ASC, id ASC`,
		sessionID, model.WaitlistWaiting, model.WaitlistAssigned,
		model.WaitlistAssigned, model.TierVIP)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.WaitlistEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// OverdueAssigned returns the ids and session ids of ASSIGNED entries
// whose deadline has passed at the given instant.  The reconciliation
// sweep re-checks each entry under its per-session lock before
// expiring it, so reading without a lock here is safe.
func (r *WaitlistRepo) OverdueAssigned(ctx context.Context, now time.Time) ([]model.WaitlistEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryCols+` FROM waitlist_entries
		 WHERE status = ? AND deadline IS NOT NULL AND deadline <= ?`,
		model.WaitlistAssigned, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.WaitlistEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// casResult converts a compare-and-set UPDATE result into the typed
// conflict error when no row transitioned.
func casResult(res sql.Result, conflict error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return conflict
	}
	return nil
}
