package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/gym-operations/internal/model"
)

// SessionRepo manages persistence for class sessions.  Capacity
// mutations always go through the ...Tx variants under the session
// row lock taken by GetByIDTx, which is how the coordinator keeps
// enrolled_count consistent with the enrollments table.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the provided database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *SessionRepo) DB() *sql.DB { return r.db }

const sessionCols = `id, trainer_id, name, capacity, enrolled_count, starts_at, status, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (model.ClassSession, error) {
	var s model.ClassSession
	err := row.Scan(&s.ID, &s.TrainerID, &s.Name, &s.Capacity, &s.EnrolledCount,
		&s.StartsAt, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create inserts a session and fills in the generated ID.
func (r *SessionRepo) Create(ctx context.Context, s *model.ClassSession) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO class_sessions (trainer_id, name, capacity, starts_at, status)
		 VALUES (?, ?, ?, ?, ?)`,
		s.TrainerID, s.Name, s.Capacity, s.StartsAt, s.Status)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1452") {
			return ErrTrainerNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID fetches a session by id without locking.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (model.ClassSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM class_sessions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return model.ClassSession{}, ErrSessionNotFound
	}
	return s, err
}

// GetByIDTx fetches a session inside the caller's transaction with a
// row lock (SELECT ... FOR UPDATE), so capacity checks and the
// subsequent enrolled_count mutation see a consistent view.
func (r *SessionRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.ClassSession, error) {
	s, err := scanSession(tx.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM class_sessions WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return model.ClassSession{}, ErrSessionNotFound
	}
	return s, err
}

// List returns sessions ordered by start time, soonest first.
func (r *SessionRepo) List(ctx context.Context) ([]model.ClassSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionCols+` FROM class_sessions ORDER BY starts_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ClassSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AdjustEnrolledTx adds delta (+1 on enroll/confirm, -1 on cancel) to
// the session's enrolled_count inside the caller's transaction.  The
// WHERE guards keep the counter inside [0, capacity] even if a caller
// misuses the method.
func (r *SessionRepo) AdjustEnrolledTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE class_sessions
		 SET enrolled_count = enrolled_count + ?
		 WHERE id = ? AND enrolled_count + ? BETWEEN 0 AND capacity`,
		delta, id, delta)
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

// Close marks a session CLOSED so it accepts no further enrollments
// or waitlist joins.
func (r *SessionRepo) Close(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE class_sessions SET status = ? WHERE id = ?`, model.SessionClosed, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes a session.  Waitlist entries cascade with it;
// registered enrollments block deletion and surface as ErrConflict.
func (r *SessionRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE session_id = ? AND status = ?`,
		id, model.EnrollmentRegistered).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM class_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}
