// Package repository contains data access logic for the gym domain.
// This file covers members.  Repositories expose plain methods bound
// to the pool for single-statement operations and ...Tx variants for
// statements that must participate in a caller-owned transaction.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/gym-operations/internal/model"
)

// MemberRepo manages persistence for members.
type MemberRepo struct {
	db *sql.DB
}

// NewMemberRepo returns a new MemberRepo bound to the provided database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *MemberRepo) DB() *sql.DB { return r.db }

const memberCols = `id, full_name, email, phone, joined_at, created_at, updated_at`

func scanMember(row interface{ Scan(...any) error }) (model.Member, error) {
	var m model.Member
	err := row.Scan(&m.ID, &m.FullName, &m.Email, &m.Phone, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create inserts a member and returns the generated ID.  Emails are
// normalized to lowercase before insertion; a duplicate email maps to
// ErrConflict.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO members (full_name, email, phone, joined_at) VALUES (?, ?, ?, ?)`,
		m.FullName, m.Email, m.Phone, m.JoinedAt)
	if err != nil {
		// MySQL duplicate key
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID fetches a member by id.  Returns ErrMemberNotFound when no
// row exists.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (model.Member, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return model.Member{}, ErrMemberNotFound
	}
	return m, err
}

// ExistsTx reports whether a member exists, inside the caller's
// transaction.  The admission engine uses this before evaluating the
// rule chain so that an unknown member fails fast without writing an
// audit row.
func (r *MemberRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM members WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns all members ordered by join date, newest first.
func (r *MemberRepo) List(ctx context.Context) ([]model.Member, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+memberCols+` FROM members ORDER BY joined_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a member.  Returns
// ErrMemberNotFound when the id does not exist.
func (r *MemberRepo) Update(ctx context.Context, m *model.Member) error {
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET full_name = ?, email = ?, phone = ? WHERE id = ?`,
		m.FullName, m.Email, m.Phone, m.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// Delete removes a member.  The schema cascades waitlist entries but
// blocks deletion while checkin history exists, which surfaces as
// ErrConflict.
func (r *MemberRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1451") {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}
