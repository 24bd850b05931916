package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/gym-operations/internal/model"
)

// TrainerRepo manages persistence for trainers.
type TrainerRepo struct {
	db *sql.DB
}

// NewTrainerRepo returns a new TrainerRepo bound to the provided database.
func NewTrainerRepo(db *sql.DB) *TrainerRepo { return &TrainerRepo{db: db} }

const trainerCols = `id, full_name, specialty, is_active, created_at, updated_at`

func scanTrainer(row interface{ Scan(...any) error }) (model.Trainer, error) {
	var t model.Trainer
	err := row.Scan(&t.ID, &t.FullName, &t.Specialty, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Create inserts a trainer and fills in the generated ID.
func (r *TrainerRepo) Create(ctx context.Context, t *model.Trainer) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO trainers (full_name, specialty, is_active) VALUES (?, ?, ?)`,
		t.FullName, t.Specialty, t.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID fetches a trainer by id.
func (r *TrainerRepo) GetByID(ctx context.Context, id uint64) (model.Trainer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+trainerCols+` FROM trainers WHERE id = ?`, id)
	t, err := scanTrainer(row)
	if err == sql.ErrNoRows {
		return model.Trainer{}, ErrTrainerNotFound
	}
	return t, err
}

// List returns all trainers ordered by name.
func (r *TrainerRepo) List(ctx context.Context) ([]model.Trainer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+trainerCols+` FROM trainers ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Trainer
	for rows.Next() {
		t, err := scanTrainer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a trainer.
func (r *TrainerRepo) Update(ctx context.Context, t *model.Trainer) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE trainers SET full_name = ?, specialty = ?, is_active = ? WHERE id = ?`,
		t.FullName, t.Specialty, t.IsActive, t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTrainerNotFound
	}
	return nil
}
