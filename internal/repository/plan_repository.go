package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/gym-operations/internal/model"
)

// PlanRepo manages the plan catalog.  Plans are written rarely
// (admin-only) and read on every subscription creation and waitlist
// join, so the listing endpoint sits behind the response cache.
type PlanRepo struct {
	db *sql.DB
}

// NewPlanRepo returns a new PlanRepo bound to the provided database.
func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{db: db} }

const planCols = `id, name, plan_type, price_cents, valid_days, max_entries, created_at`

func scanPlan(row interface{ Scan(...any) error }) (model.Plan, error) {
	var p model.Plan
	err := row.Scan(&p.ID, &p.Name, &p.PlanType, &p.PriceCents, &p.ValidDays, &p.MaxEntries, &p.CreatedAt)
	return p, err
}

// Create inserts a plan and fills in the generated ID.
func (r *PlanRepo) Create(ctx context.Context, p *model.Plan) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO plans (name, plan_type, price_cents, valid_days, max_entries) VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.PlanType, p.PriceCents, p.ValidDays, p.MaxEntries)
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

// GetByID fetches a plan by id.
func (r *PlanRepo) GetByID(ctx context.Context, id uint64) (model.Plan, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+planCols+` FROM plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return model.Plan{}, ErrPlanNotFound
	}
	return p, err
}

// List returns the full plan catalog.
func (r *PlanRepo) List(ctx context.Context) ([]model.Plan, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+planCols+` FROM plans ORDER BY price_cents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
