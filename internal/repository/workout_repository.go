package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/gym-operations/internal/model"
)

// WorkoutRepo manages persistence for workout plans and their
// exercise items.  A plan and its items are written in one
// transaction; a plan without items is never visible.
type WorkoutRepo struct {
	db *sql.DB
}

// NewWorkoutRepo returns a new WorkoutRepo bound to the provided database.
func NewWorkoutRepo(db *sql.DB) *WorkoutRepo { return &WorkoutRepo{db: db} }

const workoutPlanCols = `id, member_id, trainer_id, title, is_active, created_at`

func scanWorkoutPlan(row interface{ Scan(...any) error }) (model.WorkoutPlan, error) {
	var p model.WorkoutPlan
	err := row.Scan(&p.ID, &p.MemberID, &p.TrainerID, &p.Title, &p.IsActive, &p.CreatedAt)
	return p, err
}

const workoutItemCols = `id, workout_plan_id, exercise_name, sets, reps, target_weight, notes`

func scanWorkoutItem(row interface{ Scan(...any) error }) (model.WorkoutItem, error) {
	var it model.WorkoutItem
	err := row.Scan(&it.ID, &it.PlanID, &it.ExerciseName, &it.Sets, &it.Reps, &it.TargetWeight, &it.Notes)
	return it, err
}

// Create inserts the plan and all of its items in one transaction,
// deactivating the member's previous active plans first.  Fills in
// the generated ids.
func (r *WorkoutRepo) Create(ctx context.Context, p *model.WorkoutPlan, items []model.WorkoutItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin plan tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if p.IsActive {
		if _, err := tx.ExecContext(ctx,
			`UPDATE workout_plans SET is_active = FALSE WHERE member_id = ? AND is_active = TRUE`,
			p.MemberID); err != nil {
			return fmt.Errorf("retire previous plans: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO workout_plans (member_id, trainer_id, title, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.MemberID, p.TrainerID, p.Title, p.IsActive, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	planID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(planID)

	for i := range items {
		items[i].PlanID = p.ID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO workout_items (workout_plan_id, exercise_name, sets, reps, target_weight, notes)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, items[i].ExerciseName, items[i].Sets, items[i].Reps,
			items[i].TargetWeight, items[i].Notes)
		if err != nil {
			return fmt.Errorf("insert item %q: %w", items[i].ExerciseName, err)
		}
		itemID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		items[i].ID = uint64(itemID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plan: %w", err)
	}
	committed = true
	return nil
}

// GetForMember fetches a plan with its items, scoped to the owning
// member.  Returns ErrWorkoutPlanNotFound both for a missing plan and
// for another member's plan, so handlers leak nothing.
func (r *WorkoutRepo) GetForMember(ctx context.Context, memberID, planID uint64) (model.WorkoutPlan, []model.WorkoutItem, error) {
	p, err := scanWorkoutPlan(r.db.QueryRowContext(ctx,
		`SELECT `+workoutPlanCols+` FROM workout_plans WHERE id = ? AND member_id = ?`,
		planID, memberID))
	if err == sql.ErrNoRows {
		return model.WorkoutPlan{}, nil, ErrWorkoutPlanNotFound
	}
	if err != nil {
		return model.WorkoutPlan{}, nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+workoutItemCols+` FROM workout_items WHERE workout_plan_id = ? ORDER BY id`,
		planID)
	if err != nil {
		return model.WorkoutPlan{}, nil, err
	}
	defer rows.Close()
	var items []model.WorkoutItem
	for rows.Next() {
		it, err := scanWorkoutItem(rows)
		if err != nil {
			return model.WorkoutPlan{}, nil, err
		}
		items = append(items, it)
	}
	return p, items, rows.Err()
}

// ListForMember returns the member's active plans, newest first.
func (r *WorkoutRepo) ListForMember(ctx context.Context, memberID uint64) ([]model.WorkoutPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+workoutPlanCols+` FROM workout_plans
		 WHERE member_id = ? AND is_active = TRUE
		 ORDER BY created_at DESC, id DESC`,
		memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.WorkoutPlan
	for rows.Next() {
		p, err := scanWorkoutPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ItemInPlan fetches one exercise item scoped to its plan.  Returns
// ErrExerciseNotFound when the item does not exist or belongs to a
// different plan.
func (r *WorkoutRepo) ItemInPlan(ctx context.Context, planID, itemID uint64) (model.WorkoutItem, error) {
	it, err := scanWorkoutItem(r.db.QueryRowContext(ctx,
		`SELECT `+workoutItemCols+` FROM workout_items WHERE id = ? AND workout_plan_id = ?`,
		itemID, planID))
	if err == sql.ErrNoRows {
		return model.WorkoutItem{}, ErrExerciseNotFound
	}
	return it, err
}
