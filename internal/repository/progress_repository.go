package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/gym-operations/internal/model"
)

// ProgressRepo manages persistence for workout progress logs.  Logs
// are append-only; the handler validates plan ownership and item
// membership before writing.
type ProgressRepo struct {
	db *sql.DB
}

// NewProgressRepo returns a new ProgressRepo bound to the provided database.
func NewProgressRepo(db *sql.DB) *ProgressRepo { return &ProgressRepo{db: db} }

const progressCols = `id, workout_plan_id, workout_item_id, member_id, exercise_name,
	sets_completed, reps_completed, target_sets, target_reps,
	weight_used, target_weight, duration_minutes, notes, logged_at`

func scanProgress(row interface{ Scan(...any) error }) (model.ProgressLog, error) {
	var l model.ProgressLog
	err := row.Scan(&l.ID, &l.PlanID, &l.ItemID, &l.MemberID, &l.ExerciseName,
		&l.SetsCompleted, &l.RepsCompleted, &l.TargetSets, &l.TargetReps,
		&l.WeightUsed, &l.TargetWeight, &l.DurationMinutes, &l.Notes, &l.LoggedAt)
	return l, err
}

// Create inserts a progress log and fills in the generated ID.
func (r *ProgressRepo) Create(ctx context.Context, l *model.ProgressLog) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO progress_logs
		 (workout_plan_id, workout_item_id, member_id, exercise_name,
		  sets_completed, reps_completed, target_sets, target_reps,
		  weight_used, target_weight, duration_minutes, notes, logged_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.PlanID, l.ItemID, l.MemberID, l.ExerciseName,
		l.SetsCompleted, l.RepsCompleted, l.TargetSets, l.TargetReps,
		l.WeightUsed, l.TargetWeight, l.DurationMinutes, l.Notes, l.LoggedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

// History returns a plan's logs, most recent first.
func (r *ProgressRepo) History(ctx context.Context, planID uint64, limit int) ([]model.ProgressLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+progressCols+` FROM progress_logs
		 WHERE workout_plan_id = ?
		 ORDER BY logged_at DESC, id DESC
		 LIMIT ?`,
		planID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ProgressLog
	for rows.Next() {
		l, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// TrainerSummary aggregates logging activity for every active plan a
// trainer authored: total logs, logs since the given instant, and the
// most recent log time.  One query; the Progressing flag is derived
// by the caller.
func (r *ProgressRepo) TrainerSummary(ctx context.Context, trainerID uint64, since time.Time) ([]model.TraineeProgress, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.full_name, wp.id, wp.title,
		        COUNT(pl.id),
		        COALESCE(SUM(pl.logged_at >= ?), 0),
		        MAX(pl.logged_at)
		 FROM workout_plans wp
		 JOIN members m ON m.id = wp.member_id
		 LEFT JOIN progress_logs pl ON pl.workout_plan_id = wp.id
		 WHERE wp.trainer_id = ? AND wp.is_active = TRUE
		 GROUP BY m.id, m.full_name, wp.id, wp.title
		 ORDER BY wp.created_at DESC`,
		since, trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TraineeProgress
	for rows.Next() {
		var tp model.TraineeProgress
		if err := rows.Scan(&tp.MemberID, &tp.MemberName, &tp.PlanID, &tp.PlanTitle,
			&tp.TotalLogs, &tp.RecentLogs, &tp.LastLogged); err != nil {
			return nil, err
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}
