package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gym-operations/internal/model"
)

func newWorkoutRepo(t *testing.T) (*WorkoutRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewWorkoutRepo(db), mock
}

func TestCreatePlanRetiresPreviousAndInsertsItems(t *testing.T) {
	repo, mock := newWorkoutRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE workout_plans SET is_active").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO workout_plans").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO workout_items").WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectExec("INSERT INTO workout_items").WillReturnResult(sqlmock.NewResult(32, 1))
	mock.ExpectCommit()

	plan := &model.WorkoutPlan{MemberID: 42, TrainerID: 3, Title: "Strength A", IsActive: true, CreatedAt: now}
	items := []model.WorkoutItem{
		{ExerciseName: "Squat", Sets: 5, Reps: 5},
		{ExerciseName: "Bench Press", Sets: 3, Reps: 8},
	}
	require.NoError(t, repo.Create(context.Background(), plan, items))

	assert.Equal(t, uint64(7), plan.ID)
	assert.Equal(t, uint64(31), items[0].ID)
	assert.Equal(t, uint64(7), items[1].PlanID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePlanRollsBackOnItemFailure(t *testing.T) {
	repo, mock := newWorkoutRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE workout_plans SET is_active").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO workout_plans").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO workout_items").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	plan := &model.WorkoutPlan{MemberID: 42, TrainerID: 3, Title: "Strength A", IsActive: true, CreatedAt: now}
	err := repo.Create(context.Background(), plan, []model.WorkoutItem{{ExerciseName: "Squat", Sets: 5, Reps: 5}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForMemberScopesToOwner(t *testing.T) {
	repo, mock := newWorkoutRepo(t)

	mock.ExpectQuery("FROM workout_plans").WillReturnRows(sqlmock.NewRows(
		[]string{"id", "member_id", "trainer_id", "title", "is_active", "created_at"}))

	_, _, err := repo.GetForMember(context.Background(), 99, 7)
	assert.ErrorIs(t, err, ErrWorkoutPlanNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemInPlanRejectsForeignItem(t *testing.T) {
	repo, mock := newWorkoutRepo(t)

	mock.ExpectQuery("FROM workout_items").WillReturnRows(sqlmock.NewRows(
		[]string{"id", "workout_plan_id", "exercise_name", "sets", "reps", "target_weight", "notes"}))

	_, err := repo.ItemInPlan(context.Background(), 7, 31)
	assert.ErrorIs(t, err, ErrExerciseNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressHistoryOrderAndScan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewProgressRepo(db)
	now := time.Now().UTC()

	cols := []string{"id", "workout_plan_id", "workout_item_id", "member_id", "exercise_name",
		"sets_completed", "reps_completed", "target_sets", "target_reps",
		"weight_used", "target_weight", "duration_minutes", "notes", "logged_at"}
	mock.ExpectQuery("FROM progress_logs").WillReturnRows(sqlmock.NewRows(cols).
		AddRow(2, 7, 31, 42, "Squat", 5, 5, 5, 5, 102.5, 100.0, nil, nil, now).
		AddRow(1, 7, 31, 42, "Squat", 5, 4, 5, 5, 100.0, 100.0, nil, nil, now.Add(-24*time.Hour)))

	logs, err := repo.History(context.Background(), 7, 50)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, uint64(2), logs[0].ID)
	assert.Equal(t, 5, logs[0].TargetSets)
	require.NotNil(t, logs[0].WeightUsed)
	assert.InDelta(t, 102.5, *logs[0].WeightUsed, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainerSummaryScansAggregates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewProgressRepo(db)
	now := time.Now().UTC()

	cols := []string{"id", "full_name", "plan_id", "title", "total", "recent", "last"}
	mock.ExpectQuery("FROM workout_plans").WillReturnRows(sqlmock.NewRows(cols).
		AddRow(42, "Dana Reyes", 7, "Strength A", 12, 6, now).
		AddRow(51, "Sam Idle", 8, "Hypertrophy", 0, 0, nil))

	rows, err := repo.TrainerSummary(context.Background(), 3, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Dana Reyes", rows[0].MemberName)
	assert.Equal(t, 6, rows[0].RecentLogs)
	assert.Nil(t, rows[1].LastLogged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
