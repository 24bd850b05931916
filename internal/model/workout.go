package model

import "time"

// WorkoutPlan is a trainer-authored exercise program for one member.
// Plans are append-only: a replaced plan is deactivated, not edited.
//
// Fields:
//  ID        – primary key identifier.
//  MemberID  – member the plan is written for.
//  TrainerID – trainer who authored the plan.
//  Title     – display title.
//  IsActive  – whether the plan is the member's current program.
//  CreatedAt – when the plan was created.
type WorkoutPlan struct {
	ID        uint64    // workout_plans.id
	MemberID  uint64    // workout_plans.member_id
	TrainerID uint64    // workout_plans.trainer_id
	Title     string    // workout_plans.title
	IsActive  bool      // workout_plans.is_active
	CreatedAt time.Time // workout_plans.created_at
}

// WorkoutItem is a single prescribed exercise within a plan.
type WorkoutItem struct {
	ID           uint64   // workout_items.id
	PlanID       uint64   // workout_items.workout_plan_id
	ExerciseName string   // workout_items.exercise_name
	Sets         int      // workout_items.sets
	Reps         int      // workout_items.reps
	TargetWeight *float64 // workout_items.target_weight (nullable)
	Notes        *string  // workout_items.notes (nullable)
}

// ProgressLog records one performed exercise.  The prescription
// (exercise name, target sets/reps/weight) is snapshotted at log time
// so history stays meaningful after the plan changes.
type ProgressLog struct {
	ID              uint64    // progress_logs.id
	PlanID          uint64    // progress_logs.workout_plan_id
	ItemID          uint64    // progress_logs.workout_item_id
	MemberID        uint64    // progress_logs.member_id
	ExerciseName    string    // progress_logs.exercise_name
	SetsCompleted   int       // progress_logs.sets_completed
	RepsCompleted   int       // progress_logs.reps_completed
	TargetSets      int       // progress_logs.target_sets
	TargetReps      int       // progress_logs.target_reps
	WeightUsed      *float64  // progress_logs.weight_used (nullable)
	TargetWeight    *float64  // progress_logs.target_weight (nullable)
	DurationMinutes *int      // progress_logs.duration_minutes (nullable)
	Notes           *string   // progress_logs.notes (nullable)
	LoggedAt        time.Time // progress_logs.logged_at
}

// TraineeProgress is one row of a trainer's progress overview: how
// actively a member is logging against one of the trainer's plans.
type TraineeProgress struct {
	MemberID    uint64     // member the plan belongs to
	MemberName  string     // display name
	PlanID      uint64     // workout plan id
	PlanTitle   string     // workout plan title
	TotalLogs   int        // all-time log count
	RecentLogs  int        // logs within the recent window
	LastLogged  *time.Time // most recent log time (nil when never logged)
	Progressing bool       // member logged enough recently
}
