package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-operations/internal/model"
	"github.com/iliyamo/gym-operations/internal/repository"
)

// WorkoutHandler covers workout plan authoring (staff) and plan
// viewing (members see their own plans).
type WorkoutHandler struct {
	Plans    *repository.WorkoutRepo
	Members  *repository.MemberRepo
	Trainers *repository.TrainerRepo
}

func NewWorkoutHandler(w *repository.WorkoutRepo, m *repository.MemberRepo, t *repository.TrainerRepo) *WorkoutHandler {
	if w == nil || m == nil || t == nil {
		panic("nil repository passed to NewWorkoutHandler")
	}
	return &WorkoutHandler{Plans: w, Members: m, Trainers: t}
}

type workoutItemReq struct {
	ExerciseName string   `json:"exercise_name"`
	Sets         int      `json:"sets"`
	Reps         int      `json:"reps"`
	TargetWeight *float64 `json:"target_weight"`
	Notes        *string  `json:"notes"`
}

type workoutPlanReq struct {
	MemberID  uint64           `json:"member_id"`
	TrainerID uint64           `json:"trainer_id"`
	Title     string           `json:"title"`
	Items     []workoutItemReq `json:"items"`
}

type workoutItemResp struct {
	ID           uint64   `json:"id"`
	ExerciseName string   `json:"exercise_name"`
	Sets         int      `json:"sets"`
	Reps         int      `json:"reps"`
	TargetWeight *float64 `json:"target_weight,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

type workoutPlanResp struct {
	ID        uint64            `json:"id"`
	MemberID  uint64            `json:"member_id"`
	TrainerID uint64            `json:"trainer_id"`
	Title     string            `json:"title"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
	Items     []workoutItemResp `json:"items,omitempty"`
}

func itemsResp(items []model.WorkoutItem) []workoutItemResp {
	out := make([]workoutItemResp, 0, len(items))
	for _, it := range items {
		out = append(out, workoutItemResp{
			ID:           it.ID,
			ExerciseName: it.ExerciseName,
			Sets:         it.Sets,
			Reps:         it.Reps,
			TargetWeight: it.TargetWeight,
			Notes:        it.Notes,
		})
	}
	return out
}

// Create authors a plan for a member.  The member and trainer must
// both exist; the new plan replaces the member's previous active one.
func (h *WorkoutHandler) Create(c echo.Context) error {
	var req workoutPlanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.MemberID == 0 || req.TrainerID == 0 || req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "member_id, trainer_id and title required"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one exercise required"})
	}
	items := make([]model.WorkoutItem, 0, len(req.Items))
	for _, it := range req.Items {
		name := strings.TrimSpace(it.ExerciseName)
		if name == "" || it.Sets <= 0 || it.Reps <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "exercise_name, sets and reps required per item"})
		}
		if it.TargetWeight != nil && *it.TargetWeight < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "target_weight cannot be negative"})
		}
		items = append(items, model.WorkoutItem{
			ExerciseName: name,
			Sets:         it.Sets,
			Reps:         it.Reps,
			TargetWeight: it.TargetWeight,
			Notes:        it.Notes,
		})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Members.GetByID(ctx, req.MemberID); err != nil {
		return fail(c, err)
	}
	if _, err := h.Trainers.GetByID(ctx, req.TrainerID); err != nil {
		return fail(c, err)
	}

	plan := &model.WorkoutPlan{
		MemberID:  req.MemberID,
		TrainerID: req.TrainerID,
		Title:     req.Title,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Plans.Create(ctx, plan, items); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, workoutPlanResp{
		ID:        plan.ID,
		MemberID:  plan.MemberID,
		TrainerID: plan.TrainerID,
		Title:     plan.Title,
		IsActive:  plan.IsActive,
		CreatedAt: plan.CreatedAt,
		Items:     itemsResp(items),
	})
}

// Get returns one of the caller's plans with all its exercises.
func (h *WorkoutHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
	}
	memberID, err := resolveMemberID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	plan, items, err := h.Plans.GetForMember(ctx, memberID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, workoutPlanResp{
		ID:        plan.ID,
		MemberID:  plan.MemberID,
		TrainerID: plan.TrainerID,
		Title:     plan.Title,
		IsActive:  plan.IsActive,
		CreatedAt: plan.CreatedAt,
		Items:     itemsResp(items),
	})
}

// List returns the caller's active plans, newest first.
func (h *WorkoutHandler) List(c echo.Context) error {
	memberID, err := resolveMemberID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	plans, err := h.Plans.ListForMember(ctx, memberID)
	if err != nil {
		return fail(c, err)
	}
	out := make([]workoutPlanResp, 0, len(plans))
	for _, p := range plans {
		out = append(out, workoutPlanResp{
			ID:        p.ID,
			MemberID:  p.MemberID,
			TrainerID: p.TrainerID,
			Title:     p.Title,
			IsActive:  p.IsActive,
			CreatedAt: p.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"plans": out})
}
