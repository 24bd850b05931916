package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-operations/internal/model"
	"github.com/iliyamo/gym-operations/internal/repository"
)

// progressingThreshold is the minimum number of logs inside the
// summary window for a trainee to count as progressing.
const (
	progressingThreshold = 5
	progressWindow       = 30 * 24 * time.Hour
)

// ProgressHandler covers workout progress logging and history for
// members and the activity overview for trainers.
type ProgressHandler struct {
	Progress *repository.ProgressRepo
	Plans    *repository.WorkoutRepo
}

func NewProgressHandler(p *repository.ProgressRepo, w *repository.WorkoutRepo) *ProgressHandler {
	if p == nil || w == nil {
		panic("nil repository passed to NewProgressHandler")
	}
	return &ProgressHandler{Progress: p, Plans: w}
}

type progressLogReq struct {
	ItemID          uint64   `json:"workout_item_id"`
	SetsCompleted   int      `json:"sets_completed"`
	RepsCompleted   int      `json:"reps_completed"`
	WeightUsed      *float64 `json:"weight_used"`
	DurationMinutes *int     `json:"duration_minutes"`
	Notes           *string  `json:"notes"`
}

type improvementPart struct {
	WeightIncrease *float64 `json:"weight_increase,omitempty"`
	RepsIncrease   int      `json:"reps_increase"`
	SetsIncrease   int      `json:"sets_increase"`
}

type progressLogResp struct {
	ID              uint64          `json:"id"`
	ExerciseName    string          `json:"exercise_name"`
	SetsCompleted   int             `json:"sets_completed"`
	RepsCompleted   int             `json:"reps_completed"`
	WeightUsed      *float64        `json:"weight_used,omitempty"`
	TargetWeight    *float64        `json:"target_weight,omitempty"`
	DurationMinutes *int            `json:"duration_minutes,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	LoggedAt        time.Time       `json:"logged_at"`
	Improvement     improvementPart `json:"improvement"`
}

// improvement compares a performed exercise to its snapshotted
// prescription.
func improvement(l model.ProgressLog) improvementPart {
	part := improvementPart{
		RepsIncrease: l.RepsCompleted - l.TargetReps,
		SetsIncrease: l.SetsCompleted - l.TargetSets,
	}
	if l.WeightUsed != nil && l.TargetWeight != nil {
		d := *l.WeightUsed - *l.TargetWeight
		part.WeightIncrease = &d
	}
	return part
}

func logResp(l model.ProgressLog) progressLogResp {
	return progressLogResp{
		ID:              l.ID,
		ExerciseName:    l.ExerciseName,
		SetsCompleted:   l.SetsCompleted,
		RepsCompleted:   l.RepsCompleted,
		WeightUsed:      l.WeightUsed,
		TargetWeight:    l.TargetWeight,
		DurationMinutes: l.DurationMinutes,
		Notes:           l.Notes,
		LoggedAt:        l.LoggedAt,
		Improvement:     improvement(l),
	}
}

// Log records one performed exercise against the caller's plan.  The
// plan must belong to the caller and the item to the plan.
func (h *ProgressHandler) Log(c echo.Context) error {
	planID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
	}
	memberID, err := resolveMemberID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req progressLogReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ItemID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "workout_item_id required"})
	}
	if req.SetsCompleted < 0 || req.RepsCompleted < 0 ||
		(req.WeightUsed != nil && *req.WeightUsed < 0) ||
		(req.DurationMinutes != nil && *req.DurationMinutes < 0) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "progress values cannot be negative"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, _, err := h.Plans.GetForMember(ctx, memberID, planID); err != nil {
		return fail(c, err)
	}
	item, err := h.Plans.ItemInPlan(ctx, planID, req.ItemID)
	if err != nil {
		return fail(c, err)
	}

	l := &model.ProgressLog{
		PlanID:          planID,
		ItemID:          item.ID,
		MemberID:        memberID,
		ExerciseName:    item.ExerciseName,
		SetsCompleted:   req.SetsCompleted,
		RepsCompleted:   req.RepsCompleted,
		TargetSets:      item.Sets,
		TargetReps:      item.Reps,
		WeightUsed:      req.WeightUsed,
		TargetWeight:    item.TargetWeight,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		LoggedAt:        time.Now().UTC(),
	}
	if err := h.Progress.Create(ctx, l); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, logResp(*l))
}

// History returns the plan's log history, most recent first.
func (h *ProgressHandler) History(c echo.Context) error {
	planID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
	}
	memberID, err := resolveMemberID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	limit := atoiDefault(c.QueryParam("limit"), 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, _, err := h.Plans.GetForMember(ctx, memberID, planID); err != nil {
		return fail(c, err)
	}
	logs, err := h.Progress.History(ctx, planID, limit)
	if err != nil {
		return fail(c, err)
	}
	out := make([]progressLogResp, 0, len(logs))
	for _, l := range logs {
		out = append(out, logResp(l))
	}
	return c.JSON(http.StatusOK, echo.Map{"plan_id": planID, "logs": out})
}

// TrainerSummary returns logging activity for every active plan the
// trainer authored.
func (h *ProgressHandler) TrainerSummary(c echo.Context) error {
	trainerID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trainer id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	since := time.Now().UTC().Add(-progressWindow)
	rows, err := h.Progress.TrainerSummary(ctx, trainerID, since)
	if err != nil {
		return fail(c, err)
	}
	for i := range rows {
		rows[i].Progressing = rows[i].RecentLogs >= progressingThreshold
	}
	return c.JSON(http.StatusOK, echo.Map{"trainer_id": trainerID, "trainees": rows})
}
