package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-operations/internal/admission"
	"github.com/iliyamo/gym-operations/internal/model"
	"github.com/iliyamo/gym-operations/internal/repository"
)

// CheckinHandler exposes the admission engine to reception terminals.
type CheckinHandler struct {
	Engine   *admission.Engine
	Checkins *repository.CheckinRepo
}

func NewCheckinHandler(engine *admission.Engine, checkins *repository.CheckinRepo) *CheckinHandler {
	if engine == nil || checkins == nil {
		panic("nil dependency passed to NewCheckinHandler")
	}
	return &CheckinHandler{Engine: engine, Checkins: checkins}
}

type checkinReq struct {
	MemberID uint64 `json:"member_id"`
}

type checkinResp struct {
	CheckinID uint64    `json:"checkin_id"`
	MemberID  uint64    `json:"member_id"`
	Result    string    `json:"result"`
	Reason    *string   `json:"reason,omitempty"`
	Rule      *string   `json:"rule,omitempty"`
	At        time.Time `json:"at"`
}

// Create runs the admission rule chain for a member swipe.  A denial
// is a successful request with Result DENIED — only unknown members
// and system failures produce error statuses.
func (h *CheckinHandler) Create(c echo.Context) error {
	var req checkinReq
	if err := c.Bind(&req); err != nil || req.MemberID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "member_id required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Engine.Evaluate(ctx, req.MemberID, time.Now().UTC())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toCheckinResp(rec))
}

// History lists a member's recent check-in records, newest first.
func (h *CheckinHandler) History(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		limit = atoiDefault(v, 0)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	recs, err := h.Checkins.HistoryByMember(ctx, id, limit)
	if err != nil {
		return fail(c, err)
	}
	out := make([]checkinResp, 0, len(recs))
	for i := range recs {
		out = append(out, toCheckinResp(&recs[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"member_id": id, "checkins": out})
}

func toCheckinResp(rec *model.Checkin) checkinResp {
	return checkinResp{
		CheckinID: rec.ID,
		MemberID:  rec.MemberID,
		Result:    rec.Result,
		Reason:    rec.Reason,
		Rule:      rec.Rule,
		At:        rec.CreatedAt,
	}
}
