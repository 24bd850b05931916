package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-operations/internal/model"
	"github.com/iliyamo/gym-operations/internal/repository"
	"github.com/iliyamo/gym-operations/internal/waitlist"
)

// SessionHandler covers class session administration plus the
// member-facing enroll/cancel operations that feed the waitlist
// coordinator.
type SessionHandler struct {
	Sessions    *repository.SessionRepo
	Enrollments *repository.EnrollmentRepo
	Coord       *waitlist.Coordinator
}

func NewSessionHandler(s *repository.SessionRepo, e *repository.EnrollmentRepo, coord *waitlist.Coordinator) *SessionHandler {
	if s == nil || e == nil || coord == nil {
		panic("nil dependency passed to NewSessionHandler")
	}
	return &SessionHandler{Sessions: s, Enrollments: e, Coord: coord}
}

type sessionReq struct {
	TrainerID *uint64   `json:"trainer_id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	StartsAt  time.Time `json:"starts_at"`
}

type sessionResp struct {
	ID            uint64    `json:"id"`
	TrainerID     *uint64   `json:"trainer_id,omitempty"`
	Name          string    `json:"name"`
	Capacity      int       `json:"capacity"`
	EnrolledCount int       `json:"enrolled_count"`
	StartsAt      time.Time `json:"starts_at"`
	Status        string    `json:"status"`
}

func toSessionResp(s *model.ClassSession) sessionResp {
	return sessionResp{
		ID:            s.ID,
		TrainerID:     s.TrainerID,
		Name:          s.Name,
		Capacity:      s.Capacity,
		EnrolledCount: s.EnrolledCount,
		StartsAt:      s.StartsAt,
		Status:        s.Status,
	}
}

// Create adds a class session (admin only).
func (h *SessionHandler) Create(c echo.Context) error {
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Capacity <= 0 || req.StartsAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, positive capacity and starts_at required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	sess := &model.ClassSession{
		TrainerID: req.TrainerID,
		Name:      req.Name,
		Capacity:  req.Capacity,
		StartsAt:  req.StartsAt.UTC(),
		Status:    model.SessionOpen,
	}
	if err := h.Sessions.Create(ctx, sess); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toSessionResp(sess))
}

// List returns all sessions; sits behind the response cache.
func (h *SessionHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	sessions, err := h.Sessions.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	out := make([]sessionResp, 0, len(sessions))
	for i := range sessions {
		out = append(out, toSessionResp(&sessions[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": out})
}

// Get returns one session.
func (h *SessionHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResp(&sess))
}

// Close stops further enrollments and waitlist joins (admin only).
func (h *SessionHandler) Close(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Sessions.Close(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": model.SessionClosed})
}

// Delete removes a session with no active enrollments (admin only).
// Waitlist entries are cascade-deleted with the session.
func (h *SessionHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Sessions.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Enroll registers the authenticated member, or queues them when the
// session is full.  The response distinguishes the two outcomes.
func (h *SessionHandler) Enroll(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	memberID, err := resolveMemberID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Coord.Enroll(ctx, id, memberID, time.Now().UTC())
	if err != nil {
		return fail(c, err)
	}
	if res.Enrolled {
		return c.JSON(http.StatusCreated, echo.Map{"enrolled": true, "session_id": id})
	}
	return c.JSON(http.StatusAccepted, echo.Map{
		"waitlisted": true,
		"entry_id":   res.Entry.ID,
		"tier":       res.Entry.Tier,
		"position":   res.Position,
	})
}

// CancelEnrollment releases the member's slot; the freed capacity is
// offered to the waitlist before the response returns.
func (h *SessionHandler) CancelEnrollment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	memberID, err := resolveMemberID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Reason *string `json:"reason"`
	}
	_ = c.Bind(&body)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Coord.CancelEnrollment(ctx, id, memberID, body.Reason, time.Now().UTC()); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"canceled": true, "session_id": id})
}

// ListEnrollments returns the session roster (staff only).
func (h *SessionHandler) ListEnrollments(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	enrs, err := h.Enrollments.ListBySession(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": id, "enrollments": enrs})
}

// resolveMemberID picks the acting member: reception and admin may
// pass ?member_id= to act on a member's behalf, members always act as
// themselves.
func resolveMemberID(c echo.Context) (uint64, error) {
	role, _ := c.Get("role").(string)
	if role == model.RoleReception || role == model.RoleAdmin {
		if v := c.QueryParam("member_id"); v != "" {
			if n := atoiDefault(v, 0); n > 0 {
				return uint64(n), nil
			}
			return 0, errInvalidMemberID
		}
	}
	return getUserID(c)
}
