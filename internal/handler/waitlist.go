package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-operations/internal/model"
	"github.com/iliyamo/gym-operations/internal/repository"
	"github.com/iliyamo/gym-operations/internal/waitlist"
)

// WaitlistHandler exposes confirmation, withdrawal and queue
// inspection for session waitlists.
type WaitlistHandler struct {
	Coord   *waitlist.Coordinator
	Entries *repository.WaitlistRepo
}

func NewWaitlistHandler(coord *waitlist.Coordinator, entries *repository.WaitlistRepo) *WaitlistHandler {
	if coord == nil || entries == nil {
		panic("nil dependency passed to NewWaitlistHandler")
	}
	return &WaitlistHandler{Coord: coord, Entries: entries}
}

type entryResp struct {
	ID         uint64     `json:"id"`
	SessionID  uint64     `json:"session_id"`
	MemberID   uint64     `json:"member_id"`
	Tier       string     `json:"tier"`
	Status     string     `json:"status"`
	JoinedAt   time.Time  `json:"joined_at"`
	AssignedAt *time.Time `json:"assigned_at,omitempty"`
	Deadline   *time.Time `json:"deadline,omitempty"`
}

func toEntryResp(e *model.WaitlistEntry) entryResp {
	return entryResp{
		ID:         e.ID,
		SessionID:  e.SessionID,
		MemberID:   e.MemberID,
		Tier:       e.Tier,
		Status:     e.Status,
		JoinedAt:   e.JoinedAt,
		AssignedAt: e.AssignedAt,
		Deadline:   e.Deadline,
	}
}

// Confirm accepts a promoted slot before the deadline.  After the
// deadline the entry is expired and 410 is returned; the next waiter
// is promoted in the same transaction.
func (h *WaitlistHandler) Confirm(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
	}
	memberID, err := resolveMemberID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Coord.Confirm(ctx, id, memberID, time.Now().UTC()); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"confirmed": true, "entry_id": id})
}

// Withdraw removes a WAITING entry from the queue.
func (h *WaitlistHandler) Withdraw(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
	}
	memberID, err := resolveMemberID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Coord.Withdraw(ctx, id, memberID, time.Now().UTC()); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"withdrawn": true, "entry_id": id})
}

// ListBySession returns a session's queue in promotion order (staff
// only).
func (h *WaitlistHandler) ListBySession(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	entries, err := h.Entries.ListBySession(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	out := make([]entryResp, 0, len(entries))
	for i := range entries {
		out = append(out, toEntryResp(&entries[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": id, "waitlist": out})
}
