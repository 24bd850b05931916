package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-operations/internal/model"
	"github.com/iliyamo/gym-operations/internal/repository"
)

// MemberHandler covers member record CRUD for reception staff.
type MemberHandler struct {
	Members *repository.MemberRepo
}

func NewMemberHandler(m *repository.MemberRepo) *MemberHandler {
	if m == nil {
		panic("nil repository passed to NewMemberHandler")
	}
	return &MemberHandler{Members: m}
}

type memberReq struct {
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
}

// Create registers a new gym member.
func (h *MemberHandler) Create(c echo.Context) error {
	var req memberReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FullName == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name and email required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	m := &model.Member{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		JoinedAt: time.Now().UTC(),
	}
	if err := h.Members.Create(ctx, m); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// Get returns one member record.
func (h *MemberHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Members.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// List returns all members.
func (h *MemberHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	members, err := h.Members.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"members": members})
}

// Update changes a member's contact details.
func (h *MemberHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	var req memberReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FullName == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name and email required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	m := &model.Member{ID: id, FullName: req.FullName, Email: req.Email, Phone: req.Phone}
	if err := h.Members.Update(ctx, m); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Delete removes a member with no dependent history.
func (h *MemberHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Members.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
