package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-operations/internal/model"
	"github.com/iliyamo/gym-operations/internal/repository"
)

// TrainerHandler covers trainer directory CRUD (admin only for
// writes).
type TrainerHandler struct {
	Trainers *repository.TrainerRepo
}

func NewTrainerHandler(t *repository.TrainerRepo) *TrainerHandler {
	if t == nil {
		panic("nil repository passed to NewTrainerHandler")
	}
	return &TrainerHandler{Trainers: t}
}

type trainerReq struct {
	FullName  string `json:"full_name"`
	Specialty string `json:"specialty"`
	IsActive  *bool  `json:"is_active"`
}

// Create adds a trainer to the directory.
func (h *TrainerHandler) Create(c echo.Context) error {
	var req trainerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t := &model.Trainer{
		FullName:  req.FullName,
		Specialty: strings.TrimSpace(req.Specialty),
		IsActive:  true,
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := h.Trainers.Create(ctx, t); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Get returns one trainer.
func (h *TrainerHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trainer id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Trainers.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// List returns the trainer directory; sits behind the response cache.
func (h *TrainerHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	trainers, err := h.Trainers.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"trainers": trainers})
}

// Update changes a trainer's details or active flag.
func (h *TrainerHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trainer id"})
	}
	var req trainerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t := &model.Trainer{ID: id, FullName: req.FullName, Specialty: strings.TrimSpace(req.Specialty), IsActive: true}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := h.Trainers.Update(ctx, t); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}
