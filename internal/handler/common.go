// Package handler defines the HTTP handlers for the gym operations
// API.  Handlers translate between the wire format and the engines
// and repositories; they contain no decision logic of their own.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-operations/internal/repository"
)

// dbTimeout bounds every request-scoped database call.
const dbTimeout = 5 * time.Second

// reqCtx derives a bounded context from the request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// getUserID extracts the authenticated user id stored by the JWT
// middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// errInvalidMemberID rejects malformed member_id overrides from staff.
var errInvalidMemberID = errors.New("invalid member_id")

// atoiDefault parses s as an int, falling back to def.
func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// fail maps repository and coordinator errors onto HTTP responses.
// NotFound sentinels map to 404, business-rule conflicts to 409, and
// a lapsed confirmation deadline to 410; everything else is a server
// error with a generic message.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrMemberNotFound),
		errors.Is(err, repository.ErrTrainerNotFound),
		errors.Is(err, repository.ErrPlanNotFound),
		errors.Is(err, repository.ErrSubscriptionNotFound),
		errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, repository.ErrEnrollmentNotFound),
		errors.Is(err, repository.ErrEntryNotFound),
		errors.Is(err, repository.ErrWorkoutPlanNotFound),
		errors.Is(err, repository.ErrExerciseNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrDeadlineExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrAlreadyEnrolled),
		errors.Is(err, repository.ErrAlreadyWaitlisted),
		errors.Is(err, repository.ErrSessionClosed),
		errors.Is(err, repository.ErrSessionNotFull),
		errors.Is(err, repository.ErrNotPromoted),
		errors.Is(err, repository.ErrNotWaiting),
		errors.Is(err, repository.ErrNoActiveEnrollment),
		errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
