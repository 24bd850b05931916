package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-operations/internal/handler"
	"github.com/iliyamo/gym-operations/internal/middleware"
	"github.com/iliyamo/gym-operations/internal/model"
)

// RegisterMember registers the member-facing enrollment and waitlist
// routes.  Reception and admin accounts may also call them on a
// member's behalf via ?member_id=.  rateMW is the token-bucket
// limiter; enrollment bursts around popular class openings are the
// traffic this protects against.
func RegisterMember(
	e *echo.Echo,
	jwtSecret string,
	rateMW echo.MiddlewareFunc,
	sessions *handler.SessionHandler,
	waitlists *handler.WaitlistHandler,
	workouts *handler.WorkoutHandler,
	progress *handler.ProgressHandler,
) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleMember, model.RoleReception, model.RoleAdmin))
	g.Use(rateMW)

	g.POST("/sessions/:id/enroll", sessions.Enroll)
	g.DELETE("/sessions/:id/enroll", sessions.CancelEnrollment)
	g.POST("/waitlist/:id/confirm", waitlists.Confirm)
	g.DELETE("/waitlist/:id", waitlists.Withdraw)

	g.GET("/workout-plans", workouts.List)
	g.GET("/workout-plans/:id", workouts.Get)
	g.POST("/workout-plans/:id/progress", progress.Log)
	g.GET("/workout-plans/:id/progress", progress.History)
}
