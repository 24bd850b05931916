package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-operations/internal/handler"
	"github.com/iliyamo/gym-operations/internal/middleware"
	"github.com/iliyamo/gym-operations/internal/model"
)

// RegisterReception registers the front-desk routes: the check-in
// terminal, member records and subscription management.  rateMW
// throttles the check-in route so a stuck badge reader cannot flood
// the admission engine.
func RegisterReception(
	e *echo.Echo,
	jwtSecret string,
	rateMW echo.MiddlewareFunc,
	checkins *handler.CheckinHandler,
	members *handler.MemberHandler,
	subs *handler.SubscriptionHandler,
	sessions *handler.SessionHandler,
	waitlists *handler.WaitlistHandler,
	workouts *handler.WorkoutHandler,
	progress *handler.ProgressHandler,
) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleReception, model.RoleAdmin))

	g.POST("/checkin", checkins.Create, rateMW)
	g.GET("/members/:id/checkins", checkins.History)

	g.POST("/members", members.Create)
	g.GET("/members", members.List)
	g.GET("/members/:id", members.Get)
	g.PUT("/members/:id", members.Update)

	g.POST("/subscriptions", subs.Subscribe)
	g.GET("/members/:id/subscriptions", subs.ListByMember)
	g.POST("/subscriptions/:id/freeze", subs.Freeze)
	g.POST("/payments/:id/paid", subs.MarkPaid)

	g.GET("/sessions/:id/enrollments", sessions.ListEnrollments)
	g.GET("/sessions/:id/waitlist", waitlists.ListBySession)

	g.POST("/workout-plans", workouts.Create)
	g.GET("/trainers/:id/progress", progress.TrainerSummary)
}

// RegisterAdmin registers admin-only routes: trainer and session
// administration, member removal, role grants and financial
// reporting.
func RegisterAdmin(
	e *echo.Echo,
	jwtSecret string,
	auth *handler.AuthHandler,
	members *handler.MemberHandler,
	trainers *handler.TrainerHandler,
	sessions *handler.SessionHandler,
	subs *handler.SubscriptionHandler,
	reports *handler.ReportHandler,
) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	g.POST("/trainers", trainers.Create)
	g.PUT("/trainers/:id", trainers.Update)

	g.POST("/sessions", sessions.Create)
	g.POST("/sessions/:id/close", sessions.Close)
	g.DELETE("/sessions/:id", sessions.Delete)

	g.DELETE("/members/:id", members.Delete)
	g.POST("/plans", subs.CreatePlan)
	g.POST("/users/:id/role", auth.PromoteRole)

	g.GET("/reports/financial", reports.FinancialSummary)
}
