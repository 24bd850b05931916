package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-operations/internal/handler"
)

// RegisterBrowse registers the read-only browse endpoints: session
// listings, the trainer directory and the plan catalog.  They require
// no authentication and sit behind the Redis response cache passed in
// as cacheMW.
func RegisterBrowse(
	e *echo.Echo,
	cacheMW echo.MiddlewareFunc,
	sessions *handler.SessionHandler,
	trainers *handler.TrainerHandler,
	subs *handler.SubscriptionHandler,
) {
	g := e.Group("/v1", cacheMW)
	g.GET("/sessions", sessions.List)
	g.GET("/sessions/:id", sessions.Get)
	g.GET("/trainers", trainers.List)
	g.GET("/trainers/:id", trainers.Get)
	g.GET("/plans", subs.ListPlans)
}
