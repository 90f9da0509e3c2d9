package router

import (
	"github.com/labstack/echo/v4"

	"github.com/predator49/train-reservation/internal/handler"
	"github.com/predator49/train-reservation/internal/middleware"
	"github.com/predator49/train-reservation/internal/model"
)

// RegisterSeats registers the seat map and booking endpoints under
// /v1/seats. Every route requires a valid access token; mutations also
// pass through limiter.
func RegisterSeats(e *echo.Echo, h *handler.SeatHandler, v *middleware.Verifier, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/seats",
		middleware.JWTAuth(v),
		middleware.RequireRole(model.RolePassenger, model.RoleAdmin),
	)
	g.GET("", h.List)
	g.GET("/layout", h.Layout)
	g.GET("/allocate", h.Allocate)
	g.GET("/mine", h.Mine)

	g.POST("/book", h.Book, limiter)
	g.POST("/book/auto", h.BookAuto, limiter)
	g.POST("/cancel", h.Cancel, limiter)
	g.POST("/reset", h.Reset, limiter)
}
