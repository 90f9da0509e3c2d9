// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/predator49/train-reservation/internal/handler"
	"github.com/predator49/train-reservation/internal/middleware"
	"github.com/predator49/train-reservation/internal/model"
)

// RegisterRoutes registers the unauthenticated health checks. db backs /readyz.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the account endpoints. Token exchange lives under
// /v1/auth without a session; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, v *middleware.Verifier) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// accepts either a refresh_token body or a bearer token
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1",
		middleware.JWTAuth(v),
		middleware.RequireRole(model.RolePassenger, model.RoleAdmin),
	)
	auth.GET("/me", a.Me)
}
