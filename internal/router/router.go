// Package router registers the HTTP routes and their middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/program-discovery/internal/handler"
	"github.com/iliyamo/program-discovery/internal/middleware"
	"github.com/iliyamo/program-discovery/internal/utils"
)

// RegisterRoutes registers routes that need no authentication or throttling.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the discovery endpoints behind the rate limiter.
func RegisterPublic(e *echo.Echo, h *handler.DiscoveryHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/discovery", limit)
	g.GET("/events", h.ListEvents)
	g.GET("/:slug/events", h.ListEvents)
}

// RegisterAdmin registers page maintenance endpoints.  They require a valid
// JWT carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)
	g.POST("/pages/:slug/refresh", h.RequestRefresh)
	g.DELETE("/pages/:slug/cache", h.PurgeCache)
}
