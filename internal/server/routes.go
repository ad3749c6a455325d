package server

import (
	"github.com/labstack/echo/v4"

	"github.com/cinegraph/backend/internal/server/middleware"
	"github.com/cinegraph/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Ingestion routes
	apiRoutes.POST("/ingest", routes.PostIngestHandler)
	apiRoutes.GET("/jobs/:id", routes.GetJobHandler)
}
