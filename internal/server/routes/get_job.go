package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinegraph/backend/internal/jobs"
	"github.com/cinegraph/backend/internal/server/middleware"
	"github.com/cinegraph/backend/pkg/logger"
)

// GetJobHandler reports the status and summary counters of one ingest job.
func GetJobHandler(c echo.Context) error {
	jobID := c.Param("id")
	if jobID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Missing job id"})
	}

	app := c.(*middleware.AppContext).App
	if app.Jobs == nil {
		return c.JSON(http.StatusNotImplemented, map[string]string{"message": "Job tracking is not configured"})
	}

	job, err := app.Jobs.Get(c.Request().Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"message": "Job not found"})
		}
		logger.Error("[Server] Failed to load ingest job", "job_id", jobID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load job"})
	}

	return c.JSON(http.StatusOK, job)
}
