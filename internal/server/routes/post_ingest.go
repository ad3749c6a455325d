package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/cinegraph/backend/internal/queue"
	"github.com/cinegraph/backend/internal/server/middleware"
	"github.com/cinegraph/backend/pkg/logger"
)

// PostIngestHandler queues an ingestion job for one participant name. The
// worker picks the job up from the ingest queue and runs the batch driver.
func PostIngestHandler(c echo.Context) error {
	type postIngestBody struct {
		ParticipantName string `json:"participant_name" validate:"required"`
	}

	type postIngestResponse struct {
		Message string `json:"message"`
		JobID   string `json:"job_id,omitempty"`
	}

	data := new(postIngestBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, postIngestResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, postIngestResponse{
			Message: "Invalid request body",
		})
	}

	jobID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, postIngestResponse{
			Message: "Failed to create job",
		})
	}

	msg := queue.IngestJobMsg{
		JobID:           jobID,
		ParticipantName: data.ParticipantName,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, postIngestResponse{
			Message: "Failed to encode job",
		})
	}

	app := c.(*middleware.AppContext).App

	if app.Jobs != nil {
		if err := app.Jobs.Create(c.Request().Context(), jobID, data.ParticipantName); err != nil {
			logger.Error("[Server] Failed to record ingest job", "job_id", jobID, "err", err)
			return c.JSON(http.StatusInternalServerError, postIngestResponse{
				Message: "Failed to create job",
			})
		}
	}

	if err := queue.Publish(app.Ch, queue.IngestQueue, msgBytes); err != nil {
		logger.Error("[Server] Failed to publish ingest job", "job_id", jobID, "err", err)
		return c.JSON(http.StatusInternalServerError, postIngestResponse{
			Message: "Failed to queue job",
		})
	}

	logger.Info("[Server] Queued ingest job", "job_id", jobID, "participant", data.ParticipantName)

	return c.JSON(http.StatusAccepted, postIngestResponse{
		Message: "Ingest job queued",
		JobID:   jobID,
	})
}
