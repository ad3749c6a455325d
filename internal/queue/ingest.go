package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cinegraph/backend/internal/jobs"
	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/ingest"
	"github.com/cinegraph/backend/pkg/leaselock"
	"github.com/cinegraph/backend/pkg/logger"
)

// IngestJobMsg is the payload published to the ingest queue for one batch
// run.
type IngestJobMsg struct {
	JobID           string `json:"job_id"`
	ParticipantName string `json:"participant_name"`
}

// ProcessIngestMessage decodes one ingest job and runs the batch driver for
// it. Per-row failures are part of the summary, not an error; an error
// return means the job should be retried.
//
// JobStore and locks are optional. With a lock client the run holds a lease
// keyed on the participant name, so two workers never ingest the same
// participant concurrently; a busy lease is returned as an error and the
// message bounces through the retry queue.
func ProcessIngestMessage(ctx context.Context, driver *ingest.Driver, jobStore *jobs.Store, locks *leaselock.Client, msg string) (common.Summary, error) {
	data := new(IngestJobMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return common.Summary{}, fmt.Errorf("failed to decode ingest job: %w", err)
	}
	if data.ParticipantName == "" {
		return common.Summary{}, fmt.Errorf("ingest job %q has no participant name", data.JobID)
	}

	logger.Info("[Queue] Running ingest job", "job_id", data.JobID, "participant", data.ParticipantName)

	if jobStore != nil {
		if err := jobStore.MarkRunning(ctx, data.JobID); err != nil {
			logger.Warn("[Queue] Failed to mark job running", "job_id", data.JobID, "err", err)
		}
	}

	start := time.Now()

	var summary common.Summary
	var runErr error
	run := func(ctx context.Context) error {
		summary, runErr = driver.IngestForParticipant(ctx, data.ParticipantName)
		return runErr
	}

	if locks != nil {
		err := locks.WithLease(ctx, "ingest:"+data.ParticipantName, leaselock.Options{}, run)
		if errors.Is(err, leaselock.ErrBusy) {
			return summary, fmt.Errorf("participant %q is already being ingested: %w", data.ParticipantName, err)
		}
		if err != nil && runErr == nil {
			// Lease acquisition or renewal failed before the batch ran.
			return summary, fmt.Errorf("ingest job %q could not hold its lease: %w", data.JobID, err)
		}
	} else {
		_ = run(ctx)
	}

	duration := time.Since(start)

	if runErr != nil {
		if jobStore != nil {
			if err := jobStore.Fail(ctx, data.JobID, summary, runErr.Error(), duration); err != nil {
				logger.Warn("[Queue] Failed to record job failure", "job_id", data.JobID, "err", err)
			}
		}
		return summary, fmt.Errorf("ingest job %q failed: %w", data.JobID, runErr)
	}

	if jobStore != nil {
		if err := jobStore.Complete(ctx, data.JobID, summary, duration); err != nil {
			logger.Warn("[Queue] Failed to record job completion", "job_id", data.JobID, "err", err)
		}
	}
	return summary, nil
}
