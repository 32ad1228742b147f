package worker

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finanalyzer/api/internal/extract"
	"github.com/finanalyzer/api/internal/model"
	"github.com/finanalyzer/api/internal/service"
	"github.com/finanalyzer/api/internal/store"
)

// AnalysisWorker consumes queued analysis tasks. It owns the retry
// policy for the queued path: a failed run is re-attempted with linear
// backoff (baseDelay * attempt) up to maxRetries extra attempts, then
// the job is failed with the last error recorded verbatim. A missing
// upload fails on the first attempt, since no retry can bring the file
// back. The loop is deliberately independent of asynq's own retry
// machinery so the policy survives a change of queue transport.
type AnalysisWorker struct {
	store      store.JobStore
	runner     *service.Runner
	maxRetries int
	baseDelay  time.Duration
	log        *zap.Logger
}

func NewAnalysisWorker(
	jobStore store.JobStore,
	runner *service.Runner,
	maxRetries int,
	baseDelay time.Duration,
	log *zap.Logger,
) *AnalysisWorker {
	return &AnalysisWorker{
		store:      jobStore,
		runner:     runner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		log:        log,
	}
}

// ProcessTask handles one queued analysis end-to-end. The temporary
// upload is removed on every exit path, including the record-not-found
// drop. A nil return consumes the task; the terminal job state is the
// source of truth for callers, not the queue.
func (w *AnalysisWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.AnalyzeTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return eris.Wrap(err, "unmarshal task payload")
	}

	defer w.removeUpload(payload.SourcePath)

	// Re-resolve the record: the payload's duplicated fields may be
	// stale, only the id and the upload path are trusted.
	job, err := w.store.GetByID(ctx, payload.JobID)
	if eris.Is(err, store.ErrJobNotFound) {
		// Record vanished between creation and processing. Nothing to
		// mark failed, nothing to retry: drop the unit of work.
		w.log.Error("job record missing, dropping task",
			zap.String("analysis_id", payload.JobID))
		return nil
	}
	if err != nil {
		return eris.Wrap(err, "resolve job record")
	}

	var lastErr error
	attempts := w.maxRetries + 1
	if attempts < 1 {
		attempts = 1
	}
retry:
	for attempt := 1; attempt <= attempts; attempt++ {
		_, _, err := w.runner.Process(ctx, job, payload.SourcePath)
		if err == nil {
			return nil
		}
		lastErr = err
		w.log.Warn("analysis attempt failed",
			zap.String("analysis_id", job.ID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		// A vanished upload cannot come back on a later attempt.
		if eris.Is(err, extract.ErrNotFound) {
			break
		}
		if attempt == attempts {
			break
		}

		delay := w.baseDelay * time.Duration(attempt)
		w.log.Info("scheduling retry",
			zap.String("analysis_id", job.ID),
			zap.Int("next_attempt", attempt+1),
			zap.Duration("delay", delay))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			lastErr = eris.Wrap(ctx.Err(), "retry wait interrupted")
			break retry
		}
	}

	if failErr := w.store.Fail(ctx, job.ID, lastErr.Error()); failErr != nil {
		w.log.Error("failed to record job failure",
			zap.String("analysis_id", job.ID),
			zap.Error(failErr))
		return failErr
	}

	w.log.Error("analysis failed after exhausting retries",
		zap.String("analysis_id", job.ID),
		zap.Int("attempts", attempts),
		zap.Error(lastErr))
	return nil
}

func (w *AnalysisWorker) removeUpload(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		w.log.Warn("could not remove upload", zap.String("path", path), zap.Error(err))
	}
}
