package service

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finanalyzer/api/internal/agent"
	"github.com/finanalyzer/api/internal/extract"
	"github.com/finanalyzer/api/internal/model"
	"github.com/finanalyzer/api/internal/report"
	"github.com/finanalyzer/api/internal/store"
)

// Runner executes the full analysis for one job: durable transition to
// processing, one-time text extraction, the four-stage pipeline, and
// the terminal COMPLETED transition plus artifact write. It is shared
// by the immediate and queued paths and never retries; failure
// terminalization and retry policy belong to the caller, which keeps a
// run idempotent-safe to re-invoke from scratch.
type Runner struct {
	store     store.JobStore
	extractor extract.Extractor
	registry  *agent.Registry
	pipeline  *agent.Pipeline
	writer    *report.Writer
	log       *zap.Logger
}

func NewRunner(
	jobStore store.JobStore,
	extractor extract.Extractor,
	registry *agent.Registry,
	pipeline *agent.Pipeline,
	writer *report.Writer,
	log *zap.Logger,
) *Runner {
	return &Runner{
		store:     jobStore,
		extractor: extractor,
		registry:  registry,
		pipeline:  pipeline,
		writer:    writer,
		log:       log,
	}
}

// Process runs the pipeline for job and returns the transcript and the
// artifact path. The PROCESSING transition is committed before
// extraction starts, and COMPLETED is committed before the artifact is
// written, so a crash in between always leaves a correctly-labeled
// state behind. On error the job is left in PROCESSING for the caller
// to retry or fail.
func (r *Runner) Process(ctx context.Context, job *model.Job, sourcePath string) (string, string, error) {
	if err := r.store.MarkProcessing(ctx, job.ID); err != nil {
		return "", "", eris.Wrap(err, "mark processing")
	}

	// The document is read exactly once; all stages share the text.
	text, err := r.extractor.Extract(sourcePath)
	if err != nil {
		return "", "", err
	}

	pc := &agent.Context{
		Query:        job.Query,
		SourcePath:   sourcePath,
		DocumentText: text,
	}

	transcript, err := r.pipeline.Run(ctx, r.registry.Stages(), pc)
	if err != nil {
		return "", "", err
	}

	if err := r.store.Complete(ctx, job.ID, transcript); err != nil {
		return "", "", eris.Wrap(err, "record completion")
	}

	outPath, err := r.writer.Write(job.ID, job.Filename, job.Query, transcript)
	if err != nil {
		// The terminal state is already durable; the artifact is
		// recoverable from the stored result.
		r.log.Error("artifact write failed",
			zap.String("analysis_id", job.ID),
			zap.Error(err))
		return transcript, "", nil
	}

	r.log.Info("analysis complete",
		zap.String("analysis_id", job.ID),
		zap.String("output_file", outPath))
	return transcript, outPath, nil
}
