package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finanalyzer/api/internal/model"
	"github.com/finanalyzer/api/internal/store"
)

const (
	// DefaultQuery is substituted when a submission carries a blank query.
	DefaultQuery = "Analyze this financial document for investment insights"

	// TaskTypeAnalyze is the asynq task type for queued analyses.
	TaskTypeAnalyze = "analysis:process"

	// QueueAnalysis is the asynq queue queued analyses go to.
	QueueAnalysis = "analysis"
)

// AnalysisService owns job creation and the two execution paths: the
// immediate path runs the pipeline within the originating request, the
// queued path hands a minimal work item to the worker pool.
type AnalysisService struct {
	store       store.JobStore
	asynqClient *asynq.Client
	runner      *Runner
	dataDir     string
	log         *zap.Logger
}

func NewAnalysisService(
	jobStore store.JobStore,
	asynqClient *asynq.Client,
	runner *Runner,
	dataDir string,
	log *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		store:       jobStore,
		asynqClient: asynqClient,
		runner:      runner,
		dataDir:     dataDir,
		log:         log,
	}
}

// CreateJob records a new PENDING job, strictly before any extraction
// or pipeline work begins. A blank query falls back to DefaultQuery.
func (s *AnalysisService) CreateJob(ctx context.Context, filename, query string) (*model.Job, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		query = DefaultQuery
	}
	if filename == "" {
		filename = "unknown.pdf"
	}

	job := &model.Job{
		ID:        uuid.New().String(),
		Filename:  filename,
		Query:     query,
		Status:    model.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, eris.Wrap(err, "create job record")
	}

	s.log.Info("job created",
		zap.String("analysis_id", job.ID),
		zap.String("filename", filename))
	return job, nil
}

// SaveUpload writes the uploaded document to the data directory under a
// per-job name and returns its path. The file is owned exclusively by
// this job and removed by whichever execution path finishes it.
func (s *AnalysisService) SaveUpload(job *model.Job, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return "", eris.Wrap(err, "create data dir")
	}
	path := filepath.Join(s.dataDir, fmt.Sprintf("financial_document_%s.pdf", job.ID))

	dst, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "create upload file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", eris.Wrap(err, "write upload file")
	}
	return path, nil
}

// AnalyzeSync is the immediate path: it blocks the caller for the full
// pipeline duration and removes the upload on every exit.
func (s *AnalysisService) AnalyzeSync(ctx context.Context, job *model.Job, sourcePath string) (*model.AnalyzeResponse, error) {
	defer s.removeUpload(sourcePath)

	transcript, outPath, err := s.runner.Process(ctx, job, sourcePath)
	if err != nil {
		if failErr := s.store.Fail(ctx, job.ID, err.Error()); failErr != nil {
			s.log.Error("failed to record job failure",
				zap.String("analysis_id", job.ID),
				zap.Error(failErr))
		}
		return nil, err
	}

	return &model.AnalyzeResponse{
		Status:        "success",
		AnalysisID:    job.ID,
		Query:         job.Query,
		Analysis:      transcript,
		FileProcessed: job.Filename,
		OutputFile:    outPath,
	}, nil
}

// EnqueueAnalysis is the queued path: it hands off a minimal work item
// and returns immediately; callers poll the job record for completion.
// Transport-level retries stay off because the worker owns the retry
// loop.
func (s *AnalysisService) EnqueueAnalysis(ctx context.Context, job *model.Job, sourcePath string) error {
	payload, err := json.Marshal(model.AnalyzeTaskPayload{
		JobID:      job.ID,
		Query:      job.Query,
		SourcePath: sourcePath,
	})
	if err != nil {
		return eris.Wrap(err, "marshal task payload")
	}

	task := asynq.NewTask(TaskTypeAnalyze, payload)
	_, err = s.asynqClient.EnqueueContext(ctx, task,
		asynq.Queue(QueueAnalysis),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		// Nothing will ever pick this job up: clean up and fail it now.
		s.removeUpload(sourcePath)
		if failErr := s.store.Fail(ctx, job.ID, "could not enqueue analysis: "+err.Error()); failErr != nil {
			s.log.Error("failed to record enqueue failure",
				zap.String("analysis_id", job.ID),
				zap.Error(failErr))
		}
		return eris.Wrap(err, "enqueue analysis task")
	}

	s.log.Info("analysis queued", zap.String("analysis_id", job.ID))
	return nil
}

// GetAnalysis returns the job record by id.
func (s *AnalysisService) GetAnalysis(ctx context.Context, id string) (*model.Job, error) {
	return s.store.GetByID(ctx, id)
}

// ListAnalyses returns recent jobs, newest first.
func (s *AnalysisService) ListAnalyses(ctx context.Context, skip, limit int) ([]model.AnalysisSummary, error) {
	jobs, err := s.store.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.AnalysisSummary, 0, len(jobs))
	for i := range jobs {
		summaries = append(summaries, jobs[i].Summary())
	}
	return summaries, nil
}

func (s *AnalysisService) removeUpload(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("could not remove upload", zap.String("path", path), zap.Error(err))
	}
}
