package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finanalyzer/api/internal/model"
	"github.com/finanalyzer/api/internal/store"
)

func newTestService(t *testing.T, jobStore store.JobStore, ex *stubExtractor) (*AnalysisService, string) {
	t.Helper()
	dataDir := t.TempDir()
	runner := newTestRunner(t, jobStore, ex)
	return NewAnalysisService(jobStore, nil, runner, dataDir, zap.NewNop()), dataDir
}

func TestCreateJob_Defaults(t *testing.T) {
	ctx := context.Background()
	jobStore := store.NewMemoryStore()
	svc, _ := newTestService(t, jobStore, &stubExtractor{})

	job, err := svc.CreateJob(ctx, "report.pdf", "  \t ")
	require.NoError(t, err)
	assert.Equal(t, DefaultQuery, job.Query)
	assert.Equal(t, "report.pdf", job.Filename)
	assert.Equal(t, model.JobStatusPending, job.Status)
	require.NoError(t, uuid.Validate(job.ID))

	// The PENDING record is durable before any pipeline work starts.
	stored, err := jobStore.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, stored.Status)

	job, err = svc.CreateJob(ctx, "", "what changed")
	require.NoError(t, err)
	assert.Equal(t, "unknown.pdf", job.Filename)
	assert.Equal(t, "what changed", job.Query)
}

func TestSaveUpload_PerJobNaming(t *testing.T) {
	jobStore := store.NewMemoryStore()
	svc, dataDir := newTestService(t, jobStore, &stubExtractor{})

	job, err := svc.CreateJob(context.Background(), "doc.pdf", "q")
	require.NoError(t, err)

	path, err := svc.SaveUpload(job, strings.NewReader("%PDF-1.4 body"))
	require.NoError(t, err)
	assert.Equal(t, "financial_document_"+job.ID+".pdf", filepath.Base(path))
	assert.Equal(t, dataDir, filepath.Dir(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(raw))
}

func TestAnalyzeSync_RemovesUploadAndFailsJobOnError(t *testing.T) {
	ctx := context.Background()
	jobStore := store.NewMemoryStore()
	ex := &stubExtractor{err: eris.New("extract failed")}
	svc, _ := newTestService(t, jobStore, ex)

	job, err := svc.CreateJob(ctx, "doc.pdf", "q")
	require.NoError(t, err)
	path, err := svc.SaveUpload(job, strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	_, runErr := svc.AnalyzeSync(ctx, job, path)
	require.Error(t, runErr)
	assert.NoFileExists(t, path)

	stored, err := jobStore.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, stored.Status)
	require.NotNil(t, stored.Error)
}

func TestAnalyzeSync_RemovesUploadOnSuccess(t *testing.T) {
	ctx := context.Background()
	jobStore := store.NewMemoryStore()
	ex := &stubExtractor{text: "Income statement: revenue grew 12% to $4.2 million."}
	svc, _ := newTestService(t, jobStore, ex)

	job, err := svc.CreateJob(ctx, "doc.pdf", "q")
	require.NoError(t, err)
	path, err := svc.SaveUpload(job, strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	out, runErr := svc.AnalyzeSync(ctx, job, path)
	require.NoError(t, runErr)
	assert.NoFileExists(t, path)

	assert.Equal(t, "success", out.Status)
	assert.Equal(t, job.ID, out.AnalysisID)
	assert.NotEmpty(t, out.Analysis)
	assert.NotEmpty(t, out.OutputFile)
}
