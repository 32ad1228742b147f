package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finanalyzer/api/internal/model"
)

func newJob(id string, createdAt time.Time) *model.Job {
	return &model.Job{
		ID:        id,
		Filename:  "report.pdf",
		Query:     "analyze",
		Status:    model.JobStatusPending,
		CreatedAt: createdAt,
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Create(ctx, newJob("a", time.Now())))

	job, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", job.ID)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Nil(t, job.Result)
	assert.Nil(t, job.Error)
	assert.Nil(t, job.CompletedAt)

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, newJob("a", time.Now())))

	first, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	first.Status = model.JobStatusFailed

	second, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, second.Status)
}

func TestMemoryStore_CompletedJobInvariants(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, newJob("a", time.Now())))

	require.NoError(t, s.MarkProcessing(ctx, "a"))
	require.NoError(t, s.Complete(ctx, "a", "the report"))

	job, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	require.NotNil(t, job.Result)
	assert.Equal(t, "the report", *job.Result)
	assert.Nil(t, job.Error)
	require.NotNil(t, job.CompletedAt)
}

func TestMemoryStore_FailedJobInvariants(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, newJob("a", time.Now())))

	require.NoError(t, s.MarkProcessing(ctx, "a"))
	require.NoError(t, s.Fail(ctx, "a", "extraction blew up"))

	job, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, "extraction blew up", *job.Error)
	assert.Nil(t, job.Result)
	require.NotNil(t, job.CompletedAt)
}

func TestMemoryStore_TerminalStatesAreFinal(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, newJob("a", time.Now())))
	require.NoError(t, s.Complete(ctx, "a", "done"))

	// Every later transition is a silent no-op.
	require.NoError(t, s.Fail(ctx, "a", "too late"))
	require.NoError(t, s.MarkProcessing(ctx, "a"))
	require.NoError(t, s.Complete(ctx, "a", "done again"))

	job, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	require.NotNil(t, job.Result)
	assert.Equal(t, "done", *job.Result)
	assert.Nil(t, job.Error)
}

func TestMemoryStore_TransitionsOnMissingJob(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	assert.ErrorIs(t, s.MarkProcessing(ctx, "ghost"), ErrJobNotFound)
	assert.ErrorIs(t, s.Complete(ctx, "ghost", "r"), ErrJobNotFound)
	assert.ErrorIs(t, s.Fail(ctx, "ghost", "e"), ErrJobNotFound)
}

func TestMemoryStore_ListNewestFirstWithPagination(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("job-%d", i)
		require.NoError(t, s.Create(ctx, newJob(id, base.Add(time.Duration(i)*time.Minute))))
	}

	all, err := s.List(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("job-%d", 4-i), all[i].ID)
	}

	page, err := s.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "job-3", page[0].ID)
	assert.Equal(t, "job-2", page[1].ID)

	empty, err := s.List(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
