package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/finanalyzer/api/internal/model"
)

// ErrJobNotFound is returned when the referenced job record does not exist.
var ErrJobNotFound = eris.New("job not found")

// JobStore is the durable record of job identity, status, inputs and
// outputs. It is the only state shared between the immediate and queued
// execution paths, so every status mutation must be applied atomically
// relative to reads of the same record.
//
// Terminal transitions are exactly-once: Complete and Fail are no-ops on
// a job that already reached a terminal status, and MarkProcessing can
// re-enter processing (worker retry) but never resurrect a terminal job.
type JobStore interface {
	Create(ctx context.Context, job *model.Job) error
	GetByID(ctx context.Context, id string) (*model.Job, error)
	// List returns jobs in creation-time-descending order.
	List(ctx context.Context, skip, limit int) ([]model.Job, error)
	MarkProcessing(ctx context.Context, id string) error
	Complete(ctx context.Context, id, result string) error
	Fail(ctx context.Context, id, errMsg string) error
}
