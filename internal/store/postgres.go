package store

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/finanalyzer/api/internal/model"
)

// PostgresStore persists job records via GORM.
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgres connects to the database and migrates the job table.
func OpenPostgres(url string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, eris.Wrap(err, "open postgres")
	}
	if err := db.AutoMigrate(&model.Job{}); err != nil {
		return nil, eris.Wrap(err, "migrate job table")
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Create(ctx context.Context, job *model.Job) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return eris.Wrap(err, "create job")
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job model.Job
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "get job")
	}
	return &job, nil
}

func (s *PostgresStore) List(ctx context.Context, skip, limit int) ([]model.Job, error) {
	var jobs []model.Job
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, eris.Wrap(err, "list jobs")
	}
	return jobs, nil
}

func (s *PostgresStore) MarkProcessing(ctx context.Context, id string) error {
	return s.transition(ctx, id, map[string]interface{}{
		"status": model.JobStatusProcessing,
	})
}

func (s *PostgresStore) Complete(ctx context.Context, id, result string) error {
	return s.transition(ctx, id, map[string]interface{}{
		"status":       model.JobStatusCompleted,
		"result":       result,
		"completed_at": time.Now().UTC(),
	})
}

func (s *PostgresStore) Fail(ctx context.Context, id, errMsg string) error {
	return s.transition(ctx, id, map[string]interface{}{
		"status":       model.JobStatusFailed,
		"error":        errMsg,
		"completed_at": time.Now().UTC(),
	})
}

// transition applies a status update guarded against resurrecting a
// terminal job. A no-op on an already-terminal record is not an error;
// a missing record is.
func (s *PostgresStore) transition(ctx context.Context, id string, updates map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&model.Job{}).
		Where("id = ? AND status NOT IN ?", id, []model.JobStatus{
			model.JobStatusCompleted,
			model.JobStatusFailed,
		}).
		Updates(updates)
	if res.Error != nil {
		return eris.Wrap(res.Error, "update job status")
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
