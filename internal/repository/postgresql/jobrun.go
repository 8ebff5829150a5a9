package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/jobrun"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type runRepository struct {
	db *database.DB
}

// Start implements jobrun.RunRepository.
func (r *runRepository) Start(ctx context.Context, jobType string) (string, error) {
	q := GetQuerier(ctx, r.db)

	id := newID()
	_, err := q.Exec(ctx, `
		INSERT INTO job_runs (id, job_type, status, started_at)
		VALUES ($1, $2, $3, NOW())
	`, id, jobType, jobrun.StatusRunning)
	if err != nil {
		return "", fmt.Errorf("failed to record job start: %w", err)
	}
	return id, nil
}

// Finish implements jobrun.RunRepository.
func (r *runRepository) Finish(ctx context.Context, id string, status jobrun.Status, details any) error {
	q := GetQuerier(ctx, r.db)

	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode job details: %w", err)
	}

	tag, err := q.Exec(ctx, `
		UPDATE job_runs SET status = $2, details_json = $3, completed_at = NOW()
		WHERE id = $1
	`, id, status, raw)
	if err != nil {
		return fmt.Errorf("failed to record job finish: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return jobrun.ErrRunNotFound
	}
	return nil
}

// LastCompleted implements jobrun.RunRepository.
func (r *runRepository) LastCompleted(ctx context.Context, jobType string) (jobrun.Run, error) {
	q := GetQuerier(ctx, r.db)

	var run jobrun.Run
	err := q.QueryRow(ctx, `
		SELECT id, job_type, status, details_json, started_at, completed_at
		FROM job_runs
		WHERE job_type = $1 AND status = 'completed'
		ORDER BY started_at DESC
		LIMIT 1
	`, jobType).Scan(&run.ID, &run.JobType, &run.Status, &run.Details, &run.StartedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return jobrun.Run{}, jobrun.ErrRunNotFound
		}
		return jobrun.Run{}, fmt.Errorf("failed to get last job run: %w", err)
	}
	return run, nil
}

func NewRunRepository(db *database.DB) jobrun.RunRepository {
	return &runRepository{db: db}
}
