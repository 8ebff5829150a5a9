package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/jobrun"
)

type runRepository struct {
	s *Store
}

func (r *runRepository) Start(ctx context.Context, jobType string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	run := jobrun.Run{ID: newID(), JobType: jobType, Status: jobrun.StatusRunning, StartedAt: time.Now()}
	r.s.runs[run.ID] = run
	return run.ID, nil
}

func (r *runRepository) Finish(ctx context.Context, id string, status jobrun.Status, details any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode job details: %w", err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	run, ok := r.s.runs[id]
	if !ok {
		return jobrun.ErrRunNotFound
	}
	now := time.Now()
	run.Status = status
	run.Details = payload
	run.CompletedAt = &now
	r.s.runs[id] = run
	return nil
}

func (r *runRepository) LastCompleted(ctx context.Context, jobType string) (jobrun.Run, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var last jobrun.Run
	found := false
	for _, run := range r.s.runs {
		if run.JobType != jobType || run.Status != jobrun.StatusCompleted {
			continue
		}
		if !found || run.StartedAt.After(last.StartedAt) {
			last, found = run, true
		}
	}
	if !found {
		return jobrun.Run{}, jobrun.ErrRunNotFound
	}
	return last, nil
}

// Runs returns every recorded run of jobType.
func (s *Store) Runs(jobType string) []jobrun.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []jobrun.Run
	for _, run := range s.runs {
		if run.JobType == jobType {
			out = append(out, run)
		}
	}
	return out
}

func NewRunRepository(s *Store) jobrun.RunRepository {
	return &runRepository{s: s}
}
