package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
)

type workScheduleRepository struct {
	s *Store
}

// SeedSchedule stores a schedule and returns it with its id.
func (s *Store) SeedSchedule(ws schedule.WorkSchedule) schedule.WorkSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ws.ID == "" {
		ws.ID = newID()
	}
	s.schedules[ws.ID] = ws
	return ws
}

// SeedAssignment assigns a stored schedule to an employee from start, open ended
// when end is nil.
func (s *Store) SeedAssignment(employeeID, scheduleID string, start time.Time, end *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = append(s.assignments, schedule.EmployeeScheduleAssignment{
		ID:             newID(),
		EmployeeID:     employeeID,
		WorkScheduleID: scheduleID,
		StartDate:      start,
		EndDate:        end,
	})
}

func (r *workScheduleRepository) GetByID(ctx context.Context, id string) (schedule.WorkSchedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ws, ok := r.s.schedules[id]
	if !ok {
		return schedule.WorkSchedule{}, schedule.ErrWorkScheduleNotFound
	}
	return ws, nil
}

func (r *workScheduleRepository) GetTimeline(ctx context.Context, employeeID string, start, end time.Time) (schedule.Timeline, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var timeline schedule.Timeline
	for _, a := range r.s.assignments {
		if a.EmployeeID != employeeID || a.StartDate.After(end) {
			continue
		}
		if a.EndDate != nil && a.EndDate.Before(start) {
			continue
		}
		a.Week = r.s.schedules[a.WorkScheduleID].Week
		timeline = append(timeline, a)
	}
	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].StartDate.Before(timeline[j].StartDate)
	})
	return timeline, nil
}

func NewWorkScheduleRepository(s *Store) schedule.WorkScheduleRepository {
	return &workScheduleRepository{s: s}
}
