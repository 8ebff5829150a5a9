package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
)

type eventRepository struct {
	s *Store
}

func (r *eventRepository) Create(ctx context.Context, event attendance.Event) (attendance.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if event.ID == "" {
		event.ID = newID()
	}
	now := time.Now()
	event.CreatedAt, event.UpdatedAt = now, now
	r.s.events[event.ID] = event
	return event, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (attendance.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ev, ok := r.s.events[id]
	if !ok {
		return attendance.Event{}, attendance.ErrEventNotFound
	}
	return ev, nil
}

func (r *eventRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []attendance.Event
	for _, ev := range r.s.events {
		if ev.EmployeeID == employeeID && !ev.OccurredAt.Before(from) && ev.OccurredAt.Before(to) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *eventRepository) Update(ctx context.Context, event attendance.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.events[event.ID]
	if !ok {
		return attendance.ErrEventNotFound
	}
	existing.OccurredAt = event.OccurredAt
	existing.LateMinutes = event.LateMinutes
	existing.LateIgnored = event.LateIgnored
	existing.UpdatedAt = time.Now()
	r.s.events[event.ID] = existing
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return attendance.ErrEventNotFound
	}
	delete(r.s.events, id)
	return nil
}

func (r *eventRepository) DeleteByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, ev := range r.s.events {
		if ev.EmployeeID == employeeID && !ev.OccurredAt.Before(from) && ev.OccurredAt.Before(to) {
			delete(r.s.events, id)
			n++
		}
	}
	return n, nil
}

func NewEventRepository(s *Store) attendance.EventRepository {
	return &eventRepository{s: s}
}
