package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/incident"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
)

type typeRepository struct {
	s *Store
}

// SeedIncidentTypes registers one type per code, named after the code.
func (s *Store) SeedIncidentTypes(codes ...incident.Code) map[incident.Code]incident.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[incident.Code]incident.Type, len(codes))
	for _, code := range codes {
		t := incident.Type{ID: newID(), Name: string(code), Code: code}
		s.types[t.ID] = t
		out[code] = t
	}
	return out
}

func (r *typeRepository) GetByID(ctx context.Context, id string) (incident.Type, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.types[id]
	if !ok {
		return incident.Type{}, incident.ErrIncidentTypeNotFound
	}
	return t, nil
}

func (r *typeRepository) GetByCodes(ctx context.Context, codes []incident.Code) (map[incident.Code]incident.Type, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[incident.Code]incident.Type)
	for _, t := range r.s.types {
		for _, code := range codes {
			if t.Code == code {
				out[code] = t
			}
		}
	}
	return out, nil
}

func NewIncidentTypeRepository(s *Store) incident.TypeRepository {
	return &typeRepository{s: s}
}

type incidentRepository struct {
	s *Store
}

func (r *incidentRepository) Create(ctx context.Context, inc incident.Incident) (incident.Incident, error) {
	created, ok, err := r.CreateIfDayFree(ctx, inc)
	if err != nil {
		return incident.Incident{}, err
	}
	if !ok {
		return incident.Incident{}, incident.ErrDayAlreadyCovered
	}
	return created, nil
}

func (r *incidentRepository) CreateIfDayFree(ctx context.Context, inc incident.Incident) (incident.Incident, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if inc.EndDate.Before(inc.StartDate) {
		return incident.Incident{}, false, incident.ErrInvalidRange
	}
	t, ok := r.s.types[inc.TypeID]
	if !ok {
		return incident.Incident{}, false, incident.ErrIncidentTypeNotFound
	}
	days := inc.Days()
	for _, d := range days {
		if _, taken := r.s.incidentDays[dayKey{inc.EmployeeID, calendar.Key(d)}]; taken {
			return incident.Incident{}, false, nil
		}
	}
	inc.ID = newID()
	inc.Type = t
	if inc.Status == "" {
		inc.Status = incident.StatusApproved
	}
	now := time.Now()
	inc.CreatedAt, inc.UpdatedAt = now, now
	r.s.incidents[inc.ID] = inc
	for _, d := range days {
		r.s.incidentDays[dayKey{inc.EmployeeID, calendar.Key(d)}] = inc.ID
	}
	return inc, true, nil
}

func (r *incidentRepository) ListByEmployee(ctx context.Context, employeeID string, start, end time.Time) ([]incident.Incident, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []incident.Incident
	for _, inc := range r.s.incidents {
		if inc.EmployeeID != employeeID || inc.StartDate.After(end) || inc.EndDate.Before(start) {
			continue
		}
		out = append(out, inc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *incidentRepository) GetStartingOn(ctx context.Context, employeeID string, date time.Time) (incident.Incident, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, inc := range r.s.incidents {
		if inc.EmployeeID == employeeID && inc.StartDate.Equal(date) {
			return inc, nil
		}
	}
	return incident.Incident{}, incident.ErrIncidentNotFound
}

func (r *incidentRepository) DeleteCoveringDay(ctx context.Context, employeeID string, date time.Time) ([]incident.Incident, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var removed []incident.Incident
	for id, inc := range r.s.incidents {
		if inc.EmployeeID == employeeID && inc.Covers(date) {
			r.s.dropIncident(id)
			removed = append(removed, inc)
		}
	}
	return removed, nil
}

func (r *incidentRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.incidents[id]; !ok {
		return incident.ErrIncidentNotFound
	}
	r.s.dropIncident(id)
	return nil
}

// dropIncident removes an incident and its day claims. Caller holds mu.
func (s *Store) dropIncident(id string) {
	inc := s.incidents[id]
	for _, d := range inc.Days() {
		delete(s.incidentDays, dayKey{inc.EmployeeID, calendar.Key(d)})
	}
	delete(s.incidents, id)
}

func NewIncidentRepository(s *Store) incident.IncidentRepository {
	return &incidentRepository{s: s}
}
