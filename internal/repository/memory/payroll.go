package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
)

type periodRepository struct {
	s *Store
}

func (r *periodRepository) GetOpen(ctx context.Context) (payroll.Period, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.periods {
		if p.Status == payroll.PeriodStatusOpen {
			return p, nil
		}
	}
	return payroll.Period{}, payroll.ErrNoOpenPeriod
}

func (r *periodRepository) GetByID(ctx context.Context, id string) (payroll.Period, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.periods[id]
	if !ok {
		return payroll.Period{}, payroll.ErrPeriodNotFound
	}
	return p, nil
}

func (r *periodRepository) List(ctx context.Context, limit int) ([]payroll.Period, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]payroll.Period, 0, len(r.s.periods))
	for _, p := range r.s.periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *periodRepository) LockOpen(ctx context.Context, id string) (payroll.Period, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.periods[id]
	if !ok {
		return payroll.Period{}, payroll.ErrPeriodNotFound
	}
	if p.Status != payroll.PeriodStatusOpen {
		return payroll.Period{}, payroll.ErrPeriodNotOpen
	}
	return p, nil
}

func (r *periodRepository) Close(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.periods[id]
	if !ok {
		return payroll.ErrPeriodNotFound
	}
	p.Status = payroll.PeriodStatusClosed
	p.UpdatedAt = time.Now()
	r.s.periods[id] = p
	return nil
}

func (r *periodRepository) Create(ctx context.Context, p payroll.Period) (payroll.Period, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.periods {
		if existing.StartDate.Equal(p.StartDate) {
			return payroll.Period{}, payroll.ErrPeriodConflict
		}
		if p.Status == payroll.PeriodStatusOpen && existing.Status == payroll.PeriodStatusOpen {
			return payroll.Period{}, payroll.ErrPeriodConflict
		}
	}
	if p.ID == "" {
		p.ID = newID()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.periods[p.ID] = p
	return p, nil
}

func NewPeriodRepository(s *Store) payroll.PeriodRepository {
	return &periodRepository{s: s}
}

type noteRepository struct {
	s *Store
}

func (r *noteRepository) Upsert(ctx context.Context, note payroll.PeriodNote) (payroll.PeriodNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := note.PeriodID + "/" + note.EmployeeID
	now := time.Now()
	if existing, ok := r.s.notes[key]; ok {
		existing.Comments = note.Comments
		existing.UpdatedAt = now
		r.s.notes[key] = existing
		return existing, nil
	}
	note.ID = newID()
	note.CreatedAt, note.UpdatedAt = now, now
	r.s.notes[key] = note
	return note, nil
}

func (r *noteRepository) ListByPeriod(ctx context.Context, periodID string) (map[string]payroll.PeriodNote, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]payroll.PeriodNote)
	for _, n := range r.s.notes {
		if n.PeriodID == periodID {
			out[n.EmployeeID] = n
		}
	}
	return out, nil
}

func NewNoteRepository(s *Store) payroll.NoteRepository {
	return &noteRepository{s: s}
}
